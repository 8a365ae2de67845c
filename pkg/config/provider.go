package config

import (
	"github.com/chrissnell/deepcut/internal/profile"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDetectionParams() (profile.Params, error)
	GetStorageConfig() (*StorageData, error)
	GetServerConfig() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Detection DetectionData `yaml:"detection,omitempty" json:"detection,omitempty"`
	Source    SourceData    `yaml:"source,omitempty" json:"source,omitempty"`
	Server    ServerData    `yaml:"server,omitempty" json:"server,omitempty"`
	Storage   StorageData   `yaml:"storage,omitempty" json:"storage,omitempty"`
	Log       LogData       `yaml:"log,omitempty" json:"log,omitempty"`
}

// DetectionData overrides the default detection parameters. Absent fields keep their
// defaults. A peaks or troughs section replaces the default constraints as a whole.
type DetectionData struct {
	WindowLength *int                 `yaml:"window_length,omitempty" json:"window_length,omitempty"`
	PolyOrder    *int                 `yaml:"polyorder,omitempty" json:"polyorder,omitempty"`
	Smoothing    *bool                `yaml:"smoothing,omitempty" json:"smoothing,omitempty"`
	RunLength    *int                 `yaml:"run_length,omitempty" json:"run_length,omitempty"`
	MinIncrease  *float64             `yaml:"min_increase,omitempty" json:"min_increase,omitempty"`
	MinDecrease  *float64             `yaml:"min_decrease,omitempty" json:"min_decrease,omitempty"`
	Peaks        *profile.Constraints `yaml:"peaks,omitempty" json:"peaks,omitempty"`
	Troughs      *profile.Constraints `yaml:"troughs,omitempty" json:"troughs,omitempty"`
}

// SourceData names where the CLI reads a pressure record from when no input file is given
type SourceData struct {
	Deployment string        `yaml:"deployment,omitempty" json:"deployment,omitempty"`
	CSV        *CSVData      `yaml:"csv,omitempty" json:"csv,omitempty"`
	Postgres   *PostgresData `yaml:"postgres,omitempty" json:"postgres,omitempty"`
	Serial     *SerialData   `yaml:"serial,omitempty" json:"serial,omitempty"`
}

type CSVData struct {
	Path     string `yaml:"path" json:"path"`
	SkipRows *int   `yaml:"skip_rows,omitempty" json:"skip_rows,omitempty"`
	Column   int    `yaml:"column,omitempty" json:"column,omitempty"`
}

type PostgresData struct {
	ConnectionString string `yaml:"connection_string" json:"connection_string"`
	// Query must select one pressure column and bind the deployment to $1
	Query string `yaml:"query,omitempty" json:"query,omitempty"`
}

type SerialData struct {
	Device  string `yaml:"device" json:"device"`
	Baud    int    `yaml:"baud,omitempty" json:"baud,omitempty"`
	Column  int    `yaml:"column,omitempty" json:"column,omitempty"`
	Samples int    `yaml:"samples,omitempty" json:"samples,omitempty"`
}

// ServerData holds the listeners of deepcut-server
type ServerData struct {
	REST *RESTServerData `yaml:"rest,omitempty" json:"rest,omitempty"`
	GRPC *GRPCData       `yaml:"grpc,omitempty" json:"grpc,omitempty"`
}

type RESTServerData struct {
	Cert       string `yaml:"cert,omitempty" json:"cert,omitempty"`
	Key        string `yaml:"key,omitempty" json:"key,omitempty"`
	Port       int    `yaml:"port,omitempty" json:"port,omitempty"`
	ListenAddr string `yaml:"listen_addr,omitempty" json:"listen_addr,omitempty"`
	// MaxSamples caps the length of a submitted record
	MaxSamples int `yaml:"max_samples,omitempty" json:"max_samples,omitempty"`
}

type GRPCData struct {
	Cert       string `yaml:"cert,omitempty" json:"cert,omitempty"`
	Key        string `yaml:"key,omitempty" json:"key,omitempty"`
	ListenAddr string `yaml:"listen_addr,omitempty" json:"listen_addr,omitempty"`
	Port       int    `yaml:"port,omitempty" json:"port,omitempty"`
}

// StorageData holds the configuration for the results store backends
type StorageData struct {
	SQLite      *SQLiteData      `yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `yaml:"timescaledb,omitempty" json:"timescaledb,omitempty"`
	// HealthInterval is how often backends are checked, as a Go duration
	HealthInterval string `yaml:"health_interval,omitempty" json:"health_interval,omitempty"`
}

type SQLiteData struct {
	Path string `yaml:"path" json:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `yaml:"connection_string" json:"connection_string"`
}

// LogData configures the zap logger
type LogData struct {
	Debug      bool   `yaml:"debug,omitempty" json:"debug,omitempty"`
	File       string `yaml:"file,omitempty" json:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty" json:"max_backups,omitempty"`
}

// Params applies the overrides in d to the default detection parameters
func (d DetectionData) Params() profile.Params {
	p := profile.DefaultParams()

	if d.WindowLength != nil {
		p.WindowLength = *d.WindowLength
	}
	if d.PolyOrder != nil {
		p.PolyOrder = *d.PolyOrder
	}
	if d.Smoothing != nil {
		p.Smoothing = *d.Smoothing
	}
	if d.RunLength != nil {
		p.RunLength = *d.RunLength
	}
	if d.MinIncrease != nil {
		p.MinIncrease = *d.MinIncrease
	}
	if d.MinDecrease != nil {
		p.MinDecrease = *d.MinDecrease
	}
	if d.Peaks != nil {
		p.Peaks = d.Peaks.Clone()
	}
	if d.Troughs != nil {
		t := d.Troughs.Clone()
		p.Troughs = &t
	}

	return p
}
