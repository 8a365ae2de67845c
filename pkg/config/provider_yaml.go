package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/chrissnell/deepcut/internal/profile"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

var _ ConfigProvider = (*YAMLProvider)(nil)

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file. The file is read
// once and cached.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := Parse(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// Parse decodes and validates a YAML configuration document
func Parse(data []byte) (*ConfigData, error) {
	var config ConfigData
	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the sections that can be checked without connecting to anything
func (c *ConfigData) Validate() error {
	if err := c.Detection.Params().Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if c.Storage.HealthInterval != "" {
		if _, err := time.ParseDuration(c.Storage.HealthInterval); err != nil {
			return fmt.Errorf("storage.health_interval: %w", err)
		}
	}
	if c.Source.Serial != nil && c.Source.Serial.Device == "" {
		return fmt.Errorf("source.serial.device is required")
	}
	return nil
}

// GetDetectionParams returns the default detection parameters with the file's overrides applied
func (y *YAMLProvider) GetDetectionParams() (profile.Params, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return profile.Params{}, err
	}
	return config.Detection.Params(), nil
}

// GetStorageConfig returns storage configuration from YAML
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Storage, nil
}

// GetServerConfig returns server configuration from YAML, with listener defaults filled in
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}

	server := config.Server
	if server.REST != nil {
		rest := *server.REST
		if rest.ListenAddr == "" {
			rest.ListenAddr = "0.0.0.0"
		}
		if rest.Port == 0 {
			rest.Port = 8080
		}
		server.REST = &rest
	}
	if server.GRPC != nil {
		grpc := *server.GRPC
		if grpc.ListenAddr == "" {
			grpc.ListenAddr = "0.0.0.0"
		}
		if grpc.Port == 0 {
			grpc.Port = 50051
		}
		server.GRPC = &grpc
	}
	return &server, nil
}

// HealthCheckInterval returns the storage health check interval, one minute by default
func (s StorageData) HealthCheckInterval() time.Duration {
	if d, err := time.ParseDuration(s.HealthInterval); err == nil && d > 0 {
		return d
	}
	return time.Minute
}

// IsReadOnly returns true since YAML files are read-only
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
