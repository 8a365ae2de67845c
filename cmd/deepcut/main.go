// Package main runs profile detection over one pressure record and prints the segments.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"text/tabwriter"

	_ "github.com/lib/pq"

	"github.com/chrissnell/deepcut/internal/dataset"
	"github.com/chrissnell/deepcut/internal/log"
	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/internal/storage/sqlite"
	"github.com/chrissnell/deepcut/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

type output struct {
	Segments []profile.Segment `json:"segments"`
	Summary  profile.Summary   `json:"summary"`
	RunID    string            `json:"run_id,omitempty"`
}

func main() {
	cfgFile := flag.String("config", "", "Optional YAML configuration file with detection parameters and a source")
	input := flag.String("input", "", "CSV pressure export to read (overrides the configured source)")
	skipRows := flag.Int("skip-rows", dataset.RBROptions().SkipRows, "Header rows to skip in the CSV input")
	column := flag.Int("column", 0, "Zero-based CSV column holding pressure")
	deployment := flag.String("deployment", "", "Deployment name used for database sources and saved runs")
	storePath := flag.String("store", "", "SQLite file to save the run to")
	jsonOut := flag.Bool("json", false, "Print JSON instead of a table")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("deepcut %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgData := &config.ConfigData{}
	if *cfgFile != "" {
		filename, _ := filepath.Abs(*cfgFile)
		var err error
		cfgData, err = config.NewYAMLProvider(filename).LoadConfig()
		if err != nil {
			log.Fatalf("error reading config file: %v", err)
		}
	}

	source := cfgData.Source
	if *input != "" {
		rows := *skipRows
		source.CSV = &config.CSVData{Path: *input, SkipRows: &rows, Column: *column}
		source.Postgres = nil
		source.Serial = nil
	}
	if *deployment != "" {
		source.Deployment = *deployment
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pressure, err := loadPressure(ctx, source)
	if err != nil {
		log.Fatalf("could not load pressure record: %v", err)
	}
	log.Debugf("loaded %d samples", len(pressure))

	params := cfgData.Detection.Params()
	segments, err := profile.FindProfiles(pressure, params)
	if err != nil {
		log.Fatalf("profile detection failed: %v", err)
	}

	out := output{Segments: segments, Summary: profile.Summarize(segments, len(pressure))}

	if *storePath != "" {
		id, err := saveRun(ctx, *storePath, storage.NewRun(source.Deployment, len(pressure), params, segments))
		if err != nil {
			log.Fatalf("could not save run: %v", err)
		}
		out.RunID = id
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("could not write output: %v", err)
		}
		return
	}
	printTable(out)
}

// loadPressure reads the record from the first source that is configured
func loadPressure(ctx context.Context, source config.SourceData) ([]float64, error) {
	switch {
	case source.CSV != nil:
		opts := dataset.RBROptions()
		if source.CSV.SkipRows != nil {
			opts.SkipRows = *source.CSV.SkipRows
		}
		opts.Column = source.CSV.Column
		return dataset.LoadCSVFile(source.CSV.Path, opts)

	case source.Postgres != nil:
		db, err := sql.Open("postgres", source.Postgres.ConnectionString)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		query := source.Postgres.Query
		if query == "" {
			query = dataset.DefaultPressureQuery
		}
		return dataset.LoadSQL(ctx, db, query, source.Deployment)

	case source.Serial != nil:
		port, err := dataset.OpenSerial(dataset.SerialConfig{
			Device: source.Serial.Device,
			Baud:   source.Serial.Baud,
			Column: source.Serial.Column,
		})
		if err != nil {
			return nil, err
		}
		defer port.Close()

		log.Infof("reading from %s; interrupt to stop", source.Serial.Device)
		pressure, err := dataset.ReadStream(ctx, port, source.Serial.Column, source.Serial.Samples)
		if errors.Is(err, context.Canceled) && len(pressure) > 0 {
			return pressure, nil
		}
		return pressure, err

	default:
		return nil, fmt.Errorf("no input: pass -input or configure a source")
	}
}

func saveRun(ctx context.Context, path string, run storage.Run) (string, error) {
	store, err := sqlite.New(ctx, path)
	if err != nil {
		return "", err
	}
	defer store.Close()

	if err := store.SaveRun(ctx, run); err != nil {
		return "", err
	}
	return run.ID.String(), nil
}

func printTable(out output) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tstart\tpeak\tend\t")
	for i, s := range out.Segments {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t\n", i+1, s.Start, s.Peak, s.End)
	}
	w.Flush()

	fmt.Printf("\n%d profiles in %d samples, %.1f%% coverage, %d overlapping\n",
		out.Summary.Profiles, out.Summary.Samples, out.Summary.Coverage*100, out.Summary.Overlaps)
	if out.RunID != "" {
		fmt.Printf("saved run %s\n", out.RunID)
	}
}
