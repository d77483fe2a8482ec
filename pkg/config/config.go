package config

import (
	"time"

	"github.com/NissanArmada/GazooRazoo/pkg/ingest/chunk"
	"github.com/NissanArmada/GazooRazoo/pkg/pipeline"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/gear"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	TelemetryFile   string        // telemetry export (long format, one channel per row)
	LapsFile        string        // lap time export
	WeatherFile     string        // weather export
	SectionsFile    string        // sections export
	ChunkSize       int           // bytes per read window
	AnalysisURL     string        // base URL of the analysis service
	AnalysisTimeout time.Duration // timeout for analysis service requests
	GearConfig      string        // path to YAML gear table
	LogLevel        string        // sets the log level (zap log level values)
	LogFormat       string        // text vs json
	LogFilter       string        // zapfilter rules
	EnableTelemetry bool          // enable otel metrics (stdoutmetric exporter on stderr)
)

func init() {
	ChunkSize = chunk.DefaultChunkSize
}

// Sources returns the configured session files
func Sources() pipeline.Sources {
	return pipeline.Sources{
		Telemetry: TelemetryFile,
		Laps:      LapsFile,
		Weather:   WeatherFile,
		Sections:  SectionsFile,
	}
}

// GearTable returns the gear table from GearConfig or the built-in defaults
// if no file is configured.
func GearTable() (*gear.Table, error) {
	if GearConfig == "" {
		return gear.DefaultTable(), nil
	}
	return gear.LoadTable(GearConfig)
}
