package util

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NissanArmada/GazooRazoo/pkg/analysis"
	"github.com/NissanArmada/GazooRazoo/pkg/config"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest"
	"github.com/NissanArmada/GazooRazoo/testsupport/telemetrydata"
)

func useSession(t *testing.T) telemetrydata.Session {
	t.Helper()
	files := telemetrydata.WriteSession(t)
	config.TelemetryFile, config.LapsFile = files.Telemetry, files.Laps
	config.WeatherFile, config.SectionsFile = files.Weather, files.Sections
	t.Cleanup(func() {
		config.TelemetryFile, config.LapsFile = "", ""
		config.WeatherFile, config.SectionsFile = "", ""
	})
	return files
}

func TestSelectDriver(t *testing.T) {
	files := useSession(t)
	session, res, err := SelectDriver(context.Background(), "14")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "14", "22"}, session.Drivers())
	assert.Equal(t, files.Telemetry, session.Sources().Telemetry)
	assert.Len(t, res.Points, 120)
	assert.Len(t, res.Laps, 3)
}

func TestSelectDriverMissingFile(t *testing.T) {
	_, _, err := SelectDriver(context.Background(), "14")
	require.ErrorIs(t, err, ingest.ErrMissingFile)
}

func TestNewAnalysisClient(t *testing.T) {
	assert.Equal(t, analysis.DefaultURL, NewAnalysisClient(context.Background()).BaseURL())

	config.AnalysisURL = "http://analysis:9000/"
	defer func() { config.AnalysisURL = "" }()
	assert.Equal(t, "http://analysis:9000", NewAnalysisClient(context.Background()).BaseURL())
}
