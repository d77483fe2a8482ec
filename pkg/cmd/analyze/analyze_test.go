package analyze

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NissanArmada/GazooRazoo/pkg/analysis"
	"github.com/NissanArmada/GazooRazoo/pkg/config"
	"github.com/NissanArmada/GazooRazoo/testsupport/telemetrydata"
)

func setup(t *testing.T) {
	t.Helper()
	files := telemetrydata.WriteSession(t)
	config.TelemetryFile, config.LapsFile = files.Telemetry, files.Laps
	t.Cleanup(func() {
		config.TelemetryFile, config.LapsFile = "", ""
		config.AnalysisURL = analysis.DefaultURL
		driver, lap, withDNA = "", 0, false
	})
	driver = "14"
}

func TestAnalyzeFastestLap(t *testing.T) {
	setup(t)
	var buf bytes.Buffer
	require.NoError(t, analyze(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "lap:         2 (40 points)")
	assert.Contains(t, out, "style:       N/A / Smooth")
	assert.Contains(t, out, "throttle:    100.0")
	assert.Contains(t, out, "grade:       A+ (100.0%)")
	assert.NotContains(t, out, "dna")
}

func TestAnalyzeLap(t *testing.T) {
	setup(t)
	lap = 1
	var buf bytes.Buffer
	require.NoError(t, analyze(context.Background(), &buf))
	assert.Contains(t, buf.String(), "lap:         1 (40 points)")

	lap = 9
	require.ErrorIs(t, analyze(context.Background(), &buf), ErrNoLap)
}

func TestAnalyzeWithDNA(t *testing.T) {
	setup(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","optimalLaps":[2,5],
			"style":{"style_label":"Late Braker / Smooth"},
			"dna":{"brake_signature":[1],"throttle_signature":[2]}}`))
	}))
	defer srv.Close()
	config.AnalysisURL = srv.URL
	withDNA = true

	var buf bytes.Buffer
	require.NoError(t, analyze(context.Background(), &buf))
	assert.Contains(t, buf.String(), "dna style:   Late Braker / Smooth")
	assert.Contains(t, buf.String(), "dna laps:    2 5")
}

func TestAnalyzeDNAUnavailable(t *testing.T) {
	setup(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	config.AnalysisURL = srv.URL
	srv.Close()
	withDNA = true

	var buf bytes.Buffer
	require.NoError(t, analyze(context.Background(), &buf))
	assert.Contains(t, buf.String(), "dna:         not available")
	assert.Contains(t, buf.String(), "style:       N/A / Smooth")
}
