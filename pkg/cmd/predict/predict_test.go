package predict

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
)

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, analysis.EndpointOvertake, r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","probability":42.26}`))
	}))
	defer srv.Close()
	config.AnalysisURL = srv.URL
	defer func() { config.AnalysisURL = analysis.DefaultURL }()
	req = analysis.OvertakeRequest{Gap: 0.8, TimeDiff: 0.2, SpeedDiff: 4}

	var buf bytes.Buffer
	require.NoError(t, predict(context.Background(), &buf))
	assert.Equal(t, "probability: 42.3%\ndrs:         true\n", buf.String())
}

func TestPredictServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"model not loaded"}`))
	}))
	defer srv.Close()
	config.AnalysisURL = srv.URL
	defer func() { config.AnalysisURL = analysis.DefaultURL }()

	var buf bytes.Buffer
	err := predict(context.Background(), &buf)
	var netErr *analysis.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "model not loaded", netErr.Message)
}
