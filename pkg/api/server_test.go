//nolint:funlen // ok for tests
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NissanArmada/GazooRazoo/pkg/analysis"
	"github.com/NissanArmada/GazooRazoo/pkg/pipeline"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/segment"
	"github.com/NissanArmada/GazooRazoo/testsupport/telemetrydata"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, telemetrydata.Session) {
	t.Helper()
	files := telemetrydata.WriteSession(t)
	session := pipeline.NewSession(pipeline.Sources{
		Telemetry: files.Telemetry,
		Laps:      files.Laps,
		Weather:   files.Weather,
		Sections:  files.Sections,
	})
	return NewServer(session, opts...), files
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, w))
}

func TestDriversAreCached(t *testing.T) {
	s, files := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/v1/drivers", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"3", "14", "22"}, decode[[]string](t, w))

	require.NoError(t, os.Remove(files.Telemetry))
	w = do(t, s, http.MethodGet, "/api/v1/drivers", "")
	assert.Equal(t, http.StatusOK, w.Code, "served from cache")

	s.InvalidateDrivers(context.Background())
	w = do(t, s, http.MethodGet, "/api/v1/drivers", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNoSelection(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{
		"/api/v1/telemetry", "/api/v1/laps", "/api/v1/laps/fastest",
		"/api/v1/laps/1/analysis", "/api/v1/gear", "/api/v1/dna",
	} {
		w := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusConflict, w.Code, path)
		assert.Equal(t, "no driver selected", decode[errorResponse](t, w).Error)
	}
}

func TestSelectAndQuery(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/drivers/999/select", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/drivers/14/select", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel := decode[selectResponse](t, w)
	assert.Equal(t, "14", sel.Driver)
	assert.Equal(t, 120, sel.Points)
	assert.Equal(t, 3, sel.Laps)

	w = do(t, s, http.MethodGet, "/api/v1/progress", "")
	prog := decode[pipeline.Progress](t, w)
	assert.Equal(t, pipeline.StageDone, prog.Stage)
	assert.Equal(t, 100.0, prog.Percent)

	w = do(t, s, http.MethodGet, "/api/v1/telemetry?fill=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]json.RawMessage](t, w), 120)

	w = do(t, s, http.MethodGet, "/api/v1/laps/fastest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fastestResponse{Lap: 2, DurationSeconds: 92}, decode[fastestResponse](t, w))

	w = do(t, s, http.MethodGet, "/api/v1/laps/2/analysis", "")
	require.Equal(t, http.StatusOK, w.Code)
	la := decode[segment.LapAnalysis](t, w)
	assert.Equal(t, 40, la.Points)
	assert.Len(t, la.ThrottleProfile, segment.ProfileLength)
	assert.Empty(t, la.BrakeProfile)
	assert.Equal(t, "N/A / Smooth", la.StyleLabel)

	w = do(t, s, http.MethodGet, "/api/v1/laps/x/analysis", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodGet, "/api/v1/laps/9/analysis", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/gear", "")
	require.Equal(t, http.StatusOK, w.Code)
	var gr struct {
		Scorecard struct {
			Total   int `json:"total"`
			Optimal int `json:"optimal"`
		} `json:"scorecard"`
		Grade string `json:"grade"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&gr))
	assert.Equal(t, 9, gr.Scorecard.Total)
	assert.Equal(t, 9, gr.Scorecard.Optimal)
	assert.Equal(t, "A+", gr.Grade)
}

func analysisServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case analysis.EndpointOvertake:
			_, _ = w.Write([]byte(`{"status":"success","probability":64.2,"drs":true}`))
		case analysis.EndpointGrip:
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), `"AirTemp_F"`) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"status":"success","data":{"grip_percent":91.5,
				"confidence":0.8,"expected_sector_time_change":0.12}}`))
		case analysis.EndpointDNA:
			_, _ = w.Write([]byte(`{"status":"success","driverId":"14",
				"style":{"style_label":"Aggressive / Smooth"},
				"dna":{"brake_signature":[1,2],"throttle_signature":[3,4]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOvertake(t *testing.T) {
	calls := &atomic.Int32{}
	srv := analysisServer(t, calls)
	s, _ := newTestServer(t, WithAnalysisClient(analysis.NewClient(analysis.WithBaseURL(srv.URL))))

	w := do(t, s, http.MethodPost, "/api/v1/overtake", `{"gap":0.7,"time_diff":0.1,"speed_diff":3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, analysis.OvertakePrediction{Probability: 64.2, DRS: true},
		decode[analysis.OvertakePrediction](t, w))

	w = do(t, s, http.MethodPost, "/api/v1/overtake", `{"gap":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOvertake_ServiceDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	s, _ := newTestServer(t, WithAnalysisClient(analysis.NewClient(
		analysis.WithBaseURL(down.URL), analysis.WithTimeout(time.Second))))
	w := do(t, s, http.MethodPost, "/api/v1/overtake", `{"gap":0.7}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Error, "unreachable")
}

func TestDNAIsCached(t *testing.T) {
	calls := &atomic.Int32{}
	srv := analysisServer(t, calls)
	s, _ := newTestServer(t, WithAnalysisClient(analysis.NewClient(analysis.WithBaseURL(srv.URL))))
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/v1/drivers/14/select", "").Code)

	for i := 0; i < 3; i++ {
		w := do(t, s, http.MethodGet, "/api/v1/dna", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		dna := decode[analysis.DNA](t, w)
		assert.Equal(t, "Aggressive / Smooth", dna.StyleLabel)
		assert.Equal(t, []float64{1, 2}, dna.BrakeSignature)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGrip(t *testing.T) {
	calls := &atomic.Int32{}
	srv := analysisServer(t, calls)
	s, _ := newTestServer(t, WithAnalysisClient(analysis.NewClient(analysis.WithBaseURL(srv.URL))))

	body := `{"exit_speed":120.5,"mean_pbrake_f":30,"aps_std":12,"sector_id":2}`
	w := do(t, s, http.MethodPost, "/api/v1/grip", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/v1/drivers/14/select", "").Code)
	w = do(t, s, http.MethodPost, "/api/v1/grip", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, analysis.GripResult{
		GripPercent:              91.5,
		Confidence:               0.8,
		ExpectedSectorTimeChange: 0.12,
	}, decode[analysis.GripResult](t, w))
}

func TestWatchInvalidatesDrivers(t *testing.T) {
	s, files := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx, files.Telemetry))

	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/v1/drivers", "").Code)
	require.NoError(t, os.WriteFile(files.Telemetry,
		[]byte(telemetrydata.TelemetryCSV(telemetrydata.Sample{
			Vehicle: "7", Channel: "speed", Value: 1, Timestamp: telemetrydata.Timestamp(0),
		})), 0o600))

	assert.Eventually(t, func() bool {
		w := do(t, s, http.MethodGet, "/api/v1/drivers", "")
		var ids []string
		_ = json.NewDecoder(w.Body).Decode(&ids)
		return len(ids) == 1 && ids[0] == "7"
	}, 5*time.Second, 20*time.Millisecond)
}
