package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/analysis"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest"
	"github.com/NissanArmada/GazooRazoo/pkg/pipeline"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/gear"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/segment"
)

var errNoSelection = errors.New("no driver selected")

type (
	selectResponse struct {
		RunID  string         `json:"runId"`
		Driver string         `json:"driver"`
		Points int            `json:"points"`
		Laps   int            `json:"laps"`
		Stats  pipeline.Stats `json:"stats"`
	}
	fastestResponse struct {
		Lap             int     `json:"lap"`
		DurationSeconds float64 `json:"durationSeconds"`
	}
	gearResponse struct {
		*gear.Summary
		Table *gear.Table `json:"table"`
	}
	errorResponse struct {
		Error string `json:"error"`
	}
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing left to do if the client went away
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.l.Error("request failed", log.Int("status", status), log.ErrorField(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusOf maps pipeline and service errors to http status codes
func statusOf(err error) int {
	var pe *ingest.ParseError
	var ne *analysis.NetworkError
	switch {
	case errors.Is(err, errNoSelection):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return http.StatusConflict
	case errors.As(err, &ne):
		return http.StatusBadGateway
	case errors.Is(err, ingest.ErrMissingFile):
		return http.StatusNotFound
	case errors.As(err, &pe):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) current() (*pipeline.Result, error) {
	res := s.session.Current()
	if res == nil {
		return nil, errNoSelection
	}
	return res, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.drivers.Get(r.Context(), s.session.Sources().Telemetry)
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, *ids)
}

func (s *Server) selectDriver(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.SelectDriver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{
		RunID:  res.RunID,
		Driver: res.Driver,
		Points: len(res.Points),
		Laps:   len(res.Laps),
		Stats:  res.Stats,
	})
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Progress())
}

// telemetry returns the points of the selected driver. With fill=true
// channels not sampled at a timestamp carry the previous value.
func (s *Server) telemetry(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	points := res.Points
	if fill, _ := strconv.ParseBool(r.URL.Query().Get("fill")); fill {
		points = segment.FillForward(points)
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) laps(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res.Laps)
}

func (s *Server) fastestLap(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	lap, ok := segment.FastestLap(res.Laps)
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("no valid lap"))
		return
	}
	ret := fastestResponse{Lap: lap}
	for _, l := range res.Laps {
		if l.LapNumber == lap {
			ret.DurationSeconds = l.DurationSeconds
			break
		}
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) lapAnalysis(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	lap, err := strconv.Atoi(chi.URLParam(r, "lap"))
	if err != nil || lap < 1 {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid lap number"))
		return
	}
	ret, ok := segment.AnalyzeLap(res.Points, res.Laps, lap)
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("no telemetry for lap "+strconv.Itoa(lap)))
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) gearReport(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	ev := gear.NewEvaluator(gear.WithTable(s.table), gear.WithLogger(s.l.Named("gear")))
	writeJSON(w, http.StatusOK, gearResponse{
		Summary: ev.Evaluate(segment.FillForward(res.Points)),
		Table:   s.table,
	})
}

// dnaBaseline asks the analysis service for the baseline of the selected
// driver. Results are cached per driver and file set.
func (s *Server) dnaBaseline(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	num, _ := strconv.Atoi(res.Driver)
	src := s.session.Sources()
	dna, err := s.dna.Get(r.Context(), analysis.DNARequest{
		TelemetryPath: src.Telemetry,
		LapsPath:      src.Laps,
		DriverID:      res.Driver,
		DriverNumber:  num,
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, dna)
}

func (s *Server) overtake(w http.ResponseWriter, r *http.Request) {
	var req analysis.OvertakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	pred, err := s.client.PredictOvertake(r.Context(), req)
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// grip asks the analysis service for a grip estimate of a sector. The weather
// part of the request is the latest weather sample of the selected session.
func (s *Server) grip(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	var req analysis.GripRequest
	if err := json.NewDecoder(r.Body).Decode(&req.Telemetry); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if n := len(res.Weather); n > 0 {
		req.Weather = analysis.WeatherPayload(res.Weather[n-1])
	}
	ret, err := s.client.AnalyzeGrip(r.Context(), req)
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}
