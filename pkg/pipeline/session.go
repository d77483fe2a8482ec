package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/assemble"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/auxcsv"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/chunk"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/discovery"
	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

const (
	StageDiscovery = "discovery"
	StageAssembly  = "assembly"
	StageAuxiliary = "auxiliary"
	StageDone      = "done"
)

type (
	// Sources names the files of one session. Only Telemetry is required.
	Sources struct {
		Telemetry string
		Laps      string
		Weather   string
		Sections  string
	}

	Progress struct {
		RunID   string  `json:"runId,omitempty"`
		Stage   string  `json:"stage"`
		Percent float64 `json:"percent"`
	}
	ProgressFunc func(Progress)

	Stats struct {
		Telemetry ingest.Stats `json:"telemetry"`
		Laps      ingest.Stats `json:"laps"`
		Weather   ingest.Stats `json:"weather"`
		Sections  ingest.Stats `json:"sections"`
	}

	// Result is the complete outcome of a driver selection. It is never
	// modified after it has been returned.
	Result struct {
		RunID    string                 `json:"runId"`
		Driver   string                 `json:"driver"`
		Points   []model.TelemetryPoint `json:"points"`
		Laps     []model.LapRecord      `json:"laps"`
		Weather  []model.WeatherSample  `json:"weather"`
		Sections []model.SectionRecord  `json:"sections"`
		Stats    Stats                  `json:"stats"`
		Duration time.Duration          `json:"duration"`
	}

	Option func(*Session)

	// Session runs the ingestion pipeline for one set of source files. A new
	// driver selection supersedes a running one: the old run is cancelled and
	// awaited before the new run reads the files.
	Session struct {
		src       Sources
		chunkSize int
		onUpdate  ProgressFunc
		l         *log.Logger
		metrics   *metrics

		mu       sync.Mutex
		cancel   context.CancelFunc
		runDone  chan struct{}
		runID    string
		drivers  []string
		current  *Result
		progress Progress
	}
)

func WithChunkSize(n int) Option {
	return func(s *Session) {
		s.chunkSize = n
	}
}

// WithProgress registers a callback receiving every progress update
func WithProgress(fn ProgressFunc) Option {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.l = l
	}
}

func NewSession(src Sources, opts ...Option) *Session {
	s := &Session{
		src:       src,
		chunkSize: chunk.DefaultChunkSize,
		l:         log.Default().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.l)
	return s
}

func (s *Session) Sources() Sources {
	return s.src
}

// Discover scans the telemetry file for vehicle ids. Progress 0-50.
func (s *Session) Discover(ctx context.Context) ([]string, error) {
	start := time.Now()
	f, err := s.openTelemetry(func(frac float64) {
		s.report(Progress{Stage: StageDiscovery, Percent: 50 * frac})
	})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s.report(Progress{Stage: StageDiscovery, Percent: 0})
	res, err := discovery.Scan(ctx, f.Reader,
		discovery.WithPath(s.src.Telemetry),
		discovery.WithLogger(s.l.Named("discovery")))
	if err != nil {
		s.metrics.failed(ctx, StageDiscovery)
		return nil, err
	}
	s.metrics.lines(ctx, StageDiscovery, res.Stats)
	s.mu.Lock()
	s.drivers = res.Drivers
	s.mu.Unlock()
	s.l.Info("drivers discovered",
		log.Int("count", len(res.Drivers)),
		log.Duration("duration", time.Since(start)))
	return res.Drivers, nil
}

// Drivers returns the ids of the last successful discovery
func (s *Session) Drivers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drivers
}

// SelectDriver assembles the telemetry of one vehicle and decodes the
// auxiliary files. Progress 50-90 covers assembly, 90-100 auxiliary files.
// The result is committed only if the run completes and was not superseded.
func (s *Session) SelectDriver(ctx context.Context, driver string) (*Result, error) {
	runID := uuid.New().String()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.l.Debug("superseding run", log.String("run", s.runID))
		s.cancel()
	}
	prevDone := s.runDone
	done := make(chan struct{})
	s.cancel, s.runDone, s.runID = cancel, done, runID
	s.mu.Unlock()
	defer close(done)

	// the previous run is already cancelled, runs never overlap
	if prevDone != nil {
		<-prevDone
	}

	l := s.l.With(log.String("run", runID), log.String("driver", driver))
	var res *Result
	err := ctx.Err()
	if err == nil {
		l.Info("run started")
		res, err = s.run(ctx, runID, driver, l)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runID == runID {
		s.cancel = nil
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			l.Info("run cancelled")
		} else {
			l.Error("run failed", log.ErrorField(err))
			s.metrics.failed(ctx, StageAssembly)
		}
		return nil, err
	}
	if s.runID != runID {
		l.Info("run superseded, result discarded")
		return nil, context.Canceled
	}
	s.current = res
	s.metrics.completed(context.WithoutCancel(ctx), res.Duration)
	l.Info("run completed",
		log.Int("points", len(res.Points)),
		log.Int("laps", len(res.Laps)),
		log.Duration("duration", res.Duration))
	return res, nil
}

//nolint:funlen // by design
func (s *Session) run(
	ctx context.Context, runID, driver string, l *log.Logger,
) (*Result, error) {
	start := time.Now()
	update := func(stage string, pct float64) {
		s.report(Progress{RunID: runID, Stage: stage, Percent: pct})
	}
	f, err := s.openTelemetry(func(frac float64) {
		update(StageAssembly, 50+40*frac)
	})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	update(StageAssembly, 50)
	asm, err := assemble.Assemble(ctx, f.Reader, driver,
		assemble.WithPath(s.src.Telemetry),
		assemble.WithLogger(l.Named("assemble")))
	if err != nil {
		return nil, err
	}
	s.metrics.lines(ctx, StageAssembly, asm.Stats)

	res := &Result{
		RunID:    runID,
		Driver:   asm.Vehicle,
		Points:   asm.Points,
		Laps:     []model.LapRecord{},
		Weather:  []model.WeatherSample{},
		Sections: []model.SectionRecord{},
		Stats:    Stats{Telemetry: asm.Stats},
	}

	type auxFile struct {
		op    string
		path  string
		parse func(data []byte) ingest.Stats
	}
	files := []auxFile{
		{"laps", s.src.Laps, func(data []byte) (st ingest.Stats) {
			res.Laps, st = auxcsv.ParseLaps(data)
			res.Stats.Laps = st
			return st
		}},
		{"weather", s.src.Weather, func(data []byte) (st ingest.Stats) {
			res.Weather, st = auxcsv.ParseWeather(data)
			res.Stats.Weather = st
			return st
		}},
		{"sections", s.src.Sections, func(data []byte) (st ingest.Stats) {
			res.Sections, st = auxcsv.ParseSections(data)
			res.Stats.Sections = st
			return st
		}},
	}
	for i, af := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if af.path != "" {
			data, err := os.ReadFile(af.path)
			if err != nil {
				return nil, &ingest.ParseError{
					Op: af.op, Path: af.path, Reason: "cannot read file", Err: err,
				}
			}
			st := af.parse(data)
			s.metrics.lines(ctx, StageAuxiliary, st)
			l.Debug("auxiliary file decoded",
				log.String("file", af.op),
				log.Int("matched", st.Matched),
				log.Int("skipped", st.Skipped+st.Format))
		}
		update(StageAuxiliary, 90+10*float64(i+1)/float64(len(files)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	update(StageDone, 100)
	return res, nil
}

func (s *Session) openTelemetry(fn chunk.ProgressFunc) (*chunk.File, error) {
	if s.src.Telemetry == "" {
		return nil, &ingest.ParseError{
			Op: "open", Reason: "no telemetry file configured", Err: ingest.ErrMissingFile,
		}
	}
	f, err := chunk.OpenFile(s.src.Telemetry,
		chunk.WithChunkSize(s.chunkSize),
		chunk.WithProgress(fn))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %w", ingest.ErrMissingFile, err)
		}
		return nil, &ingest.ParseError{Op: "open", Path: s.src.Telemetry, Err: err}
	}
	return f, nil
}

// Current returns the last committed result or nil
func (s *Session) Current() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Progress returns the last reported progress value
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *Session) report(p Progress) {
	s.mu.Lock()
	// updates of a superseded run are dropped, so are discovery updates
	// while a run is active
	if (p.RunID != "" && p.RunID != s.runID) || (p.RunID == "" && s.cancel != nil) {
		s.mu.Unlock()
		return
	}
	s.progress = p
	fn := s.onUpdate
	s.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}
