package assemble

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/chunk"
	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

// column layout of the telemetry export
const (
	colName      = 8
	colValue     = 9
	colTimestamp = 10
	minColumns   = colTimestamp + 1
)

// channels maps export channel names to point attributes. Names not listed
// here are ignored.
var channels = map[string]model.Channel{
	"speed":          model.ChannelSpeed,
	"nmot":           model.ChannelRPM,
	"gear":           model.ChannelGear,
	"ath":            model.ChannelThrottle,
	"pbrake_f":       model.ChannelBrake,
	"Steering_Angle": model.ChannelSteering,
}

type (
	Option func(*config)
	config struct {
		sep  byte
		path string
		l    *log.Logger
	}
	Result struct {
		Vehicle string
		Points  []model.TelemetryPoint
		Stats   ingest.Stats
	}
	// entry is the aggregation slot for one raw timestamp
	entry struct {
		raw   string
		point model.TelemetryPoint
	}
)

func WithSeparator(sep byte) Option {
	return func(c *config) {
		c.sep = sep
	}
}

func WithPath(path string) Option {
	return func(c *config) {
		c.path = path
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.l = l
	}
}

// Assemble streams the telemetry export and rebuilds the multi-channel series
// of one vehicle. Rows of other vehicles are rejected by their last field
// before the row is split. All samples sharing a raw timestamp are merged into
// one point, a repeated channel overwrites the earlier value. The result is
// sorted ascending by timestamp. Channels not sampled at a timestamp stay zero
// and are absent from the point's channel set.
//
//nolint:funlen // by design
func Assemble(
	ctx context.Context, r *chunk.Reader, vehicle string, opts ...Option,
) (*Result, error) {
	cfg := &config{sep: ',', l: log.Default().Named("ingest.assemble")}
	for _, opt := range opts {
		opt(cfg)
	}
	vehicle = ingest.Clean(vehicle)
	byTimestamp := make(map[string]*entry)
	stats := ingest.Stats{}
	lineNo := 0
	sep := string(cfg.sep)

	err := r.Lines(ctx, func(line string) error {
		lineNo++
		if lineNo == 1 {
			return nil
		}
		stats.Lines++
		if ingest.LastField(line, cfg.sep) != vehicle {
			return nil
		}
		fields := strings.Split(line, sep)
		if len(fields) < minColumns {
			stats.Format++
			cfg.l.Debug("short row",
				log.Any("error", &ingest.FormatError{
					Line: lineNo, Columns: len(fields), Want: minColumns,
				}))
			return nil
		}
		ch, known := channels[ingest.Clean(fields[colName])]
		if !known {
			return nil
		}
		raw := ingest.Clean(fields[colTimestamp])
		if raw == "" {
			stats.Skipped++
			return nil
		}
		value, err := ingest.ParseFloat(fields[colValue])
		if err != nil {
			stats.Skipped++
			return nil
		}
		e, ok := byTimestamp[raw]
		if !ok {
			ms, err := ingest.ParseTimestamp(raw)
			if err != nil {
				stats.Skipped++
				return nil
			}
			raw = strings.Clone(raw)
			e = &entry{raw: raw, point: model.TelemetryPoint{Timestamp: ms}}
			byTimestamp[raw] = e
		}
		apply(&e.point, ch, value)
		stats.Matched++
		return nil
	})
	if err != nil {
		return nil, &ingest.ParseError{Op: "assemble", Path: cfg.path, Err: err}
	}
	if len(byTimestamp) == 0 {
		return nil, &ingest.ParseError{
			Op: "assemble", Path: cfg.path,
			Reason: "no usable telemetry rows for vehicle " + vehicle,
		}
	}

	entries := make([]*entry, 0, len(byTimestamp))
	for _, e := range byTimestamp {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *entry) int {
		if a.point.Timestamp != b.point.Timestamp {
			if a.point.Timestamp < b.point.Timestamp {
				return -1
			}
			return 1
		}
		return strings.Compare(a.raw, b.raw)
	})
	points := make([]model.TelemetryPoint, len(entries))
	for i, e := range entries {
		points[i] = e.point
	}
	cfg.l.Info("telemetry assembled",
		log.String("vehicle", vehicle),
		log.Int("points", len(points)),
		log.Int("samples", stats.Matched),
		log.Int("skipped", stats.Skipped),
		log.Int("format", stats.Format))
	return &Result{Vehicle: vehicle, Points: points, Stats: stats}, nil
}

func apply(p *model.TelemetryPoint, ch model.Channel, value float64) {
	switch ch {
	case model.ChannelSpeed:
		p.Speed = value
	case model.ChannelRPM:
		p.RPM = value
	case model.ChannelGear:
		p.Gear = int(math.Round(value))
	case model.ChannelThrottle:
		p.Throttle = value / 100
	case model.ChannelBrake:
		p.Brake = value / 100
	case model.ChannelSteering:
		p.Steering = value
	}
	p.Channels = p.Channels.With(ch)
}
