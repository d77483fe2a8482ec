package discovery

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/chunk"
)

type (
	Option func(*config)
	config struct {
		sep  byte
		path string
		l    *log.Logger
	}
	Result struct {
		Drivers []string
		Stats   ingest.Stats
	}
)

func WithSeparator(sep byte) Option {
	return func(c *config) {
		c.sep = sep
	}
}

// WithPath sets the file name used in error messages
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

// Scan makes one pass over a telemetry export and collects the distinct
// vehicle ids found in the last column. Only the id text is retained per
// row. The result is sorted numerically ascending.
//
// The last column is assumed to carry the vehicle id. Rows whose last field is
// empty, 10 characters or longer, or not numeric are ignored.
func Scan(ctx context.Context, r *chunk.Reader, opts ...Option) (*Result, error) {
	cfg := &config{sep: ',', l: log.Default().Named("ingest.discovery")}
	for _, opt := range opts {
		opt(cfg)
	}
	seen := make(map[string]struct{})
	stats := ingest.Stats{}
	header := true
	err := r.Lines(ctx, func(line string) error {
		if header {
			header = false
			return nil
		}
		stats.Lines++
		id := ingest.LastField(line, cfg.sep)
		if !ingest.IsVehicleID(id) {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		if _, ok := seen[id]; !ok {
			// id points into the chunk text, keep a private copy only
			seen[strings.Clone(id)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, &ingest.ParseError{Op: "discovery", Path: cfg.path, Err: err}
	}
	if len(seen) == 0 {
		cfg.l.Error("no drivers found",
			log.String("path", cfg.path), log.Int("lines", stats.Lines))
		return nil, &ingest.ParseError{
			Op: "discovery", Path: cfg.path,
			Reason: "no vehicle ids found in last column", Err: ingest.ErrNoDrivers,
		}
	}
	drivers := SortIDs(lo.Keys(seen))
	cfg.l.Info("drivers discovered",
		log.Int("count", len(drivers)),
		log.Strings("drivers", drivers),
		log.Int("lines", stats.Lines),
		log.Int("skipped", stats.Skipped))
	return &Result{Drivers: drivers, Stats: stats}, nil
}

// SortIDs sorts vehicle ids by numeric value, ties by text
func SortIDs(ids []string) []string {
	num := func(s string) float64 {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(num(a), num(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return ids
}
