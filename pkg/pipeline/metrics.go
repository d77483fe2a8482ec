package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest"
)

// metrics records pipeline counters on the global meter provider. With
// telemetry disabled the provider is a noop.
type metrics struct {
	runs     metric.Int64Counter
	failures metric.Int64Counter
	rows     metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(l *log.Logger) *metrics {
	meter := otel.GetMeterProvider().Meter("gazoo.pipeline")
	m := &metrics{}
	var err error
	check := func(name string) {
		if err != nil {
			l.Error("failed to register metric",
				log.String("metric", name), log.ErrorField(err))
		}
	}
	m.runs, err = meter.Int64Counter("gazoo.pipeline.runs",
		metric.WithDescription("Number of completed driver selections"),
		metric.WithUnit("{count}"))
	check("gazoo.pipeline.runs")
	m.failures, err = meter.Int64Counter("gazoo.pipeline.failures",
		metric.WithDescription("Number of failed pipeline stages"),
		metric.WithUnit("{count}"))
	check("gazoo.pipeline.failures")
	m.rows, err = meter.Int64Counter("gazoo.pipeline.rows",
		metric.WithDescription("Number of processed rows"),
		metric.WithUnit("{row}"))
	check("gazoo.pipeline.rows")
	m.duration, err = meter.Float64Histogram("gazoo.pipeline.duration",
		metric.WithDescription("Duration of driver selections"),
		metric.WithUnit("s"))
	check("gazoo.pipeline.duration")
	return m
}

func (m *metrics) lines(ctx context.Context, stage string, st ingest.Stats) {
	if m.rows == nil {
		return
	}
	for result, n := range map[string]int{
		"matched": st.Matched,
		"skipped": st.Skipped,
		"format":  st.Format,
	} {
		m.rows.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("result", result)))
	}
}

func (m *metrics) failed(ctx context.Context, stage string) {
	if m.failures == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *metrics) completed(ctx context.Context, d time.Duration) {
	if m.runs != nil {
		m.runs.Add(ctx, 1)
	}
	if m.duration != nil {
		m.duration.Record(ctx, d.Seconds())
	}
}
