package config

import (
	"context"
	"io"
	"os"
	"time"

	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/version"
)

type Telemetry struct {
	provider *metric.MeterProvider
}

// SetupTelemetry installs a global meter provider exporting to stderr every
// 30 seconds. Go runtime metrics are collected as well.
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	t, err := setupTelemetry(ctx, os.Stderr, 30*time.Second)
	if err != nil {
		return nil, err
	}
	err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
	if err != nil {
		log.Warn("Could not start runtime metrics", log.ErrorField(err))
	}
	return t, nil
}

func setupTelemetry(_ context.Context, w io.Writer, interval time.Duration) (*Telemetry, error) {
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, err
	}
	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName("gazoo"),
			semconv.ServiceVersion(version.Version)))
	if err != nil {
		return nil, err
	}
	provider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exp, metric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)
	return &Telemetry{provider: provider}, nil
}

func (t *Telemetry) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.provider.Shutdown(ctx); err != nil {
		log.Warn("telemetry shutdown", log.ErrorField(err))
	}
}
