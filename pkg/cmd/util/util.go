package util

import (
	"context"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/analysis"
	"github.com/NissanArmada/GazooRazoo/pkg/config"
	"github.com/NissanArmada/GazooRazoo/pkg/pipeline"
)

// NewSession creates a pipeline session for the configured files. Progress
// updates are logged at debug level.
func NewSession(ctx context.Context) *pipeline.Session {
	logger := log.GetFromContext(ctx).Named("pipeline")
	return pipeline.NewSession(config.Sources(),
		pipeline.WithChunkSize(config.ChunkSize),
		pipeline.WithLogger(logger),
		pipeline.WithProgress(func(p pipeline.Progress) {
			logger.Debug("progress",
				log.String("stage", p.Stage),
				log.Float64("percent", p.Percent))
		}))
}

// NewAnalysisClient creates a client for the configured analysis service.
// Unset values keep the client defaults.
func NewAnalysisClient(ctx context.Context) *analysis.Client {
	opts := []analysis.Option{
		analysis.WithLogger(log.GetFromContext(ctx).Named("analysis")),
	}
	if config.AnalysisURL != "" {
		opts = append(opts, analysis.WithBaseURL(config.AnalysisURL))
	}
	if config.AnalysisTimeout > 0 {
		opts = append(opts, analysis.WithTimeout(config.AnalysisTimeout))
	}
	return analysis.NewClient(opts...)
}

// SelectDriver discovers the drivers of the configured session and
// assembles the telemetry of driver.
//
//nolint:whitespace // can't make both editor and linter happy
func SelectDriver(ctx context.Context, driver string) (
	*pipeline.Session, *pipeline.Result, error,
) {
	session := NewSession(ctx)
	if _, err := session.Discover(ctx); err != nil {
		return nil, nil, err
	}
	res, err := session.SelectDriver(ctx, driver)
	if err != nil {
		return nil, nil, err
	}
	return session, res, nil
}
