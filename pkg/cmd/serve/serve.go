package serve

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/api"
	"github.com/NissanArmada/GazooRazoo/pkg/cmd/util"
	"github.com/NissanArmada/GazooRazoo/pkg/config"
	"github.com/NissanArmada/GazooRazoo/pkg/utils"
)

var (
	addr             string
	watch            bool
	cacheTTL         time.Duration
	waitForAnalysis  time.Duration
	shutdownDuration = 5 * time.Second
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the HTTP API for the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "HTTP listen address")
	cmd.Flags().BoolVar(&watch, "watch", false,
		"drop cached discovery results when the source files change")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 10*time.Minute,
		"expiration of cached discovery and DNA results")
	cmd.Flags().DurationVar(&waitForAnalysis, "wait-for-analysis", 0,
		"duration to wait for the analysis service to be ready")
	return cmd
}

//nolint:funlen // by design
func startServer(ctx context.Context) error {
	logger := log.GetFromContext(ctx).Named("serve")
	table, err := config.GearTable()
	if err != nil {
		return err
	}
	if waitForAnalysis > 0 {
		if err := utils.WaitForHTTPResponse(ctx, config.AnalysisURL, waitForAnalysis); err != nil {
			logger.Warn("analysis service not ready", log.ErrorField(err))
		}
	}

	s := api.NewServer(util.NewSession(ctx),
		api.WithAnalysisClient(util.NewAnalysisClient(ctx)),
		api.WithGearTable(table),
		api.WithCacheExpiration(cacheTTL),
		api.WithLogger(logger.Named("api")))
	if watch {
		src := config.Sources()
		if err := s.Watch(ctx, src.Telemetry, src.Laps, src.Weather, src.Sections); err != nil {
			return err
		}
	}

	//nolint:gosec // by design
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", log.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		logger.Error("server could not be started", log.ErrorField(err))
		return err
	case <-ctx.Done():
		logger.Debug("Got signal", log.ErrorField(ctx.Err()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDuration)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Server terminated")
	return nil
}
