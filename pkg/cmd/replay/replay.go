package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/cmd/util"
	"github.com/NissanArmada/GazooRazoo/pkg/config"
	"github.com/NissanArmada/GazooRazoo/pkg/notify"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/gear"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/segment"
	"github.com/NissanArmada/GazooRazoo/pkg/utils"
	"github.com/NissanArmada/GazooRazoo/pkg/utils/broadcast"
)

var (
	driver      string
	rate        time.Duration
	natsURL     string
	natsSubject string
	natsToken   string
	waitForNats time.Duration
	skipTimeout time.Duration
)

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "replays the telemetry of a driver and emits gear alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return replay(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&driver, "driver", "d", "", "vehicle id to replay")
	cmd.Flags().DurationVar(&rate, "rate", 0,
		"delay between two telemetry points (0 means: go as fast as possible)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "",
		"publish events to this NATS server")
	cmd.Flags().StringVar(&natsSubject, "nats-subject", notify.DefaultSubject,
		"base subject for published events")
	cmd.Flags().StringVar(&natsToken, "nats-token", "", "NATS authentication token")
	cmd.Flags().DurationVar(&waitForNats, "wait-for-nats", 0,
		"duration to wait for the NATS server to be reachable")
	cmd.Flags().DurationVar(&skipTimeout, "skip-timeout", 5*time.Second,
		"max time an event sink may block before it misses an event")
	_ = cmd.MarkFlagRequired("driver")
	return cmd
}

//nolint:funlen // by design
func replay(ctx context.Context, w io.Writer) error {
	logger := log.GetFromContext(ctx).Named("replay")
	table, err := config.GearTable()
	if err != nil {
		return err
	}
	_, res, err := util.SelectDriver(ctx, driver)
	if err != nil {
		return err
	}

	sinks := []notify.Sink{notify.NewLogSink(logger.Named("events"))}
	if natsURL != "" {
		if waitForNats > 0 {
			addr := utils.ExtractFromNatsURL(natsURL)
			if err := utils.WaitForTCP(ctx, addr, waitForNats); err != nil {
				return err
			}
		}
		ns, err := notify.NewNatsSink(natsURL,
			notify.WithSubject(natsSubject),
			notify.WithToken(natsToken),
			notify.WithNatsLogger(logger.Named("nats")))
		if err != nil {
			return err
		}
		sinks = append(sinks, ns)
	}

	source := make(chan notify.Event)
	server := broadcast.New("events", source,
		broadcast.WithSkipTimeout[notify.Event](skipTimeout),
		broadcast.WithLogger[notify.Event](logger.Named("broadcast")))
	dispatcher := notify.NewDispatcher(server, logger, sinks...)

	ev := gear.NewEvaluator(gear.WithTable(table), gear.WithLogger(logger.Named("gear")))
	logger.Info("replay started",
		log.String("driver", res.Driver),
		log.Int("points", len(res.Points)),
		log.Duration("rate", rate))
	feedErr := notify.Feed(ctx, segment.FillForward(res.Points), ev, res.Driver, rate, source)
	close(source)
	waitErr := dispatcher.Wait()
	if feedErr != nil && !errors.Is(feedErr, context.Canceled) {
		return feedErr
	}

	score := ev.Scorecard()
	fmt.Fprintf(w, "shifts: %d optimal: %d early: %d late: %d grade: %s\n",
		score.Total, score.Optimal, score.Early, score.Late, score.Grade())
	return waitErr
}
