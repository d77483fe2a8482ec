package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/analysis"
	"github.com/NissanArmada/GazooRazoo/pkg/cmd/util"
	"github.com/NissanArmada/GazooRazoo/pkg/config"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/gear"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/segment"
)

var (
	driver  string
	lap     int
	withDNA bool
)

var ErrNoLap = errors.New("no lap with telemetry")

func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "analyzes the driving style and gear usage of a driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyze(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&driver, "driver", "d", "", "vehicle id to analyze")
	cmd.Flags().IntVar(&lap, "lap", 0, "lap to analyze (0: fastest valid lap)")
	cmd.Flags().BoolVar(&withDNA, "with-dna", false,
		"request the driver DNA from the analysis service")
	_ = cmd.MarkFlagRequired("driver")
	return cmd
}

//nolint:funlen // by design
func analyze(ctx context.Context, w io.Writer) error {
	logger := log.GetFromContext(ctx).Named("analyze")
	table, err := config.GearTable()
	if err != nil {
		return err
	}
	session, res, err := util.SelectDriver(ctx, driver)
	if err != nil {
		return err
	}

	var la *segment.LapAnalysis
	var ok bool
	if lap > 0 {
		la, ok = segment.AnalyzeLap(res.Points, res.Laps, lap)
	} else {
		la, ok = segment.FastestLapAnalysis(res.Points, res.Laps)
	}
	if !ok {
		return ErrNoLap
	}
	summary := gear.NewEvaluator(gear.WithTable(table), gear.WithLogger(logger)).
		Evaluate(segment.FillForward(res.Points))

	fmt.Fprintf(w, "driver:      %s\n", res.Driver)
	fmt.Fprintf(w, "points:      %d\n", len(res.Points))
	fmt.Fprintf(w, "lap:         %d (%d points)\n", la.Lap, la.Points)
	fmt.Fprintf(w, "style:       %s\n", la.StyleLabel)
	fmt.Fprintf(w, "brake mean:  %.1f\n", segment.Mean(la.BrakeProfile))
	fmt.Fprintf(w, "throttle:    %.1f\n", segment.Mean(la.ThrottleProfile))
	fmt.Fprintf(w, "shifts:      %d (optimal %d, early %d, late %d)\n",
		summary.Scorecard.Total, summary.Scorecard.Optimal,
		summary.Scorecard.Early, summary.Scorecard.Late)
	fmt.Fprintf(w, "grade:       %s (%.1f%%)\n", summary.Grade, summary.Percentage)
	fmt.Fprintf(w, "mismatches:  %d\n", summary.Mismatches)

	if !withDNA {
		return nil
	}
	src := session.Sources()
	num, _ := strconv.Atoi(res.Driver)
	dna, err := util.NewAnalysisClient(ctx).AnalyzeDNA(ctx, analysis.DNARequest{
		TelemetryPath: src.Telemetry,
		LapsPath:      src.Laps,
		DriverID:      res.Driver,
		DriverNumber:  num,
	})
	if err != nil {
		var netErr *analysis.NetworkError
		if errors.As(err, &netErr) {
			// the local analysis stays valid without the service
			logger.Warn("dna not available", log.ErrorField(err))
			fmt.Fprintln(w, "dna:         not available")
			return nil
		}
		return err
	}
	fmt.Fprintf(w, "dna style:   %s\n", dna.StyleLabel)
	fmt.Fprintf(w, "dna laps:    %s\n", strings.Trim(fmt.Sprint(dna.OptimalLaps), "[]"))
	return nil
}
