package predict

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/NissanArmada/GazooRazoo/pkg/analysis"
	"github.com/NissanArmada/GazooRazoo/pkg/cmd/util"
)

var req analysis.OvertakeRequest

func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "asks the analysis service for an overtake probability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return predict(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().Float64Var(&req.Gap, "gap", 0, "gap to the car ahead in seconds")
	cmd.Flags().Float64Var(&req.TimeDiff, "time-diff", 0,
		"lap time difference to the car ahead in seconds")
	cmd.Flags().Float64Var(&req.SpeedDiff, "speed-diff", 0,
		"speed difference to the car ahead in km/h")
	return cmd
}

func predict(ctx context.Context, w io.Writer) error {
	pred, err := util.NewAnalysisClient(ctx).PredictOvertake(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "probability: %.1f%%\n", pred.Probability)
	fmt.Fprintf(w, "drs:         %t\n", pred.DRS)
	return nil
}
