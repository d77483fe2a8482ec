package drivers

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/NissanArmada/GazooRazoo/pkg/cmd/util"
)

func NewDriversCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "lists the vehicle ids found in the telemetry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDrivers(cmd.Context(), cmd.OutOrStdout())
		},
	}
	return cmd
}

func listDrivers(ctx context.Context, w io.Writer) error {
	ids, err := util.NewSession(ctx).Discover(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}
