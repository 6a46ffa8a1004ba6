package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/internal/config"
	"github.com/DesmondSol/speedops/internal/daemon"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the speedops daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			stopped, err := daemon.Stop(cmd.Context(), home)
			if err != nil {
				return err
			}
			if !stopped {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "speedops is not running")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "speedops stopped")
			return nil
		},
	}
}
