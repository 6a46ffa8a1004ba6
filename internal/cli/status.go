package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/internal/config"
	"github.com/DesmondSol/speedops/internal/daemon"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			st, err := daemon.Status(cmd.Context(), home)
			if err != nil {
				return err
			}
			if !st.Running {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "speedops is not running")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "speedops is running (pid %d, addr %s)\n", st.PID, st.Addr)
			return nil
		},
	}
}
