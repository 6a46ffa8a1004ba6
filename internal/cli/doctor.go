package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/internal/config"
	"github.com/DesmondSol/speedops/internal/store"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Verify the home directory and database are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())

			var problems []string

			if err := os.MkdirAll(filepath.Join(home, "protected"), 0o755); err != nil {
				problems = append(problems, fmt.Sprintf("home not writable: %v", err))
			} else {
				st, err := store.Open(home)
				if err != nil {
					problems = append(problems, fmt.Sprintf("database: %v", err))
				} else {
					if _, err := st.ListWorkspaces(cmd.Context()); err != nil {
						problems = append(problems, fmt.Sprintf("database query: %v", err))
					}
					_ = st.Close()
				}
			}

			if _, err := config.LoadSettings(home); err != nil {
				problems = append(problems, fmt.Sprintf("config.yaml: %v", err))
			}

			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
