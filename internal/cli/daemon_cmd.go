package cli

import (
	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/internal/config"
	"github.com/DesmondSol/speedops/internal/daemon"
)

func newDaemonCmd() *cobra.Command {
	var (
		port         int
		dev          bool
		pprofAddr    string
		dbDriver     string
		dbURL        string
		pipelineYML  string
		requireProof bool
		aiModel      string
		enableOtel   bool
	)

	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Internal: run daemon process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			return daemon.StartForeground(cmd.Context(), daemon.StartOptions{
				Home:         home,
				Port:         port,
				Dev:          dev,
				PprofAddr:    pprofAddr,
				DBDriver:     dbDriver,
				DBURL:        dbURL,
				PipelineYML:  pipelineYML,
				RequireProof: requireProof,
				AIModel:      aiModel,
				EnableOtel:   enableOtel,
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "HTTP listen port")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().StringVar(&dbDriver, "db-driver", "sqlite", "Store driver: sqlite or postgres")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "DB connection string (for postgres)")
	cmd.Flags().StringVar(&pipelineYML, "pipeline", "", "Custom stage pipeline YAML file")
	cmd.Flags().BoolVar(&requireProof, "require-proof", false, "Reject stage transitions without a proof link")
	cmd.Flags().StringVar(&aiModel, "ai-model", "", "Anthropic model for brief and breakdown generation")
	cmd.Flags().BoolVar(&enableOtel, "otel", true, "Enable OpenTelemetry metrics")

	return cmd
}
