package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/internal/config"
	"github.com/DesmondSol/speedops/internal/daemon"
)

func newStartCmd() *cobra.Command {
	var (
		port         int
		foreground   bool
		dev          bool
		pprofAddr    string
		dbDriver     string
		dbURL        string
		pipelineYML  string
		requireProof bool
		envFile      string
		enableOtel   bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the speedops daemon (HTTP API + SSE stream)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := loadEnvFile(envFile); err != nil {
					return err
				}
			}
			home := config.MustHomeFrom(cmd.Context())

			// config.yaml and SPEEDOPS_* env fill in whatever flags left at
			// their defaults.
			settings, err := config.LoadSettings(home)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") && settings.Port != 0 {
				port = settings.Port
			}
			if !cmd.Flags().Changed("db-driver") && settings.DBDriver != "" {
				dbDriver = settings.DBDriver
			}
			if !cmd.Flags().Changed("db-url") && settings.DBURL != "" {
				dbURL = settings.DBURL
			}
			if !cmd.Flags().Changed("pipeline") && settings.PipelineYML != "" {
				pipelineYML = settings.PipelineYML
			}
			if settings.APIKey != "" && os.Getenv("SPEEDOPS_API_KEY") == "" {
				_ = os.Setenv("SPEEDOPS_API_KEY", settings.APIKey)
			}
			// Env so the background child inherits it without the key
			// showing up on its argv.
			if settings.AIAPIKey != "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
				_ = os.Setenv("ANTHROPIC_API_KEY", settings.AIAPIKey)
			}

			opts := daemon.StartOptions{
				Home:         home,
				Port:         port,
				Dev:          dev,
				PprofAddr:    pprofAddr,
				DBDriver:     dbDriver,
				DBURL:        dbURL,
				PipelineYML:  pipelineYML,
				RequireProof: requireProof,
				AIModel:      settings.AIModel,
				EnableOtel:   enableOtel,
			}

			api := (&url.URL{Scheme: "http", Host: fmt.Sprintf("localhost:%d", port)}).String()

			if foreground {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting speedops in foreground on %s\n", api)
				return daemon.StartForeground(cmd.Context(), opts)
			}

			pid, err := daemon.StartBackground(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "speedops started (pid %d)\n", pid)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "API: %s\n", api)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "HTTP listen port")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground (do not daemonize)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode (CORS for dashboard dev server)")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().StringVar(&dbDriver, "db-driver", "sqlite", "Store driver: sqlite or postgres")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "DB connection string (for postgres; or set DATABASE_URL)")
	cmd.Flags().StringVar(&pipelineYML, "pipeline", "", "Custom stage pipeline YAML file")
	cmd.Flags().BoolVar(&requireProof, "require-proof", false, "Reject stage transitions without a proof link")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load env vars from file (KEY=VALUE per line) before starting")
	cmd.Flags().BoolVar(&enableOtel, "otel", true, "Enable OpenTelemetry metrics (Prometheus exporter, HTTP/SSE instrumentation)")

	return cmd
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		if key != "" {
			_ = os.Setenv(key, value)
		}
	}
	return sc.Err()
}
