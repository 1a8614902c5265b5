package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"csv-server/internal/config"
	"csv-server/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	cmd, err := newRootCommand()
	if err != nil {
		server.Error("startup_failed", nil, err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		server.Error("server_error", nil, err)
		os.Exit(1)
	}
}

func newRootCommand() (*cobra.Command, error) {
	v := viper.New()
	var cfg config.Config

	cmd := &cobra.Command{
		Use:           "csv-server",
		Short:         "serves a fixed set of CSV files as downloadable attachments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := cmd.Flags().GetString(config.OptionNameConfig)
			if err != nil {
				return err
			}
			cfg, err = config.Load(v, configFile)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.String(config.OptionNameConfig, "", "path to a YAML config file (default ./config.yaml if present)")
	f.String(config.OptionNameAddr, config.DefaultAddr, "listen address")
	f.String(config.OptionNameDataDir, config.DefaultDataDir, "directory the CSV files are read from")
	f.String(config.OptionNameLogLevel, config.DefaultLogLevel, "log level: debug, info, warn, error")
	f.String(config.OptionNameLogFormat, config.DefaultLogFormat, "log format: text or json")
	f.Duration(config.OptionNameShutdownTimeout, config.DefaultShutdownTimeout, "graceful shutdown timeout")
	f.Int(config.OptionNameRateLimit, 0, "requests per window per client IP (0 disables)")
	f.Duration(config.OptionNameRateWindow, config.DefaultRateWindow, "rate limit window")
	f.Bool(config.OptionNameMetrics, true, "expose Prometheus metrics on /metrics")

	if err := v.BindPFlags(f); err != nil {
		return nil, err
	}

	return cmd, nil
}

func run(ctx context.Context, cfg config.Config) error {
	if err := server.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	build := server.BuildInfo{
		Version: getenvDefault("CSV_SERVER_VERSION", "dev"),
		Commit:  getenvDefault("CSV_SERVER_COMMIT", "unknown"),
	}

	catalog, err := server.NewCatalog(cfg.DataDir, server.DefaultEntries())
	if err != nil {
		return err
	}
	// Missing files are not fatal: their downloads answer 500 until they appear.
	for _, e := range catalog.Entries() {
		if _, err := os.Stat(e.Path); err != nil {
			server.Warn("csv_file_unavailable", map[string]any{"filename": e.Key, "path": e.Path, "error": err.Error()})
		}
	}

	srv, err := server.New(server.Config{
		Addr:          cfg.Addr,
		Build:         build,
		Catalog:       catalog,
		RateLimit:     cfg.RateLimit,
		RateWindow:    cfg.RateWindow,
		EnableMetrics: cfg.Metrics,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Info("starting", map[string]any{
		"addr":        cfg.Addr,
		"data_dir":    cfg.DataDir,
		"config_file": cfg.ConfigFile,
		"version":     build.Version,
		"commit":      build.Commit,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	server.Info("shutting_down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}
	server.Info("shutdown_complete", nil)
	return nil
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
