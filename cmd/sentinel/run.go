package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"financialguard/sentinel/pkg/compliance"
	"financialguard/sentinel/pkg/config"
	"financialguard/sentinel/pkg/engine"
	"financialguard/sentinel/pkg/telemetry/logging"
	"financialguard/sentinel/pkg/telemetry/metrics"
)

var runFlags struct {
	rulesDir string
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the compliance rule engine",
	Long: `Start the compliance rule engine with the specified configuration.

The engine loads rules from the configured directory, publishes them as a
compiled rule set, and keeps running: watching for rule changes when watch
mode is on, sweeping overdue findings on the expiry schedule, and serving
Prometheus metrics when enabled.

Examples:
  # Start with default config
  sentinel run

  # Start with custom config
  sentinel run --config /etc/sentinel/config.yaml

  # Override the rules directory
  sentinel run --rules ./compliance-rules

  # Validate config without starting
  sentinel run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.rulesDir, "rules", "", "override rules directory")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	var observer engine.Observer
	var metricsServer *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		collector := metrics.NewCollector(&metrics.Config{
			Namespace: cfg.Telemetry.Metrics.Namespace,
			Subsystem: cfg.Telemetry.Metrics.Subsystem,
		}, nil)
		observer = collector

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              cfg.Telemetry.Metrics.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics endpoint listening", "address", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	svc, err := compliance.New(cfg, logger, observer)
	if err != nil {
		return fmt.Errorf("building compliance service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("starting compliance service: %w", err)
	}

	version, ruleCount := svc.RuleSetVersion()
	fmt.Printf("✓ Rule set v%d published (%d rules)\n", version, ruleCount)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Telemetry.Metrics.ListenAddress)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	cancel()
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}
	return svc.Close()
}

// loadRunConfig loads the configuration file if it exists, falls back to
// defaults when it does not, and applies flag overrides.
func loadRunConfig() (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(cfgFile); err == nil {
		cfg, err = config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Defaults()
	}

	if runFlags.rulesDir != "" {
		cfg.Rules.Directory = runFlags.rulesDir
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
