package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/sunlight2728/pulsar"
	"github.com/sunlight2728/pulsar/internal/bench"
	"github.com/sunlight2728/pulsar/internal/cliconfig"
	"github.com/sunlight2728/pulsar/pkg/log"
)

const helpDescription = `
Drive the batch-receive consumer with synthetic traffic and watch how it
batches, acknowledges and redelivers under load.

Highlights:
  - Publishes payloads at a target rate (tunable live via the config file).
  - Receives in blocking or future style; acks a configurable fraction so the
    redelivery path gets exercised too.
  - Reports progress as structured logs and exposes a prometheus endpoint.
  - Configure via file, env (PULSAR_BENCH_*), or flags.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  pulsar-bench --count 100000 --rate 5000 --batch-max-messages 500
  pulsar-bench --config $HOME/.pulsar-bench/config.toml --duration 5m --ack-ratio 0.9
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// applyLogLevel parses and installs a zerolog level, keeping the previous
// one when the value does not parse (the config watcher feeds raw file
// content through here).
func applyLogLevel(zl zerolog.Logger, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		zl.Warn().Str("level", level).Msg("unknown log level, keeping current")
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	zl := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "pulsar-bench",
		Short:   "Load-test the batch-receive consumer with synthetic traffic",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.pulsar-bench/config.toml),
			// then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (PULSAR_BENCH_*)
			// These override file config but are overridden by flags (checked via changed map)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			applyLogLevel(zl, cfg.LogLevel)
			zl.Info().Interface("config", cfg).Msg("configuration")

			logger := log.NewZerologAdapterWithLogger(zl)
			registry := prometheus.NewRegistry()

			runner, err := bench.New(cfg, logger,
				pulsar.WithLogger(logger),
				pulsar.WithMetricsRegisterer(registry),
			)
			if err != nil {
				return fmt.Errorf("create bench: %w", err)
			}

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				select {
				case sig := <-sigCh:
					zl.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
					cancel()
				case <-ctx.Done():
				}
			}()

			var metricsSrv *http.Server
			if cfg.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
				metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
				go func() {
					zl.Info().Str("addr", cfg.MetricsAddr).Msg("metrics endpoint listening")
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						zl.Error().Err(err).Msg("metrics endpoint failed")
					}
				}()
			}

			// Live tuning: publish rate and log level follow the config file.
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				watcher := bench.NewConfigWatcher(cfgFile, 0, func(fc cliconfig.FileConfig) {
					if fc.PublishRate != nil {
						runner.SetPublishRate(*fc.PublishRate)
					}
					if fc.LogLevel != "" {
						applyLogLevel(zl, fc.LogLevel)
					}
				}, logger)
				if err := watcher.Start(ctx); err != nil {
					zl.Warn().Err(err).Msg("config watcher disabled")
				} else {
					defer watcher.Stop()
				}
			}

			runErr := runner.Run(ctx)

			if metricsSrv != nil {
				shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutCancel()
				_ = metricsSrv.Shutdown(shutCtx)
			}

			if runErr != nil {
				return fmt.Errorf("bench run: %w", runErr)
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.pulsar-bench/config.toml)")
	root.Flags().StringVar(&cfg.Topic, "topic", cfg.Topic, "topic name for the synthetic stream")
	root.Flags().StringVar(&cfg.Subscription, "subscription", cfg.Subscription, "subscription name")

	root.Flags().IntVar(&cfg.MessageCount, "count", cfg.MessageCount, "messages to publish (0 = unlimited, requires --duration)")
	root.Flags().IntVar(&cfg.PublishRate, "rate", cfg.PublishRate, "publish rate in messages per second (0 = unthrottled)")
	root.Flags().IntVar(&cfg.PayloadBytes, "payload-bytes", cfg.PayloadBytes, "payload size per message")

	root.Flags().IntVar(&cfg.MaxNumMessages, "batch-max-messages", cfg.MaxNumMessages, "batch message bound (0 = disabled)")
	root.Flags().IntVar(&cfg.MaxNumBytes, "batch-max-bytes", cfg.MaxNumBytes, "batch byte bound (0 = disabled)")
	root.Flags().DurationVar(&cfg.BatchTimeout, "batch-timeout", cfg.BatchTimeout, "batch wait bound (0 = disabled)")

	root.Flags().DurationVar(&cfg.AckTimeout, "ack-timeout", cfg.AckTimeout, "ack deadline before redelivery (0 = disabled)")
	root.Flags().Float64Var(&cfg.AckRatio, "ack-ratio", cfg.AckRatio, "fraction of consumed messages to acknowledge")
	root.Flags().BoolVar(&cfg.Async, "async", cfg.Async, "use future-style receives")
	root.Flags().DurationVar(&cfg.Duration, "duration", cfg.Duration, "run length (0 = until count is consumed)")

	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "prometheus listen address, e.g. :9091 (empty = disabled)")
	root.Flags().DurationVar(&cfg.ReportInterval, "report-interval", cfg.ReportInterval, "progress report interval")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace|debug|info|warn|error)")

	if err := root.Execute(); err != nil {
		zl.Error().Err(err).Msg("pulsar-bench")
		os.Exit(1)
	}
}
