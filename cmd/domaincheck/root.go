package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FranksOps/domaincheck/internal/bootstrapstore"
	"github.com/FranksOps/domaincheck/internal/bootstrapstore/postgres"
	"github.com/FranksOps/domaincheck/internal/bootstrapstore/sqlite"
	"github.com/FranksOps/domaincheck/internal/core"
	"github.com/FranksOps/domaincheck/internal/metrics"
)

// output and verbosity are the only settings fsnotify live-reloads; every
// other flag builds the Configuration once, at command invocation, since
// changing concurrency or protocol order mid-run would be meaningless for
// a one-shot CLI process.
var (
	output    = "table"
	verbosity = "info"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "domaincheck",
		Short: "Check whether domain names are registered",
		Long: "domaincheck queries authoritative registries over RDAP, falling back to " +
			"WHOIS and web-WHOIS, to report whether a domain name is available, taken, " +
			"or undeterminable.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.Int("concurrency", 10, "maximum domains checked concurrently")
	flags.Duration("timeout", 30*time.Second, "per-attempt timeout")
	flags.Int("retries", 0, "retries for retryable protocol errors")
	flags.String("protocol-order", "structured-then-textual", "structured-only|textual-only|structured-then-textual|textual-then-structured")
	flags.StringSlice("tld", nil, "TLDs to expand bare labels against (repeatable)")
	flags.String("preset", "", "named TLD preset: startup|enterprise|country")
	flags.Bool("all-tlds", false, "expand bare labels against every known TLD")
	flags.Bool("bootstrap", true, "consult the IANA RDAP bootstrap document on cache miss")
	flags.String("user-agent", "", "HTTP/WHOIS user agent string")
	flags.String("output", "table", "table|json")
	flags.String("config", "", "config file (default: $HOME/.domaincheck.yaml)")
	flags.String("log-level", "info", "debug|info|warn|error")
	flags.String("bootstrap-store", "", "persist the bootstrap cache: postgres://... DSN, or a sqlite file path")
	flags.Int("metrics-port", 0, "expose Prometheus /metrics on this port while the command runs (0 disables)")

	cobra.OnInitialize(func() { initConfig(flags) })

	root.AddCommand(checkCmd(), bulkCmd())
	return root
}

func initConfig(flags interface{ GetString(string) (string, error) }) {
	cfgFile, _ := flags.GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".domaincheck")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		watchConfig()
	}
}

// watchConfig live-reloads output rendering and log verbosity whenever the
// config file changes on disk; engine-affecting settings are intentionally
// excluded since a running batch already owns its Configuration.
func watchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if v := viper.GetString("output"); v != "" {
			output = v
		}
		if v := viper.GetString("log_level"); v != "" {
			verbosity = v
			slog.SetLogLoggerLevel(parseLevel(v))
		}
	})
	viper.WatchConfig()
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildConfiguration assembles a core.Configuration from cobra flags on top
// of core.DefaultConfiguration. Values from the viper config file are not
// read here; only output and log_level are taken from it, by watchConfig.
func buildConfiguration(cmd *cobra.Command) (core.Configuration, error) {
	cfg := core.DefaultConfiguration()

	if v, err := cmd.Flags().GetInt("concurrency"); err == nil && v > 0 {
		cfg.Concurrency = v
	}
	if v, err := cmd.Flags().GetDuration("timeout"); err == nil && v > 0 {
		cfg.PerAttemptTimeout = v
	}
	if v, err := cmd.Flags().GetInt("retries"); err == nil {
		cfg.Retries = v
	}
	if v, err := cmd.Flags().GetString("protocol-order"); err == nil && v != "" {
		cfg.ProtocolOrder = core.ProtocolOrder(v)
	}
	if v, err := cmd.Flags().GetStringSlice("tld"); err == nil {
		cfg.TLDs = v
	}
	if v, err := cmd.Flags().GetString("preset"); err == nil && v != "" {
		cfg.Preset = core.Preset(v)
	}
	if v, err := cmd.Flags().GetBool("all-tlds"); err == nil {
		cfg.AllTLDs = v
	}
	if v, err := cmd.Flags().GetBool("bootstrap"); err == nil {
		cfg.Bootstrap = v
	}
	if v, err := cmd.Flags().GetString("user-agent"); err == nil && v != "" {
		cfg.UserAgent = v
	}
	if v, err := cmd.Flags().GetString("output"); err == nil && v != "" {
		output = v
	}

	valid, err := cfg.Validate()
	if err != nil {
		return core.Configuration{}, fmt.Errorf("context: invalid configuration: %w", err)
	}
	return valid, nil
}

// buildBootstrapStore opens the persisted bootstrap-cache backend named by
// --bootstrap-store, if any. A postgres:// DSN opens the Postgres backend;
// anything else is treated as a sqlite file path.
func buildBootstrapStore(cmd *cobra.Command) (bootstrapstore.Store, error) {
	dsn, err := cmd.Flags().GetString("bootstrap-store")
	if err != nil || dsn == "" {
		return nil, nil
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		store, err := postgres.New(cmd.Context(), dsn)
		if err != nil {
			return nil, fmt.Errorf("context: opening postgres bootstrap store: %w", err)
		}
		return store, nil
	}

	store, err := sqlite.New(dsn)
	if err != nil {
		return nil, fmt.Errorf("context: opening sqlite bootstrap store: %w", err)
	}
	return store, nil
}

// startMetricsServerIfRequested starts the /metrics server named by
// --metrics-port, if nonzero, returning a stop func that's always safe to
// defer (a no-op when metrics weren't started).
func startMetricsServerIfRequested(cmd *cobra.Command) (stop func(), err error) {
	port, err := cmd.Flags().GetInt("metrics-port")
	if err != nil || port <= 0 {
		return func() {}, nil
	}
	srv := metrics.Start(port)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}, nil
}
