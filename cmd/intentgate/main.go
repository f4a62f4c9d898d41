package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/intentgate/configloader"
	"github.com/hrygo/intentgate/internal/profile"
	"github.com/hrygo/intentgate/internal/version"
	"github.com/hrygo/intentgate/llm"
	"github.com/hrygo/intentgate/metrics"
	"github.com/hrygo/intentgate/router"
	"github.com/hrygo/intentgate/server"
	"github.com/hrygo/intentgate/store"
)

var rootCmd = &cobra.Command{
	Use:   "intentgate",
	Short: `A two-tier intent router for conversational assistants. Deterministic rules first, LLM fallback second.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Only load .env for direct binary execution (not when running as systemd service)
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:             viper.GetString("mode"),
			Addr:             viper.GetString("addr"),
			Port:             viper.GetInt("port"),
			Data:             viper.GetString("data"),
			Driver:           viper.GetString("driver"),
			DSN:              viper.GetString("dsn"),
			RouterConfigPath: viper.GetString("router-config"),
			Version:          version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())

		orchestrator, routerMetrics, err := buildOrchestrator(instanceProfile)
		if err != nil {
			cancel()
			slog.Error("failed to build router", "error", err)
			return
		}

		s := server.NewServer(instanceProfile, orchestrator, routerMetrics.Handler())

		c := make(chan os.Signal, 1)
		// Trigger graceful shutdown on SIGINT or SIGTERM.
		// The default signal sent by the `kill` command is SIGTERM,
		// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
		signal.Notify(c, terminationSignals...)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			cancel()
			return
		}

		printGreetings(instanceProfile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		// Wait for CTRL-C.
		<-ctx.Done()
	},
}

// buildOrchestrator assembles config, the fallback layer, pending-state
// persistence and metrics into one orchestrator.
func buildOrchestrator(instanceProfile *profile.Profile) (*router.Orchestrator, *metrics.RouterMetrics, error) {
	loader := configloader.NewLoader(".")
	cfg, err := configloader.LoadRouterConfig(loader, instanceProfile.RouterConfigPath)
	if err != nil {
		return nil, nil, err
	}

	routerMetrics := metrics.NewRouterMetrics(metrics.DefaultConfig())

	opts := []router.OrchestratorOption{
		router.WithObserver(router.MultiObserver{router.SlogObserver{}, routerMetrics}),
		router.WithDecisionCache(router.NewDecisionCache(router.DecisionCacheConfig{})),
	}

	if instanceProfile.IsFallbackEnabled() {
		generator, err := llm.NewService(llm.Config{
			Provider: instanceProfile.LLMProvider,
			Model:    instanceProfile.LLMModel,
			APIKey:   instanceProfile.LLMAPIKey,
			BaseURL:  instanceProfile.LLMBaseURL,
			Timeout:  instanceProfile.LLMTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, router.WithFallback(router.NewFallbackClassifier(generator, cfg)))
		slog.Info("fallback classifier enabled",
			"provider", instanceProfile.LLMProvider,
			"model", instanceProfile.LLMModel)
	} else {
		slog.Info("fallback classifier disabled, low-confidence turns resolve on rules alone")
	}

	if instanceProfile.Driver == "sqlite" {
		pendingStore, err := store.NewSQLitePendingStore(instanceProfile.DSN, cfg.PendingTTL)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, router.WithPendingStore(pendingStore))
		slog.Info("pending state persisted to sqlite", "dsn", instanceProfile.DSN)
	}

	orchestrator, err := router.NewOrchestrator(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return orchestrator, routerMetrics, nil
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "memory")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "memory", "pending-state driver (memory, sqlite)")
	rootCmd.PersistentFlags().String("dsn", "", "pending-state database source name")
	rootCmd.PersistentFlags().String("router-config", "", "path to router vocabulary YAML overlay")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "router-config"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("intentgate")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("intentgate %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("Pending-state driver: %s\n", profile.Driver)
	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
