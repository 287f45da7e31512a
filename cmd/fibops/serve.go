package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/fibops/cache"
	"github.com/jonwraymond/fibops/config"
	"github.com/jonwraymond/fibops/fib"
	"github.com/jonwraymond/fibops/observe"
	"github.com/jonwraymond/fibops/server"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Fibonacci numbers over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	obsCfg := cfg.ObserveConfig()
	obsCfg.Version = Version

	obs, err := observe.NewObserver(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to start telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			obs.Logger().Warn(shutdownCtx, "telemetry shutdown failed", observe.F("error", err.Error()))
		}
	}()

	ev := newEvaluator(cfg)
	srv, err := server.New(cfg, ev, obs)
	if err != nil {
		return err
	}

	obs.Logger().Info(ctx, "starting fibops",
		observe.F("version", Version),
		observe.F("addr", cfg.Server.Addr),
		observe.F("max_n", cfg.Server.MaxN),
		observe.F("cache_max_entries", cfg.Cache.MaxEntries),
		observe.F("auth_enabled", cfg.Auth.Enabled),
	)
	return srv.Run(ctx)
}

func newEvaluator(cfg *config.Config) *fib.Evaluator {
	policy := cache.DefaultPolicy()
	if cfg.Cache.MaxEntries > 0 {
		policy = cache.BoundedPolicy(cfg.Cache.MaxEntries)
	}
	return fib.New(fib.WithTable(cache.NewMemoryTable(policy)))
}
