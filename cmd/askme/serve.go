package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abyan-ai/askme/pkg/chat"
	"github.com/abyan-ai/askme/pkg/metrics"
	"github.com/abyan-ai/askme/pkg/server"
)

func newServeCmd(load configLoader) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat and scraping API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := buildLimiter(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.close() }()

			b, err := buildBackend(ctx, cfg)
			if err != nil {
				return err
			}

			m := metrics.New()
			opts := []server.Option{server.WithMetrics(m)}
			if store.sweep != nil {
				m.TrackKeys(store.sweep.Keys)
				opts = append(opts, server.WithSweeper(store.sweep))
			}

			if cfg.Scraper.Enabled {
				cache, err := openCache(cfg)
				if err != nil {
					return err
				}
				if cache != nil {
					defer func() { _ = cache.Close() }()
				}
				opts = append(opts, server.WithScraper(buildScraper(cfg, cache)))
			}

			d := buildDispatcher(cfg, store, b, chat.WithRecorder(m))
			srv := server.New(cfg, d, opts...)

			log.WithFields(log.Fields{
				"rate_limit":   fmt.Sprintf("%d/%s", cfg.RateLimit.Limit, cfg.RateLimit.Window),
				"backend":      cfg.RateLimit.Backend,
				"failure_mode": cfg.RateLimit.FailureMode,
				"locale":       cfg.Locale,
			}).Info("starting askme")
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}
