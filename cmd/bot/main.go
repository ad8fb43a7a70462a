// Binary bot is the tv-trading-bot server: it receives TradingView
// webhook alerts, executes paper trades, and watches Coinbase ticker
// prices to settle them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/suwandre/tv-trading-bot/internal/api"
	"github.com/suwandre/tv-trading-bot/internal/config"
	"github.com/suwandre/tv-trading-bot/internal/engine"
	"github.com/suwandre/tv-trading-bot/internal/feed"
	"github.com/suwandre/tv-trading-bot/internal/logx"
	"github.com/suwandre/tv-trading-bot/internal/metrics"
	"github.com/suwandre/tv-trading-bot/internal/store"
	"github.com/suwandre/tv-trading-bot/internal/trade"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML config file")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logx.New(cfg.App.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	leverage, err := trade.ParseLeverage(cfg.Paper.Leverage)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid paper leverage")
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()
	db, err := store.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = db.Disconnect(shutdownCtx)
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")

	eng := engine.New(log, db, engine.Params{
		NotionalUSD:   cfg.Paper.TradeNotionalUSD,
		Leverage:      leverage,
		TakeProfitPct: cfg.Paper.TakeProfitPct,
		StopLossPct:   cfg.Paper.StopLossPct,
	}, cfg.Exchange.Products)

	restored, err := db.ActiveTrades(connectCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("load active trades")
	}
	eng.Restore(restored)
	log.Info().Int("count", len(restored)).Msg("restored active trades")

	marketFeed := feed.New(cfg.Exchange.Provider, cfg.Exchange.WsURL, cfg.Exchange.Products, log)
	updates := make(chan feed.TickerUpdate, 1024)

	watcher := config.NewWatcher(log, *configPath, func(next *config.Config) {
		marketFeed.SetProducts(next.Exchange.Products)
		eng.SetPairs(next.Exchange.Products)
	})

	server := api.New(log, cfg.Server.TradingViewSecret, eng)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port),
		Handler: server.Router(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return marketFeed.Run(ctx, updates) })
	g.Go(func() error { return eng.RunListener(ctx, updates) })
	g.Go(func() error { return watcher.Run(ctx) })
	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("server running")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("bot stopped")
		os.Exit(1)
	}
	log.Info().Msg("shutting down")
}
