package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/raine/lootlook/internal/app"
	"github.com/raine/lootlook/internal/bot"
	"github.com/raine/lootlook/internal/config"
	"github.com/raine/lootlook/internal/janitor"
	"github.com/raine/lootlook/internal/metrics"
	"github.com/raine/lootlook/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger, err := app.NewLogger(cfg, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	logger.Info().Str("version", cfg.AppVersion).Msgf("starting %s", cfg.AppName)

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	pipeline, err := app.NewPipeline(ctx, cfg, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build appraisal pipeline")
	}
	defer pipeline.Close()
	logger.Info().
		Str("identifier", pipeline.IdentifierMode).
		Str("pricer", pipeline.PricerMode).
		Msg("appraisal pipeline ready")

	httpServer := &http.Server{
		Addr: cfg.Addr(),
		Handler: server.New(server.Options{
			AppName:     cfg.AppName,
			AppVersion:  cfg.AppVersion,
			CORSOrigins: cfg.CORSOrigins,
			Analyzer:    pipeline.Appraiser,
			Logger:      logger,
			Metrics:     m,
			Gatherer:    reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if store := pipeline.Cache(); store != nil {
		cacheJanitor := janitor.NewService(store, cfg.CacheMaxAge, janitor.DefaultPruneInterval)
		g.Go(func() error {
			cacheJanitor.Run(ctx)
			return nil
		})
	}

	if cfg.BotToken != "" {
		g.Go(func() error {
			return runBot(ctx, cfg.BotToken, pipeline, m)
		})
	} else {
		logger.Info().Msg("BOT_TOKEN not set, telegram bot disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

func runBot(ctx context.Context, token string, pipeline *app.Pipeline, m *metrics.Metrics) error {
	tg, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return err
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	// Register bot commands for Telegram's command menu
	bot.RegisterCommands(tg)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	b := bot.NewBot(tg, pipeline.Appraiser, m)
	err = b.Run(ctx, updates)
	tg.StopReceivingUpdates()
	return err
}
