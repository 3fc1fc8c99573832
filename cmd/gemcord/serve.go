package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/hazuki-io/gemcord/internal/bot"
	"github.com/hazuki-io/gemcord/internal/channel/discord"
	"github.com/hazuki-io/gemcord/internal/chat"
	"github.com/hazuki-io/gemcord/internal/config"
	"github.com/hazuki-io/gemcord/internal/conversation"
	"github.com/hazuki-io/gemcord/internal/docs"
	"github.com/hazuki-io/gemcord/internal/healthcheck"
	"github.com/hazuki-io/gemcord/internal/logger"
	"github.com/hazuki-io/gemcord/internal/version"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideProvider,
			provideStore,
			provideSummarizer,
			provideGateway,
			providePipeline,
			provideHealthServer,
		),
		fx.Invoke(
			startGateway,
			startHealthServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideProvider(cfg config.Config) (chat.Provider, error) {
	return chat.NewGeminiProvider(chat.GeminiConfig{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
	})
}

func provideStore(log *slog.Logger) *conversation.Store {
	return conversation.NewStore(log)
}

func provideSummarizer(log *slog.Logger, provider chat.Provider) *docs.Summarizer {
	return docs.NewSummarizer(log, provider)
}

func provideGateway(log *slog.Logger, cfg config.Config) (*discord.Gateway, error) {
	return discord.NewGateway(log, cfg.Discord.BotToken)
}

func providePipeline(log *slog.Logger, provider chat.Provider, store *conversation.Store, summarizer *docs.Summarizer, gateway *discord.Gateway) *bot.Pipeline {
	return bot.NewPipeline(log, provider, store, summarizer, docs.ExtractPDF, gateway.Typing)
}

func provideHealthServer(log *slog.Logger, cfg config.Config, store *conversation.Store) *healthcheck.Server {
	return healthcheck.NewServer(log, cfg.Server.Addr, store)
}

func startGateway(lc fx.Lifecycle, gateway *discord.Gateway, pipeline *bot.Pipeline, log *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Info("starting gemcord", slog.String("version", version.GetInfo()))
			gateway.SetProcessor(pipeline)
			return gateway.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return gateway.Stop()
		},
	})
}

func startHealthServer(lc fx.Lifecycle, srv *healthcheck.Server, shutdowner fx.Shutdowner, log *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("health server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server stop: %w", err)
			}
			return nil
		},
	})
}
