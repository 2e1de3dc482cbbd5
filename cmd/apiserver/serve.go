package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/bulkbuddy/internal/api"
	"github.com/ramonehamilton/bulkbuddy/internal/auth"
	"github.com/ramonehamilton/bulkbuddy/internal/config"
	"github.com/ramonehamilton/bulkbuddy/internal/events"
	"github.com/ramonehamilton/bulkbuddy/internal/logger"
	"github.com/ramonehamilton/bulkbuddy/internal/metrics"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/scryfall"
	"github.com/ramonehamilton/bulkbuddy/internal/service"
	"github.com/ramonehamilton/bulkbuddy/internal/storage"
	"github.com/ramonehamilton/bulkbuddy/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	loader, err := config.NewLoader(configPath)
	if err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireSecret(); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	log.Info("starting BulkBuddy API",
		zap.String("version", version.GetVersion()),
		zap.String("config", loader.Path()),
		zap.String("database", cfg.Database.Path))

	if loader.Watch(func(next *config.Config) {
		if err := logger.SetLevel(log.Level, next.Log.Level); err != nil {
			log.Warn("ignoring log level from reloaded config", zap.Error(err))
			return
		}
		log.Info("config reloaded", zap.String("log_level", next.Log.Level))
	}, func(err error) {
		log.Warn("config reload rejected", zap.Error(err))
	}) {
		log.Debug("watching config file for changes")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.GetTokenTTL(), cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	provider := scryfall.NewClient(
		scryfall.WithBaseURL(cfg.Scryfall.BaseURL),
		scryfall.WithUserAgent(cfg.Scryfall.UserAgent),
		scryfall.WithRateLimit(cfg.GetScryfallRateLimit()),
		scryfall.WithTimeout(cfg.GetScryfallTimeout()),
		scryfall.WithLogger(log.Named("scryfall")),
	)

	dispatcher := events.NewEventDispatcher(log.Logger)
	dispatcher.Register(events.NewLoggingObserver(log.Named("events"), false))

	serverMetrics := metrics.NewServerMetrics()
	services := service.New(service.Deps{
		Store:    store,
		Provider: provider,
		Tokens:   tokens,
		Events:   dispatcher,
		Metrics:  serverMetrics,
		Logger:   log.Logger,
		Options: service.Options{
			CurveMode:  cfg.GetCurveMode(),
			BcryptCost: cfg.Auth.BcryptCost,
		},
	})

	serverCfg := api.DefaultConfig()
	serverCfg.Addr = cfg.Addr()
	serverCfg.CORSOrigins = cfg.Server.CORSOrigins
	serverCfg.ReadTimeout = cfg.GetReadTimeout()
	serverCfg.WriteTimeout = cfg.GetWriteTimeout()

	server := api.NewServer(serverCfg, api.Deps{
		Services: services,
		DB:       store,
		Metrics:  serverMetrics,
		Logger:   log.Logger,
	})
	dispatcher.Register(server.NewWebSocketObserver())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		server.RunHub()
		return nil
	})
	g.Go(server.ListenAndServe)

	if interval := cfg.GetBackupInterval(); interval > 0 {
		bcfg := backupConfig(cfg)
		g.Go(func() error {
			err := storage.RunBackupSchedule(gctx, interval, func(ctx context.Context) (string, error) {
				return store.DB().Backup(ctx, cfg.Database.Path, bcfg)
			}, func(path string, err error) {
				if err != nil {
					log.Error("scheduled backup failed", zap.Error(err))
					return
				}
				log.Info("scheduled backup written", zap.String("path", path))
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
