package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillmart/cmd/server/handlers"
	"skillmart/internal/clients/cache"
	"skillmart/internal/clients/mailer"
	mongo "skillmart/internal/clients/mongo" // mongo client singleton
	"skillmart/internal/clients/storage"
	"skillmart/internal/config"
	"skillmart/internal/logger"
	"skillmart/internal/services/activity"
	"skillmart/internal/services/auth"
	"skillmart/internal/services/media"
	"skillmart/internal/services/users"

	"github.com/grafana/pyroscope-go"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Create bootstrap logger for early errors
	bootstrapLog := log.New(os.Stderr, "bootstrap: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Printf("config load failed: %v", err)
		os.Exit(1)
	}

	logg, err := logger.Init(cfg)
	if err != nil {
		bootstrapLog.Printf("logger init failed: %v", err)
		os.Exit(1)
	}

	if cfg.PyroscopeServerAddress != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "skillmart",
			ServerAddress:   cfg.PyroscopeServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseSpace,
				pyroscope.ProfileGoroutines,
			},
		})
		if err != nil {
			logg.Warn("pyroscope disabled", "error", err)
		} else {
			defer func() { _ = profiler.Stop() }()
		}
	}

	_, db, err := mongo.Init(ctx, cfg, logg)
	if err != nil {
		logg.Error("mongo init", "err", err)
		os.Exit(1)
	}
	logg.Info("connected to mongo", "db", db.Name())

	usersRepo, err := mongo.NewUsersRepo(ctx, db)
	if err != nil {
		logg.Error("failed to create users repository", "error", err)
		os.Exit(1)
	}

	checks := []handlers.Check{{Name: "mongo", Ping: usersRepo.Ping}}

	var suggestCache users.SuggestCache
	var redisClient *cache.Client
	if cfg.RedisAddr != "" {
		redisClient = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logg)
		suggestCache = redisClient
		checks = append(checks, handlers.Check{Name: "redis", Ping: redisClient.Ping, Optional: true})
	}

	mediaSvc := media.NewService(objectStore(ctx, cfg, logg), cfg.UploadMaxBytes, logg)

	var resetMailer auth.Mailer
	if cfg.MailConfigured() {
		m, err := mailer.New(cfg)
		if err != nil {
			logg.Error("failed to configure mailer", "error", err)
			os.Exit(1)
		}
		resetMailer = m
	} else {
		logg.Warn("SMTP is not configured, password reset codes cannot be delivered")
	}

	hub := activity.NewHub(cfg.WSOutboxBuffer, logg)
	usersSvc := users.NewService(usersRepo, mediaSvc, suggestCache, hub, logg, users.Options{
		SearchMaxResults:  cfg.SearchMaxResults,
		SuggestLimit:      cfg.SuggestLimit,
		SuggestCacheTTL:   time.Duration(cfg.SuggestCacheTTLSec) * time.Second,
		BlobDeleteTimeout: time.Duration(cfg.BlobDeleteTimeout) * time.Second,
	})
	authSvc := auth.NewService(usersRepo, resetMailer, cfg, logg)

	logg.Info("starting Skillmart", "port", cfg.AppPort)

	app := setupRouter(cfg, routerDeps{
		Auth:       authSvc,
		Users:      usersSvc,
		Media:      mediaSvc,
		Hub:        hub,
		Checks:     checks,
		Collectors: hub.Collectors(),
	})
	portStr := fmt.Sprintf(":%d", cfg.AppPort)

	g.Go(func() error {
		err := app.Listen(portStr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	// Graceful shutdown
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 25*time.Second)
		defer cancel()

		if err := app.Shutdown(); err != nil {
			return err
		}
		usersSvc.WaitCleanups()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return mongo.Shutdown(shutdownCtx)
	})

	// Wait and exit
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("fatal", "err", err)
		os.Exit(1)
	}
	logg.Info("graceful shutdown complete")
}

// objectStore returns nil when S3 is not configured; media routes then answer 503.
func objectStore(ctx context.Context, cfg config.Config, logg *slog.Logger) media.Store {
	if !cfg.StorageConfigured() {
		logg.Warn("object storage is not configured, uploads are disabled")
		return nil
	}
	s3, err := storage.New(ctx, cfg)
	if err != nil {
		logg.Error("failed to configure object storage, uploads are disabled", "error", err)
		return nil
	}
	return s3
}
