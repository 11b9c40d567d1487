package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/restodash/dashboard-api/internal/config"
	"github.com/restodash/dashboard-api/internal/database"
	"github.com/restodash/dashboard-api/internal/handler"
	"github.com/restodash/dashboard-api/internal/logger"
	"github.com/restodash/dashboard-api/internal/queue"
	"github.com/restodash/dashboard-api/internal/repository"
	"github.com/restodash/dashboard-api/internal/router"
	"github.com/restodash/dashboard-api/internal/service"
	"github.com/restodash/dashboard-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		zl.Warn("redis unavailable; using in-process rate limiting and no response cache", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.AMQP.URL != "" {
		pub := queue.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, zl.Named("events"),
			queue.WithBuffer(cfg.AMQP.PublishBuffer),
			queue.WithDialTimeout(cfg.AMQP.DialTimeout))
		defer func() {
			if err := pub.Close(); err != nil {
				zl.Warn("event publisher shutdown", zap.Error(err))
			}
		}()
		events = pub

		if cfg.AMQP.ConsumerEnabled {
			consumer := &queue.AuditConsumer{
				URL:     cfg.AMQP.URL,
				Queue:   cfg.AMQP.Queue,
				LogPath: cfg.AMQP.AuditLogPath,
				Log:     zl.Named("audit"),
			}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					zl.Error("audit consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	issuer, err := utils.NewIssuer(utils.IssuerConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	deps := service.Deps{
		Users:  repository.NewUserRepo(db),
		Tokens: repository.NewTokenRepo(db),
		Issuer: issuer,
		Hasher: utils.NewPasswordHasher(cfg.BcryptCost),
		Events: events,
		Log:    zl,
	}
	sessions := service.NewSessionManager(deps, service.WithRefreshRotation(cfg.RefreshRotateOnUse))
	admin := service.NewUserAdmin(deps)

	opts := router.Options{
		Auth:        handler.NewAuthHandler(sessions),
		Admin:       handler.NewAdminHandler(admin),
		Verifier:    issuer,
		DB:          db,
		Redis:       rdb,
		RateLimit:   cfg.RateLimit,
		Cache:       cfg.Cache,
		CORSOrigins: cfg.CORSAllowOrigins,
		Log:         zl,
	}
	e := router.New(opts)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.Bool("refresh_rotation", cfg.RefreshRotateOnUse))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	zl.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
