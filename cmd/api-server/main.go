package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/apiserver"
	"github.com/estagio/estagio/pkg/config"
	"github.com/estagio/estagio/pkg/eventbus"
	"github.com/estagio/estagio/pkg/logging"
	"github.com/estagio/estagio/pkg/notification"
	"github.com/estagio/estagio/pkg/storage"
	"github.com/estagio/estagio/pkg/store"
	"github.com/estagio/estagio/pkg/store/memory"
	"github.com/estagio/estagio/pkg/store/postgres"
	redisclient "github.com/estagio/estagio/pkg/store/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	var bus *eventbus.Bus
	if cfg.Redis.Enabled {
		redis, err := redisclient.NewClient(context.Background(), &cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		bus = eventbus.NewBus(redis.Client())
	}

	files, err := storage.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		logger.Fatal("Failed to prepare file storage", zap.Error(err))
	}
	mailer := notification.NewMailer(cfg.Mail, logger)

	services := apiserver.NewServices(st, files, mailer, bus, cfg, logger)
	if cfg.Auth.AdminEmail != "" {
		if err := services.Accounts.EnsureAdmin(context.Background(), cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal("Failed to bootstrap admin account", zap.Error(err))
		}
	}

	server := apiserver.NewServer(services, cfg, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.ReadTimeout * 2,
	}

	go func() {
		logger.Info("Starting API server",
			zap.Int("port", cfg.Server.HTTPPort),
			zap.String("database", cfg.Database.Driver),
			zap.Bool("events", bus != nil),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil
	}
	return postgres.Open(&cfg.Database, logger)
}
