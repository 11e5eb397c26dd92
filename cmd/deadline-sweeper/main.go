package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/config"
	"github.com/estagio/estagio/pkg/logging"
	"github.com/estagio/estagio/pkg/notification"
	"github.com/estagio/estagio/pkg/store/postgres"
	redisclient "github.com/estagio/estagio/pkg/store/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := postgres.Open(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	var locker notification.Locker
	if cfg.Redis.Enabled {
		redis, err := redisclient.NewClient(context.Background(), &cfg.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redis.Close()
		locker = redis
	}

	mailer := notification.NewMailer(cfg.Mail, logger)
	sweeper := notification.NewSweeper(db, mailer, logger)
	runner := notification.NewRunner(sweeper, locker, logger, cfg.Notification.SweepInterval, cfg.Notification.AlertWindowDays)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		sent := runner.RunOnce(ctx)
		logger.Info("single sweep complete", zap.Int("sent", sent))
		return
	}

	go func() {
		if err := runner.Run(ctx); err != nil && err != context.Canceled {
			logger.Fatal("deadline sweeper stopped with error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("deadline sweeper shutting down")
}
