package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/salonbooker/salonbooker/internal/app/bootstrap"
	appconfig "github.com/salonbooker/salonbooker/internal/config"
	"github.com/salonbooker/salonbooker/internal/notify"
	"github.com/salonbooker/salonbooker/internal/reminders"
	"github.com/salonbooker/salonbooker/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salonbooker reminder worker", "env", cfg.Env, "concurrency", cfg.ReminderConcurrency)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for salon configs")
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	email, err := bootstrap.BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build email sender", "error", err)
		os.Exit(1)
	}
	sender := notify.NewService(email, bootstrap.BuildSMSSender(cfg, logger), bootstrap.BuildSalonStore(redisClient), logger)

	srv := reminders.NewServer(bootstrap.AsynqRedisOpt(cfg), cfg.ReminderConcurrency, logger)
	if err := srv.Start(reminders.NewMux(sender, logger)); err != nil {
		logger.Error("failed to start reminder worker", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down reminder worker...")
	srv.Shutdown()
	logger.Info("reminder worker stopped")
}
