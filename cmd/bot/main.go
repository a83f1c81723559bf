package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/app"
	"github.com/Freeeeeet/appointment_bot/internal/config"
	"github.com/Freeeeeet/appointment_bot/internal/controller"
	"github.com/Freeeeeet/appointment_bot/internal/controller/handlers"
	"github.com/Freeeeeet/appointment_bot/internal/notify"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Bot stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting appointment bot", cfg.LogFields()...)

	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	b, err := bot.New(cfg.TelegramToken, bot.WithMiddlewares(handlers.LogUpdates(logger)))
	if err != nil {
		return err
	}

	email := app.EmailSender(cfg)
	if email == nil {
		logger.Info("SMTP is not configured, reminders go to chat only")
	}
	scheduler := app.NewScheduler(
		services.Reminders(notify.NewTelegramSender(b), email),
		cfg.ReminderSchedule,
		logger,
	)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	if cfg.HealthAddr != "" {
		health := app.NewHealthServer(cfg.HealthAddr, services.Store, logger)
		health.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := health.Stop(shutdownCtx); err != nil {
				logger.Warn("Health server shutdown failed", zap.Error(err))
			}
		}()
	}

	botController := controller.NewBotController(b, services.Conversation, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		// меню команд не критично для работы
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	botController.Start(ctx)
	logger.Info("Shutting down")
	return nil
}
