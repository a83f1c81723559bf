package app

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // часовые пояса без системной базы

	"github.com/Freeeeeet/appointment_bot/internal/config"
	"github.com/Freeeeeet/appointment_bot/internal/notify"
	"github.com/Freeeeeet/appointment_bot/internal/repository"
	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/Freeeeeet/appointment_bot/internal/slot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Services общие для бота и CLI зависимости
type Services struct {
	Store        repository.BookingStore
	Parser       *slot.Parser
	Bookings     *service.BookingService
	Conversation *service.ConversationService

	logger  *zap.Logger
	closers []func()
}

// Build открывает хранилище и собирает сервисы по конфигу
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	parser, err := NewParser(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	bookings := service.NewBookingService(store, parser, cfg.Policy, logger)
	return &Services{
		Store:        store,
		Parser:       parser,
		Bookings:     bookings,
		Conversation: service.NewConversationService(bookings, parser, logger),
		logger:       logger,
		closers:      []func(){closeStore},
	}, nil
}

// Reminders сервис напоминаний. email может быть nil.
func (s *Services) Reminders(chat notify.ChatSender, email notify.EmailSender) *service.ReminderService {
	return service.NewReminderService(s.Store, s.Parser, chat, email, s.logger)
}

// Close освобождает ресурсы в обратном порядке
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// NewParser разборщик с часами в часовом поясе конфига и Duckling, если он задан
func NewParser(cfg *config.Config, logger *zap.Logger) (*slot.Parser, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	opts := []slot.Option{
		slot.WithClock(func() time.Time { return time.Now().In(loc) }),
		slot.WithGranularity(cfg.Policy.Granularity()),
	}
	if cfg.DucklingURL != "" {
		opts = append(opts, slot.WithRemote(slot.NewDuckling(cfg.DucklingURL, cfg.Timezone, logger)))
		logger.Info("Duckling time parser enabled", zap.String("url", cfg.DucklingURL))
	}
	return slot.NewParser(opts...), nil
}

// OpenStore открывает хранилище выбранного типа. Для Postgres сначала применяются миграции.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.BookingStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		logger.Info("Using file booking store", zap.String("path", cfg.BookingsFile))
		return repository.NewFileStore(cfg.BookingsFile, logger), func() {}, nil

	case config.BackendPostgres:
		pool, err := OpenPool(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}

		migrator, err := NewMigrator(pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		defer migrator.Close()

		if err := migrator.Run(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info("Using postgres booking store")
		return repository.NewPostgresStore(pool, logger), pool.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// OpenPool подключается к базе и проверяет соединение
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EmailSender SMTP-отправитель или nil, если почта не настроена
func EmailSender(cfg *config.Config) notify.EmailSender {
	if !cfg.SMTP.Enabled() {
		return nil
	}
	return notify.NewSMTPSender(notify.SMTPConfig(cfg.SMTP))
}
