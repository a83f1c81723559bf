package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const stopTimeout = 10 * time.Second

// Sweeper один проход рассылки напоминаний
type Sweeper interface {
	Sweep(ctx context.Context) (service.SweepReport, error)
}

// Scheduler запускает рассылку напоминаний по cron-расписанию
type Scheduler struct {
	reminders Sweeper
	schedule  string
	logger    *zap.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler создаёт новый планировщик
func NewScheduler(reminders Sweeper, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		schedule:  schedule,
		logger:    logger,
	}
}

// scheduleParser пять полей или дескриптор вроде "@every 1m"
func scheduleParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Start регистрирует задачу и сразу делает первый проход
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	cronLogger := zapCronLogger{logger: s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithParser(scheduleParser()),
		cron.WithLogger(cronLogger),
		// проход, не успевший закончиться, не запускается параллельно со следующим
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	id, err := s.cron.AddFunc(s.schedule, s.runSweep)
	if err != nil {
		s.cancel()
		return fmt.Errorf("schedule reminder sweep %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Reminder scheduler started", zap.String("schedule", s.schedule))

	// Первый запуск сразу при старте, через ту же цепочку обёрток
	go s.cron.Entry(id).WrappedJob.Run()
	return nil
}

// Stop ждёт завершения текущего прохода и останавливает планировщик
func (s *Scheduler) Stop() {
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(stopTimeout):
			s.logger.Warn("Reminder scheduler stop timed out")
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("Reminder scheduler stopped")
}

func (s *Scheduler) runSweep() {
	if s.ctx.Err() != nil {
		return
	}
	if _, err := s.reminders.Sweep(s.ctx); err != nil {
		s.logger.Error("Reminder sweep failed", zap.Error(err))
	}
}

// zapCronLogger пишет внутренние события cron в zap
type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
