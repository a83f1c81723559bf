package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/notify"
	"github.com/Freeeeeet/appointment_bot/internal/repository"
	"github.com/Freeeeeet/appointment_bot/internal/slot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const EmailSubject = "⏰ Appointment reminder"

// SweepReport итог одного прохода
type SweepReport struct {
	ID      string
	Checked int // записей с бронью
	Due     int // напоминаний, попавших в окно
	Sent    int
	Failed  int
	Skipped int // email не указан или почта отключена
}

// delivery успешно отправленное напоминание, флаг которого надо выставить
type delivery struct {
	userID  string
	slot    string
	channel model.Channel
	window  model.LeadWindow
}

type ReminderService struct {
	store  repository.BookingStore
	parser *slot.Parser
	chat   notify.ChatSender
	email  notify.EmailSender // nil если почта не настроена
	logger *zap.Logger

	dryRun bool // флаги отправки не сохраняются
}

func NewReminderService(
	store repository.BookingStore,
	parser *slot.Parser,
	chat notify.ChatSender,
	email notify.EmailSender,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		store:  store,
		parser: parser,
		chat:   chat,
		email:  email,
		logger: logger,
	}
}

// WithoutMarking копия сервиса, которая отправляет напоминания, но не сохраняет флаги.
// Следующий обычный проход отправит их снова.
func (s *ReminderService) WithoutMarking() *ReminderService {
	c := *s
	c.dryRun = true
	return &c
}

// Sweep отправляет напоминания, окно которых [T-lead, T) содержит текущий момент.
// Отправка идёт по снимку без блокировки хранилища, флаги записываются одним Update
// и только для записей, слот которых не поменялся с момента снимка.
func (s *ReminderService) Sweep(ctx context.Context) (SweepReport, error) {
	report := SweepReport{ID: uuid.NewString()}
	logger := s.logger.With(zap.String("sweep_id", report.ID))

	snapshot, err := s.store.Load(ctx)
	if err != nil {
		logger.Error("Failed to load bookings", zap.Error(err))
		return report, fmt.Errorf("load bookings: %w", err)
	}

	now := s.parser.Now()
	users := make([]string, 0, len(snapshot))
	for id := range snapshot {
		users = append(users, id)
	}
	sort.Strings(users)

	var delivered []delivery
	for _, userID := range users {
		b := snapshot[userID]
		if !b.HasSlot() {
			continue
		}
		report.Checked++

		sl, ok := s.parser.Canonical(b.Time)
		if !ok {
			logger.Warn("Stored slot cannot be parsed",
				zap.String("user_id", userID),
				zap.String("slot", b.Time))
			continue
		}
		at := sl.Next(now)

		for _, w := range model.LeadWindows {
			if now.Before(at.Add(-w.Duration())) || !now.Before(at) {
				continue
			}

			if !b.ReminderSent(model.ChannelChat, w) {
				report.Due++
				if s.sendChat(ctx, logger, userID, sl, w) {
					report.Sent++
					delivered = append(delivered, delivery{userID, b.Time, model.ChannelChat, w})
				} else {
					report.Failed++
				}
			}

			if !b.ReminderSent(model.ChannelEmail, w) {
				if b.Email == "" || s.email == nil {
					report.Skipped++
					continue
				}
				report.Due++
				if s.sendEmail(ctx, logger, userID, b.Email, sl, w) {
					report.Sent++
					delivered = append(delivered, delivery{userID, b.Time, model.ChannelEmail, w})
				} else {
					report.Failed++
				}
			}
		}
	}

	if s.dryRun && len(delivered) > 0 {
		logger.Info("Reminder flags not persisted", zap.Int("delivered", len(delivered)))
	} else if len(delivered) > 0 {
		if err := s.markSent(ctx, delivered, now); err != nil {
			logger.Error("Failed to persist reminder flags", zap.Error(err))
			return report, err
		}
	}

	logger.Info("Reminder sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("due", report.Due),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (s *ReminderService) sendChat(ctx context.Context, logger *zap.Logger, userID string, sl slot.Slot, w model.LeadWindow) bool {
	if s.chat == nil {
		return false
	}
	if err := s.chat.Send(ctx, userID, ChatReminderText(sl, w)); err != nil {
		logger.Warn("Failed to send chat reminder",
			zap.String("user_id", userID),
			zap.String("sender", s.chat.Name()),
			zap.Duration("lead", w.Duration()),
			zap.Error(err))
		return false
	}
	logger.Info("Chat reminder sent",
		zap.String("user_id", userID),
		zap.Duration("lead", w.Duration()))
	return true
}

func (s *ReminderService) sendEmail(ctx context.Context, logger *zap.Logger, userID, address string, sl slot.Slot, w model.LeadWindow) bool {
	if err := s.email.SendEmail(ctx, address, EmailSubject, EmailReminderBody(sl, w)); err != nil {
		logger.Warn("Failed to send email reminder",
			zap.String("user_id", userID),
			zap.String("sender", s.email.Name()),
			zap.Duration("lead", w.Duration()),
			zap.Error(err))
		return false
	}
	logger.Info("Email reminder sent",
		zap.String("user_id", userID),
		zap.Duration("lead", w.Duration()))
	return true
}

func (s *ReminderService) markSent(ctx context.Context, delivered []delivery, now time.Time) error {
	err := s.store.Update(ctx, func(bookings model.Bookings) (bool, error) {
		changed := false
		for _, d := range delivered {
			b, ok := bookings[d.userID]
			// бронь перенесли или сняли, пока шла отправка
			if !ok || b.Time != d.slot {
				continue
			}
			if !b.ReminderSent(d.channel, d.window) {
				b.MarkReminderSent(d.channel, d.window)
				b.Touch(now)
				changed = true
			}
		}
		return changed, nil
	})
	if err != nil {
		return fmt.Errorf("mark reminders sent: %w", err)
	}
	return nil
}

// ChatReminderText текст напоминания в чат
func ChatReminderText(sl slot.Slot, w model.LeadWindow) string {
	return fmt.Sprintf("🔔 Friendly reminder: your appointment is %s at %s.", leadPhrase(w), sl)
}

// EmailReminderBody текст письма-напоминания
func EmailReminderBody(sl slot.Slot, w model.LeadWindow) string {
	return fmt.Sprintf("Hi there!\n\n"+
		"This is a quick reminder that you have an appointment %s at %s.\n\n"+
		"Reply to this email or message us in the chat if you need to reschedule.\n\n"+
		"See you soon!", leadPhrase(w), sl)
}

func leadPhrase(w model.LeadWindow) string {
	if w == model.Lead24h {
		return "tomorrow"
	}
	return "in 1 hour"
}
