package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/repository"
	"github.com/Freeeeeet/appointment_bot/internal/slot"
	"go.uber.org/zap"
)

var (
	// ErrSlotTaken слот уже занят другим пользователем
	ErrSlotTaken = errors.New("slot is already taken")
)

// ReserveOutcome итог попытки брони
type ReserveOutcome int

const (
	OutcomeBooked ReserveOutcome = iota
	OutcomeAlreadyBooked
	OutcomeTaken
)

// Reservation результат Reserve
type Reservation struct {
	Outcome   ReserveOutcome
	Slot      slot.Slot
	Previous  string      // слот, который был у пользователя до переноса
	Suggested *slot.Slot  // ближайший свободный при коллизии
	Menu      []slot.Slot // обновлённое меню при коллизии из меню
	AskEmail  bool
}

// ReserveOptions откуда пришёл запрос на бронь
type ReserveOptions struct {
	FromMenu bool
}

type BookingService struct {
	store  repository.BookingStore
	parser *slot.Parser
	policy model.Policy
	logger *zap.Logger
}

func NewBookingService(store repository.BookingStore, parser *slot.Parser, policy model.Policy, logger *zap.Logger) *BookingService {
	return &BookingService{
		store:  store,
		parser: parser,
		policy: policy,
		logger: logger,
	}
}

// Record снимок записи пользователя, nil если записи нет
func (s *BookingService) Record(ctx context.Context, userID string) (*model.Booking, error) {
	bookings, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return bookings[userID], nil
}

// Reserve бронирует слот. Доступность перепроверяется внутри Update,
// поэтому из двух одновременных запросов на один слот выигрывает ровно один.
func (s *BookingService) Reserve(ctx context.Context, userID string, sl slot.Slot, opts ReserveOptions) (Reservation, error) {
	res := Reservation{Slot: sl}
	taken := false
	now := s.parser.Now()

	err := s.store.Update(ctx, func(bookings model.Bookings) (bool, error) {
		// повторный вход в цикл Update не должен тащить прошлое состояние
		res = Reservation{Slot: sl}
		taken = false

		b := bookings[userID]
		if b.HasSlot() {
			if current, ok := s.parser.Canonical(b.Time); ok && current == sl {
				res.Outcome = OutcomeAlreadyBooked
				if b.AwaitingSelection {
					b.ClearMenu()
					b.Touch(now)
					return true, nil
				}
				return false, nil
			}
			res.Previous = b.Time
		}

		if Taken(bookings, sl, userID, s.parser) {
			res.Outcome = OutcomeTaken
			if free, ok := NearestFreeIn(bookings, sl, userID, s.parser, s.parser.Granularity(), s.policy.MaxLookahead); ok {
				res.Suggested = &free
			}
			if !opts.FromMenu {
				return false, ErrSlotTaken
			}

			// остаёмся в меню, но показываем актуальные слоты
			taken = true
			res.Menu = s.buildMenu(bookings, nil, now)
			b = bookings.Get(userID)
			b.ShownSlots = slotStrings(res.Menu)
			b.AwaitingSelection = len(res.Menu) > 0
			b.Touch(now)
			return true, nil
		}

		b = bookings.Get(userID)
		b.SetSlot(sl.String())
		b.ClearMenu()
		b.AwaitingEmail = b.Email == ""
		b.Touch(now)

		res.Outcome = OutcomeBooked
		res.AskEmail = b.AwaitingEmail
		return true, nil
	})

	if errors.Is(err, repository.ErrSlotConflict) {
		res.Outcome = OutcomeTaken
		err = ErrSlotTaken
	}
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.logger.Info("Slot already taken",
				zap.String("user_id", userID),
				zap.String("slot", sl.String()))
			return res, fmt.Errorf("reserve %s: %w", sl, err)
		}
		return res, fmt.Errorf("reserve slot: %w", err)
	}
	if taken {
		s.logger.Info("Slot already taken, menu refreshed",
			zap.String("user_id", userID),
			zap.String("slot", sl.String()),
			zap.Int("menu_size", len(res.Menu)))
		return res, fmt.Errorf("reserve %s: %w", sl, ErrSlotTaken)
	}

	if res.Outcome == OutcomeBooked {
		s.logger.Info("Slot booked",
			zap.String("user_id", userID),
			zap.String("slot", sl.String()),
			zap.String("previous", res.Previous))
	}
	return res, nil
}

// Cancel снимает бронь, меню и ожидание email. Email сохраняется.
// Возвращает снятый слот или пустую строку, если брони не было.
func (s *BookingService) Cancel(ctx context.Context, userID string) (string, error) {
	var previous string

	err := s.store.Update(ctx, func(bookings model.Bookings) (bool, error) {
		previous = ""
		b, ok := bookings[userID]
		if !ok {
			return false, nil
		}

		previous = b.Time
		b.ClearSlot()
		b.ClearMenu()
		b.AwaitingEmail = false
		b.Touch(s.parser.Now())

		if b.IsBlank() {
			delete(bookings, userID)
		}
		return true, nil
	})
	if err != nil {
		return "", fmt.Errorf("cancel booking: %w", err)
	}

	if previous != "" {
		s.logger.Info("Booking cancelled",
			zap.String("user_id", userID),
			zap.String("slot", previous))
	}
	return previous, nil
}

// Lookup активная бронь пользователя в каноническом виде
func (s *BookingService) Lookup(ctx context.Context, userID string) (string, bool, error) {
	b, err := s.Record(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if !b.HasSlot() {
		return "", false, nil
	}
	if sl, ok := s.parser.Canonical(b.Time); ok {
		return sl.String(), true, nil
	}
	return b.Time, true, nil
}

// OfferMenu формирует меню свободных слотов и переводит пользователя в режим выбора.
// day ограничивает меню одним днём недели.
func (s *BookingService) OfferMenu(ctx context.Context, userID string, day *time.Weekday) ([]slot.Slot, error) {
	var menu []slot.Slot
	now := s.parser.Now()

	err := s.store.Update(ctx, func(bookings model.Bookings) (bool, error) {
		menu = s.buildMenu(bookings, day, now)

		b, ok := bookings[userID]
		if len(menu) == 0 {
			if !ok || b.State() == model.StateIdle {
				return false, nil
			}
			b.ClearMenu()
			b.AwaitingEmail = false
			b.Touch(now)
			return true, nil
		}

		b = bookings.Get(userID)
		b.ShownSlots = slotStrings(menu)
		b.AwaitingSelection = true
		b.AwaitingEmail = false
		b.Touch(now)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("offer menu: %w", err)
	}

	s.logger.Debug("Menu offered",
		zap.String("user_id", userID),
		zap.Int("slots", len(menu)))
	return menu, nil
}

// ExitMenu выходит из режима выбора без брони
func (s *BookingService) ExitMenu(ctx context.Context, userID string) error {
	err := s.store.Update(ctx, func(bookings model.Bookings) (bool, error) {
		b, ok := bookings[userID]
		if !ok || !b.AwaitingSelection && len(b.ShownSlots) == 0 {
			return false, nil
		}
		b.ClearMenu()
		b.Touch(s.parser.Now())
		if b.IsBlank() {
			delete(bookings, userID)
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("exit menu: %w", err)
	}
	return nil
}

// SaveEmail сохраняет контакт и снимает запрос email
func (s *BookingService) SaveEmail(ctx context.Context, userID, email string) error {
	err := s.store.Update(ctx, func(bookings model.Bookings) (bool, error) {
		b := bookings.Get(userID)
		b.Email = email
		b.AwaitingEmail = false
		b.Touch(s.parser.Now())
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("save email: %w", err)
	}

	s.logger.Info("Email saved", zap.String("user_id", userID))
	return nil
}

// SkipEmail снимает запрос email, не трогая остальное
func (s *BookingService) SkipEmail(ctx context.Context, userID string) error {
	err := s.store.Update(ctx, func(bookings model.Bookings) (bool, error) {
		b, ok := bookings[userID]
		if !ok || !b.AwaitingEmail {
			return false, nil
		}
		b.AwaitingEmail = false
		b.Touch(s.parser.Now())
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("skip email: %w", err)
	}
	return nil
}

// buildMenu кандидаты каждые SlotInterval в рабочие часы на DaysAhead дней вперёд,
// строго в будущем и не занятые никем
func (s *BookingService) buildMenu(bookings model.Bookings, day *time.Weekday, now time.Time) []slot.Slot {
	taken := TakenSet(bookings, "", s.parser)
	interval := s.policy.SlotInterval()
	menu := make([]slot.Slot, 0, s.policy.MenuSize)
	seen := make(map[slot.Slot]struct{})

	for d := 0; d < s.policy.DaysAhead; d++ {
		date := time.Date(now.Year(), now.Month(), now.Day()+d, 0, 0, 0, 0, now.Location())
		if day != nil && date.Weekday() != *day {
			continue
		}

		start := date.Add(time.Duration(s.policy.WorkingHoursStart) * time.Hour)
		end := date.Add(time.Duration(s.policy.WorkingHoursEnd) * time.Hour)
		for t := start; t.Before(end); t = t.Add(interval) {
			if !t.After(now) {
				continue
			}
			candidate := slot.FromTime(t)
			if _, ok := taken[candidate]; ok {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			menu = append(menu, candidate)
			if len(menu) == s.policy.MenuSize {
				return menu
			}
		}
	}
	return menu
}

func slotStrings(slots []slot.Slot) []string {
	if len(slots) == 0 {
		return nil
	}
	out := make([]string, len(slots))
	for i, sl := range slots {
		out[i] = sl.String()
	}
	return out
}
