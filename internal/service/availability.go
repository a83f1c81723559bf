package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/repository"
	"github.com/Freeeeeet/appointment_bot/internal/slot"
)

// Canonicalizer приводит сохранённую строку времени к слоту
type Canonicalizer interface {
	Canonical(stored string) (slot.Slot, bool)
}

// AvailabilityService отвечает на вопрос "свободен ли слот". Только чтение.
type AvailabilityService struct {
	store        repository.BookingStore
	canon        Canonicalizer
	granularity  time.Duration
	maxLookahead int
}

func NewAvailabilityService(store repository.BookingStore, parser *slot.Parser, policy model.Policy) *AvailabilityService {
	return &AvailabilityService{
		store:        store,
		canon:        parser,
		granularity:  parser.Granularity(),
		maxLookahead: policy.MaxLookahead,
	}
}

// IsTaken занят ли слот кем-то кроме excludingUser
func (s *AvailabilityService) IsTaken(ctx context.Context, sl slot.Slot, excludingUser string) (bool, error) {
	bookings, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load bookings: %w", err)
	}
	return Taken(bookings, sl, excludingUser, s.canon), nil
}

// NearestFree ближайший свободный слот после sl. maxLookahead <= 0 берёт значение из политики.
func (s *AvailabilityService) NearestFree(ctx context.Context, sl slot.Slot, excludingUser string, maxLookahead int) (slot.Slot, bool, error) {
	bookings, err := s.store.Load(ctx)
	if err != nil {
		return slot.Slot{}, false, fmt.Errorf("load bookings: %w", err)
	}
	if maxLookahead <= 0 {
		maxLookahead = s.maxLookahead
	}
	free, ok := NearestFreeIn(bookings, sl, excludingUser, s.canon, s.granularity, maxLookahead)
	return free, ok, nil
}

// TakenSet все занятые слоты, кроме слота excludingUser.
// Значения, которые не удаётся разобрать, пропускаются.
func TakenSet(bookings model.Bookings, excludingUser string, canon Canonicalizer) map[slot.Slot]string {
	taken := make(map[slot.Slot]string, len(bookings))
	for user, b := range bookings {
		if user == excludingUser || !b.HasSlot() {
			continue
		}
		if sl, ok := canon.Canonical(b.Time); ok {
			taken[sl] = user
		}
	}
	return taken
}

// Taken занят ли слот в уже загруженном снимке
func Taken(bookings model.Bookings, sl slot.Slot, excludingUser string, canon Canonicalizer) bool {
	_, ok := TakenSet(bookings, excludingUser, canon)[sl]
	return ok
}

// NearestFreeIn идёт вперёд с шагом step, начиная со следующего после sl слота, не более maxLookahead шагов
func NearestFreeIn(bookings model.Bookings, sl slot.Slot, excludingUser string, canon Canonicalizer, step time.Duration, maxLookahead int) (slot.Slot, bool) {
	taken := TakenSet(bookings, excludingUser, canon)
	for i := 1; i <= maxLookahead; i++ {
		candidate := sl.Add(time.Duration(i) * step)
		if _, ok := taken[candidate]; !ok {
			return candidate, true
		}
	}
	return slot.Slot{}, false
}
