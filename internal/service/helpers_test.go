package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/repository"
	"github.com/Freeeeeet/appointment_bot/internal/slot"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// среда, 15 мая 2024, 10:07
var refNow = time.Date(2024, time.May, 15, 10, 7, 0, 0, time.UTC)

type fixture struct {
	t        *testing.T
	store    repository.BookingStore
	parser   *slot.Parser
	bookings *BookingService
	conv     *ConversationService

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithPolicy(t, model.DefaultPolicy())
}

func newFixtureWithPolicy(t *testing.T, policy model.Policy) *fixture {
	f := &fixture{t: t, now: refNow}
	f.store = repository.NewFileStore(filepath.Join(t.TempDir(), "bookings.json"), nil)
	f.parser = slot.NewParser(slot.WithClock(f.clock), slot.WithGranularity(policy.Granularity()))
	f.bookings = NewBookingService(f.store, f.parser, policy, zap.NewNop())
	f.conv = NewConversationService(f.bookings, f.parser, zap.NewNop())
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) setNow(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func (f *fixture) say(userID, text string) Result {
	return f.conv.HandleMessage(context.Background(), userID, text)
}

func (f *fixture) record(userID string) *model.Booking {
	bookings, err := f.store.Load(context.Background())
	require.NoError(f.t, err)
	return bookings[userID]
}

func (f *fixture) seed(bookings model.Bookings) {
	require.NoError(f.t, f.store.Save(context.Background(), bookings))
}

// failingStore хранилище, недоступное на любой операции
type failingStore struct{}

var errStoreDown = errors.New("disk on fire")

func (failingStore) Load(context.Context) (model.Bookings, error)  { return nil, errStoreDown }
func (failingStore) Save(context.Context, model.Bookings) error     { return errStoreDown }
func (failingStore) Update(context.Context, repository.UpdateFunc) error { return errStoreDown }
