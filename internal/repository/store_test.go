package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract общие проверки для любой реализации BookingStore
func testStoreContract(t *testing.T, newStore func(t *testing.T) BookingStore) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := newStore(t)
		updated := time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)

		in := model.Bookings{
			"1001": {
				Time:               "Friday 02:00 PM",
				Email:              "a@example.com",
				ReminderSentChat24: true,
				UpdatedAt:          &updated,
			},
			"1002": {
				AwaitingSelection: true,
				ShownSlots:        []string{"Thursday 09:00 AM", "Thursday 10:00 AM"},
			},
		}
		require.NoError(t, store.Save(ctx, in))

		out, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, out, 2)

		assert.Equal(t, "Friday 02:00 PM", out["1001"].Time)
		assert.Equal(t, "a@example.com", out["1001"].Email)
		assert.True(t, out["1001"].ReminderSentChat24)
		assert.False(t, out["1001"].ReminderSentEmail24)
		require.NotNil(t, out["1001"].UpdatedAt)
		assert.True(t, updated.Equal(*out["1001"].UpdatedAt))
		assert.Equal(t, []string{"Thursday 09:00 AM", "Thursday 10:00 AM"}, out["1002"].ShownSlots)
		assert.True(t, out["1002"].AwaitingSelection)
	})

	t.Run("update removes and modifies", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, model.Bookings{
			"a": {Time: "Monday 09:00 AM"},
			"b": {Time: "Monday 10:00 AM"},
		}))

		err := store.Update(ctx, func(bs model.Bookings) (bool, error) {
			delete(bs, "a")
			bs["b"].SetSlot("Monday 09:00 AM")
			return true, nil
		})
		require.NoError(t, err)

		out, err := store.Load(ctx)
		require.NoError(t, err)
		assert.NotContains(t, out, "a")
		assert.Equal(t, "Monday 09:00 AM", out["b"].Time)
	})

	t.Run("update error discards changes", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, model.Bookings{"a": {Time: "Monday 09:00 AM"}}))

		boom := errors.New("boom")
		err := store.Update(ctx, func(bs model.Bookings) (bool, error) {
			bs["a"].ClearSlot()
			return true, boom
		})
		assert.ErrorIs(t, err, boom)

		out, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Monday 09:00 AM", out["a"].Time)
	})

	t.Run("unchanged update skips write", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, model.Bookings{"a": {Time: "Monday 09:00 AM"}}))

		err := store.Update(ctx, func(bs model.Bookings) (bool, error) {
			bs["a"].Time = "Tuesday 09:00 AM"
			return false, nil
		})
		require.NoError(t, err)

		out, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Monday 09:00 AM", out["a"].Time)
	})

	t.Run("concurrent updates are serialised", func(t *testing.T) {
		store := newStore(t)
		const workers = 20

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []string
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				err := store.Update(ctx, func(bs model.Bookings) (bool, error) {
					for _, b := range bs {
						if b.Time == "Friday 02:00 PM" {
							return false, nil
						}
					}
					bs.Get(user).SetSlot("Friday 02:00 PM")
					mu.Lock()
					winners = append(winners, user)
					mu.Unlock()
					return true, nil
				})
				assert.NoError(t, err)
			}(fmt.Sprintf("user-%d", i))
		}
		wg.Wait()

		require.Len(t, winners, 1)
		out, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, out, 1)
		assert.Equal(t, "Friday 02:00 PM", out[winners[0]].Time)
	})
}
