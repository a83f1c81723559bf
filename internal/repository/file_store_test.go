package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newFileStore(t *testing.T) BookingStore {
	return NewFileStore(filepath.Join(t.TempDir(), "data", "bookings.json"), nil)
}

func TestFileStore_Contract(t *testing.T) {
	testStoreContract(t, newFileStore)
}

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"), nil)

	out, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestFileStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"1001": {"time": "Frid`), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	store := NewFileStore(path, zap.New(core))

	out, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, logs.Len())

	// после восстановления запись снова работает
	require.NoError(t, store.Update(context.Background(), func(bs model.Bookings) (bool, error) {
		bs.Get("1001").SetSlot("Friday 02:00 PM")
		return true, nil
	}))
	out, err = store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Friday 02:00 PM", out["1001"].Time)
}

func TestFileStore_UnreadableFile(t *testing.T) {
	// каталог на месте файла читается с ошибкой даже под root
	path := filepath.Join(t.TempDir(), "bookings.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	core, logs := observer.New(zap.WarnLevel)
	store := NewFileStore(path, zap.New(core))

	out, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Bookings file is unreadable, starting from empty state", logs.All()[0].Message)
}

func TestFileStore_NullEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": null, "b": {"time": "Monday 09:00 AM"}}`), 0o644))

	out, err := NewFileStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, out, "a")
	assert.Equal(t, "Monday 09:00 AM", out["b"].Time)
}

func TestFileStore_LegacyUnpaddedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.json")
	legacy := `{"5551234": {"time": "Friday 2:00 PM", "awaiting_selection": false, "reminder_sent_sms_24": true}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	out, err := NewFileStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Friday 2:00 PM", out["5551234"].Time)
	assert.True(t, out["5551234"].ReminderSentChat24)
}

func TestFileStore_AtomicReplaceLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bookings.json")
	store := NewFileStore(path, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(context.Background(), model.Bookings{"a": {Time: "Monday 09:00 AM"}}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bookings.json", entries[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Monday 09:00 AM", raw["a"]["time"])
}

func TestFileStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newFileStore(t)
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Update(ctx, func(model.Bookings) (bool, error) { return true, nil }), context.Canceled)
}
