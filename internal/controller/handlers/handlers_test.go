package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConversation struct {
	calls []string
	res   service.Result
}

func (f *fakeConversation) HandleMessage(_ context.Context, userID, text string) service.Result {
	f.calls = append(f.calls, "message:"+userID+":"+text)
	return f.res
}

func (f *fakeConversation) Lookup(_ context.Context, userID string) service.Result {
	f.calls = append(f.calls, "lookup:"+userID)
	return f.res
}

func (f *fakeConversation) Cancel(_ context.Context, userID string) service.Result {
	f.calls = append(f.calls, "cancel:"+userID)
	return f.res
}

// telegramServer записывает тела запросов sendMessage
type telegramServer struct {
	mu     sync.Mutex
	bodies []string
}

func newTelegramBot(t *testing.T) (*bot.Bot, *telegramServer) {
	t.Helper()
	ts := &telegramServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			ts.mu.Lock()
			ts.bodies = append(ts.bodies, string(data))
			ts.mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}},
		})
	}))
	t.Cleanup(srv.Close)

	b, err := bot.New("test-token", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)
	return b, ts
}

func (ts *telegramServer) sent() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.bodies...)
}

func textUpdate(text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			Text: text,
			Chat: models.Chat{ID: 42, Type: models.ChatTypePrivate},
			From: &models.User{ID: 42, FirstName: "Jane"},
		},
	}
}

func TestHandleTextMessage(t *testing.T) {
	b, ts := newTelegramBot(t)
	conv := &fakeConversation{res: service.Result{
		Kind:  service.KindMenuOffered,
		Slots: []string{"Friday 09:00 AM"},
	}}
	h := NewHandlers(conv, zap.NewNop())

	h.HandleTextMessage(context.Background(), b, textUpdate("any openings friday?"))

	assert.Equal(t, []string{"message:42:any openings friday?"}, conv.calls)
	sent := ts.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Please choose a time")
	assert.Contains(t, sent[0], "pick:1")
}

func TestHandleCommands(t *testing.T) {
	b, ts := newTelegramBot(t)
	conv := &fakeConversation{res: service.Result{Kind: service.KindNoBooking}}
	h := NewHandlers(conv, zap.NewNop())
	ctx := context.Background()

	h.HandleMyBooking(ctx, b, textUpdate("/mybooking"))
	h.HandleCancel(ctx, b, textUpdate("/cancel"))
	h.HandleHelp(ctx, b, textUpdate("/help"))

	assert.Equal(t, []string{"lookup:42", "cancel:42"}, conv.calls)
	sent := ts.sent()
	require.Len(t, sent, 3)
	assert.Contains(t, sent[0], "any appointments booked")
	assert.Contains(t, sent[2], "/mybooking")
}

func TestHandlersIgnoreUpdatesWithoutMessage(t *testing.T) {
	b, ts := newTelegramBot(t)
	conv := &fakeConversation{}
	h := NewHandlers(conv, zap.NewNop())

	h.HandleTextMessage(context.Background(), b, &models.Update{ID: 2})
	h.HandleStart(context.Background(), b, &models.Update{ID: 3})

	assert.Empty(t, conv.calls)
	assert.Empty(t, ts.sent())
}
