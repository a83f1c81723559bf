package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/slot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConversation_BookDirectlyThenEmail(t *testing.T) {
	f := newFixture(t)

	res := f.say("1001", "book Friday at 2pm")
	assert.Equal(t, KindBooked, res.Kind)
	assert.Equal(t, "Friday 02:00 PM", res.Slot)
	assert.True(t, res.AskEmail)

	rec := f.record("1001")
	require.NotNil(t, rec)
	assert.Equal(t, "Friday 02:00 PM", rec.Time)
	assert.True(t, rec.AwaitingEmail)
	assert.False(t, rec.AwaitingSelection)

	res = f.say("1001", "sure, it's jane@example.com")
	assert.Equal(t, KindEmailSaved, res.Kind)
	assert.Equal(t, "jane@example.com", res.Email)

	rec = f.record("1001")
	assert.Equal(t, "jane@example.com", rec.Email)
	assert.False(t, rec.AwaitingEmail)
	assert.Equal(t, "Friday 02:00 PM", rec.Time)
}

func TestConversation_EmailPrompt(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindBooked, f.say("1001", "friday 2pm").Kind)

	assert.Equal(t, KindEmailInvalid, f.say("1001", "my email is jane at example dot com").Kind)
	assert.True(t, f.record("1001").AwaitingEmail)

	assert.Equal(t, KindEmailSkipped, f.say("1001", "skip").Kind)
	rec := f.record("1001")
	assert.False(t, rec.AwaitingEmail)
	assert.Empty(t, rec.Email)
}

func TestConversation_EmailWithCancelWordIsSaved(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindBooked, f.say("1001", "friday 2pm").Kind)

	res := f.say("1001", "drop@example.com")
	assert.Equal(t, KindEmailSaved, res.Kind)
	assert.Equal(t, "Friday 02:00 PM", f.record("1001").Time)
}

func TestConversation_NoAskEmailWhenKnown(t *testing.T) {
	f := newFixture(t)
	f.seed(model.Bookings{"1001": {Email: "jane@example.com"}})

	res := f.say("1001", "book monday 10am")
	assert.Equal(t, KindBooked, res.Kind)
	assert.False(t, res.AskEmail)
	assert.False(t, f.record("1001").AwaitingEmail)
}

func TestConversation_CollisionSuggestsNearest(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindBooked, f.say("1001", "book Friday at 2pm").Kind)

	res := f.say("2002", "Friday 2pm please, book it")
	assert.Equal(t, KindSlotTaken, res.Kind)
	assert.Equal(t, "Friday 02:00 PM", res.Slot)
	assert.Equal(t, "Friday 02:15 PM", res.Suggested)

	// прямой запрос при коллизии ничего не пишет
	assert.Nil(t, f.record("2002"))
	assert.Equal(t, "Friday 02:00 PM", f.record("1001").Time)
}

func TestConversation_CollisionWithLegacyFormat(t *testing.T) {
	f := newFixture(t)
	f.seed(model.Bookings{"5551234": {Time: "Friday 2:00 PM"}})

	res := f.say("2002", "book friday at 2pm")
	assert.Equal(t, KindSlotTaken, res.Kind)
}

func TestConversation_AlreadyBookedAndMove(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindBooked, f.say("1001", "book Friday at 2pm").Kind)
	require.Equal(t, KindEmailSkipped, f.say("1001", "skip").Kind)

	require.NoError(t, f.store.Update(context.Background(), func(bs model.Bookings) (bool, error) {
		bs["1001"].MarkReminderSent(model.ChannelChat, model.Lead24h)
		return true, nil
	}))

	res := f.say("1001", "book friday 2pm")
	assert.Equal(t, KindAlreadyBooked, res.Kind)
	assert.True(t, f.record("1001").ReminderSentChat24, "same slot keeps flags")

	res = f.say("1001", "book saturday 11am")
	assert.Equal(t, KindBooked, res.Kind)
	rec := f.record("1001")
	assert.Equal(t, "Saturday 11:00 AM", rec.Time)
	assert.False(t, rec.ReminderSentChat24)
}

func TestConversation_CancelTwice(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindBooked, f.say("1001", "book Friday at 2pm").Kind)
	require.Equal(t, KindEmailSaved, f.say("1001", "jane@example.com").Kind)

	res := f.say("1001", "cancel my appointment")
	assert.Equal(t, KindCancelled, res.Kind)
	assert.Equal(t, "Friday 02:00 PM", res.Slot)

	rec := f.record("1001")
	require.NotNil(t, rec)
	assert.False(t, rec.HasSlot())
	assert.Equal(t, "jane@example.com", rec.Email)

	assert.Equal(t, KindNothingToCancel, f.say("1001", "cancel").Kind)

	// слот снова свободен
	assert.Equal(t, KindBooked, f.say("2002", "book friday 2pm").Kind)
}

func TestConversation_CancelDuringEmailPrompt(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindBooked, f.say("1001", "book Friday at 2pm").Kind)

	assert.Equal(t, KindCancelled, f.say("1001", "cancel").Kind)
	// запись без данных удаляется целиком
	assert.Nil(t, f.record("1001"))
}

func TestConversation_MenuFlow(t *testing.T) {
	f := newFixture(t)

	res := f.say("1001", "I'd like to book an appointment")
	require.Equal(t, KindMenuOffered, res.Kind)
	assert.Equal(t, []string{
		"Wednesday 11:00 AM",
		"Wednesday 12:00 PM",
		"Wednesday 01:00 PM",
		"Wednesday 02:00 PM",
		"Wednesday 03:00 PM",
	}, res.Slots)

	rec := f.record("1001")
	require.NotNil(t, rec)
	assert.True(t, rec.AwaitingSelection)
	assert.Equal(t, res.Slots, rec.ShownSlots)

	res = f.say("1001", "2")
	assert.Equal(t, KindBooked, res.Kind)
	assert.Equal(t, "Wednesday 12:00 PM", res.Slot)

	rec = f.record("1001")
	assert.Equal(t, "Wednesday 12:00 PM", rec.Time)
	assert.False(t, rec.AwaitingSelection)
	assert.Empty(t, rec.ShownSlots)
}

func TestConversation_MenuSurvivesRestart(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindMenuOffered, f.say("1001", "book an appointment").Kind)

	// новый экземпляр сервисов поверх того же хранилища
	other := NewConversationService(
		NewBookingService(f.store, f.parser, model.DefaultPolicy(), zap.NewNop()),
		f.parser, zap.NewNop())

	res := other.HandleMessage(context.Background(), "1001", "3")
	assert.Equal(t, KindBooked, res.Kind)
	assert.Equal(t, "Wednesday 01:00 PM", res.Slot)
}

func TestConversation_MenuExcludesTaken(t *testing.T) {
	f := newFixture(t)
	f.seed(model.Bookings{"2002": {Time: "Wednesday 11:00 AM"}})

	res := f.say("1001", "book an appointment")
	require.Equal(t, KindMenuOffered, res.Kind)
	assert.Equal(t, "Wednesday 12:00 PM", res.Slots[0])
	assert.NotContains(t, res.Slots, "Wednesday 11:00 AM")
}

func TestConversation_MenuFilteredByDay(t *testing.T) {
	f := newFixture(t)

	res := f.say("1001", "any slots on Friday?")
	require.Equal(t, KindMenuOffered, res.Kind)
	assert.Equal(t, []string{
		"Friday 09:00 AM",
		"Friday 10:00 AM",
		"Friday 11:00 AM",
		"Friday 12:00 PM",
		"Friday 01:00 PM",
	}, res.Slots)
}

func TestConversation_MenuFreeTextAndInvalidSelection(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindMenuOffered, f.say("1001", "book an appointment").Kind)

	res := f.say("1001", "9")
	assert.Equal(t, KindInvalidSelection, res.Kind)
	assert.Len(t, res.Slots, 5)
	assert.True(t, f.record("1001").AwaitingSelection)

	res = f.say("1001", "actually thursday at 4:20pm")
	assert.Equal(t, KindBooked, res.Kind)
	assert.Equal(t, "Thursday 04:15 PM", res.Slot)
}

func TestConversation_MenuFirstNumberPicks(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindMenuOffered, f.say("1001", "book an appointment").Kind)

	res := f.say("1001", "2 please")
	assert.Equal(t, KindBooked, res.Kind)
	assert.Equal(t, "Wednesday 12:00 PM", res.Slot)
	assert.False(t, f.record("1001").AwaitingSelection)
}

func TestConversation_MenuAskNewDay(t *testing.T) {
	for _, text := range []string{"different day", "Another day please", "some other day", "a new day", "different time?"} {
		t.Run(text, func(t *testing.T) {
			f := newFixture(t)
			offered := f.say("1001", "book an appointment")
			require.Equal(t, KindMenuOffered, offered.Kind)

			res := f.say("1001", text)
			assert.Equal(t, KindAskNewDay, res.Kind)
			assert.Equal(t, offered.Slots, res.Slots)

			rec := f.record("1001")
			require.NotNil(t, rec)
			assert.True(t, rec.AwaitingSelection)
			assert.Equal(t, offered.Slots, rec.ShownSlots)
		})
	}
}

func TestConversation_LookupKeepsMenu(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindMenuOffered, f.say("1001", "any openings on thursday?").Kind)

	assert.Equal(t, KindNoBooking, f.say("1001", "when is my appointment?").Kind)
	rec := f.record("1001")
	require.NotNil(t, rec)
	assert.True(t, rec.AwaitingSelection)

	res := f.say("1001", "2")
	assert.Equal(t, KindBooked, res.Kind)
	assert.Equal(t, "Thursday 10:00 AM", res.Slot)
}

func TestConversation_DayWithoutTimeIsNotBooked(t *testing.T) {
	f := newFixture(t)

	res := f.say("1001", "book for 3 people on friday")
	assert.NotEqual(t, KindBooked, res.Kind)
	assert.Equal(t, KindMenuOffered, res.Kind)
	assert.Equal(t, "Friday 09:00 AM", res.Slots[0])

	rec := f.record("1001")
	require.NotNil(t, rec)
	assert.False(t, rec.HasSlot())
}

func TestConversation_MenuAutoExit(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindMenuOffered, f.say("1001", "book an appointment").Kind)

	res := f.say("1001", "hello")
	assert.Equal(t, KindGreeting, res.Kind)
	assert.Nil(t, f.record("1001"), "empty record is dropped on exit")
}

func TestConversation_MenuReoffer(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindMenuOffered, f.say("1001", "book an appointment").Kind)

	res := f.say("1001", "what about friday, any openings?")
	require.Equal(t, KindMenuOffered, res.Kind)
	assert.Equal(t, "Friday 09:00 AM", res.Slots[0])
	assert.Equal(t, res.Slots, f.record("1001").ShownSlots)
}

func TestConversation_MenuCollisionRefreshesMenu(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindMenuOffered, f.say("1001", "book an appointment").Kind)

	// другой пользователь успевает занять первый пункт
	require.Equal(t, KindBooked, f.say("2002", "book wednesday 11am").Kind)

	res := f.say("1001", "1")
	assert.Equal(t, KindSlotTaken, res.Kind)
	assert.Equal(t, "Wednesday 11:00 AM", res.Slot)
	assert.Equal(t, "Wednesday 11:15 AM", res.Suggested)
	assert.NotContains(t, res.Slots, "Wednesday 11:00 AM")
	assert.Equal(t, "Wednesday 04:00 PM", res.Slots[len(res.Slots)-1])

	rec := f.record("1001")
	assert.True(t, rec.AwaitingSelection)
	assert.False(t, rec.HasSlot())
	assert.Equal(t, res.Slots, rec.ShownSlots)
}

func TestConversation_NoSlots(t *testing.T) {
	policy := model.DefaultPolicy()
	policy.DaysAhead = 1
	f := newFixtureWithPolicy(t, policy)
	f.setNow(time.Date(2024, time.May, 15, 16, 30, 0, 0, time.UTC))

	assert.Equal(t, KindNoSlots, f.say("1001", "book an appointment").Kind)
	assert.Nil(t, f.record("1001"))
}

func TestConversation_Lookup(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, KindNoBooking, f.say("1001", "do I have an appointment?").Kind)

	f.seed(model.Bookings{"1001": {Time: "Friday 2:00 PM"}})
	res := f.say("1001", "when is my appointment?")
	assert.Equal(t, KindBookingFound, res.Kind)
	assert.Equal(t, "Friday 02:00 PM", res.Slot)
}

func TestConversation_Reschedule(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, KindNothingToReschedule, f.say("1001", "reschedule").Kind)

	f.seed(model.Bookings{"1001": {Time: "Friday 02:00 PM", Email: "jane@example.com"}})

	res := f.say("1001", "reschedule please")
	require.Equal(t, KindMenuOffered, res.Kind)
	assert.Equal(t, "Friday 02:00 PM", res.Previous)
	rec := f.record("1001")
	assert.False(t, rec.HasSlot())
	assert.True(t, rec.AwaitingSelection)

	res = f.say("1001", "2")
	assert.Equal(t, KindBooked, res.Kind)
	assert.False(t, res.AskEmail)
}

func TestConversation_RescheduleWithTime(t *testing.T) {
	f := newFixture(t)
	f.seed(model.Bookings{
		"1001": {Time: "Friday 02:00 PM", Email: "jane@example.com"},
		"2002": {Time: "Saturday 10:00 AM"},
	})

	// занято: старая бронь остаётся
	res := f.say("1001", "can I move my appointment to saturday 10am?")
	assert.Equal(t, KindSlotTaken, res.Kind)
	assert.Equal(t, "Friday 02:00 PM", f.record("1001").Time)

	res = f.say("1001", "reschedule to saturday 11am")
	assert.Equal(t, KindBooked, res.Kind)
	assert.Equal(t, "Saturday 11:00 AM", res.Slot)
	assert.Equal(t, "Friday 02:00 PM", res.Previous)
	assert.Equal(t, "Saturday 11:00 AM", f.record("1001").Time)
}

func TestConversation_OtherKinds(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, KindGreeting, f.say("1001", "hi").Kind)
	assert.Equal(t, KindUnrecognized, f.say("1001", "what are your prices").Kind)
	assert.Equal(t, KindNotUnderstood, f.say("1001", "book me at 25:00").Kind)
	assert.Nil(t, f.record("1001"))
}

func TestConversation_StoreUnavailable(t *testing.T) {
	parser := slot.NewParser(slot.WithClock(func() time.Time { return refNow }))
	conv := NewConversationService(
		NewBookingService(failingStore{}, parser, model.DefaultPolicy(), zap.NewNop()),
		parser, zap.NewNop())

	res := conv.HandleMessage(context.Background(), "1001", "book friday 2pm")
	assert.Equal(t, KindStoreUnavailable, res.Kind)
}

func TestConversation_Commands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, KindNoBooking, f.conv.Lookup(ctx, "1001").Kind)
	assert.Equal(t, KindNothingToCancel, f.conv.Cancel(ctx, "1001").Kind)

	require.Equal(t, KindBooked, f.say("1001", "book monday 9am").Kind)
	res := f.conv.Lookup(ctx, "1001")
	assert.Equal(t, KindBookingFound, res.Kind)
	assert.Equal(t, "Monday 09:00 AM", res.Slot)

	// просмотр не сбрасывает запрос email
	assert.True(t, f.record("1001").AwaitingEmail)

	assert.Equal(t, KindCancelled, f.conv.Cancel(ctx, "1001").Kind)
}
