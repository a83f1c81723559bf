package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"hi", SmallTalk},
		{"Hello!", SmallTalk},
		{"thank you", SmallTalk},

		{"cancel", Cancel},
		{"Please cancel my appointment", Cancel},
		{"drop it", Cancel},

		{"reschedule", Reschedule},
		{"can I move my appointment to friday?", Reschedule},
		{"change the time please", Reschedule},
		{"I need to rebook", Reschedule},

		{"do I have an appointment?", Lookup},
		{"when is my appointment", Lookup},
		{"what time am I booked", Lookup},
		{"am I currently on the appt list", Lookup},

		{"any slots on Friday?", CheckDay},
		{"anything available tomorrow", CheckDay},
		{"free on monday?", CheckDay},
		{"what's available?", CheckDay},

		{"book Friday at 2pm", Book},
		{"I'd like an appointment", Book},
		{"tomorrow 3 pm", Book},
		{"friday 2pm", Book},
		{"is friday 2pm free?", Book},
		{"pencil me in", Book},
		{"any slots friday at 3pm?", Book},

		{"", Other},
		{"2", Other},
		{"what are your prices", Other},
		{"a@example.com", Other},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestIsBookingRelated(t *testing.T) {
	assert.True(t, Book.IsBookingRelated())
	assert.True(t, CheckDay.IsBookingRelated())
	assert.False(t, Lookup.IsBookingRelated())
	assert.False(t, Other.IsBookingRelated())
}

func TestMentionsTime(t *testing.T) {
	for _, text := range []string{"at 7", "5pm", "10:30", "noon", "Friday 9.45"} {
		assert.True(t, MentionsTime(text), text)
	}
	for _, text := range []string{"2", "option 3", "book friday", ""} {
		assert.False(t, MentionsTime(text), text)
	}
}
