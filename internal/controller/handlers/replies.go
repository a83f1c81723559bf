package handlers

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/controller/keyboard"
	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/go-telegram/bot/models"
)

const askEmailText = "📧 Want an email reminder too? Reply with your email address, or \"skip\"."

// Render превращает результат автомата в текст и клавиатуру
func Render(res service.Result) (string, *models.InlineKeyboardMarkup) {
	switch res.Kind {
	case service.KindBooked:
		var sb strings.Builder
		if res.Previous != "" {
			fmt.Fprintf(&sb, "🔄 Moved your appointment from %s to %s.", res.Previous, res.Slot)
		} else {
			fmt.Fprintf(&sb, "Awesome! You're booked for %s. ✅", res.Slot)
		}
		sb.WriteString("\nI'll remind you a day before and an hour before.")
		if res.AskEmail {
			sb.WriteString("\n\n" + askEmailText)
		}
		return sb.String(), nil

	case service.KindAlreadyBooked:
		return fmt.Sprintf("👍 You're already booked for %s.", res.Slot), nil

	case service.KindSlotTaken:
		var sb strings.Builder
		fmt.Fprintf(&sb, "😕 Sorry, %s is already taken.", res.Slot)
		if res.Previous != "" {
			fmt.Fprintf(&sb, " Your appointment stays at %s.", res.Previous)
		}
		kb := keyboard.NewBuilder()
		if res.Suggested != "" {
			fmt.Fprintf(&sb, "\nThe nearest free time is %s.", res.Suggested)
			kb.Row(keyboard.Button("✅ Book "+res.Suggested, keyboard.BookData(res.Suggested)))
		}
		if len(res.Slots) > 0 {
			sb.WriteString("\n\nOther options:\n" + menuLines(res.Slots))
			for i, s := range res.Slots {
				kb.Row(keyboard.Button("🕒 "+s, keyboard.PickData(i+1)))
			}
		}
		if kb.Len() == 0 {
			return sb.String(), nil
		}
		return sb.String(), kb.Build()

	case service.KindMenuOffered:
		var sb strings.Builder
		if res.Previous != "" {
			fmt.Fprintf(&sb, "🗓 Your appointment at %s was cancelled.\n\n", res.Previous)
		}
		sb.WriteString("I'd love to help! Please choose a time:\n")
		sb.WriteString(menuLines(res.Slots))
		sb.WriteString("\n(Reply with the number!)")
		return sb.String(), keyboard.Menu(res.Slots)

	case service.KindNoSlots:
		return "Sorry, there are no available times right now. Please try another day.", nil

	case service.KindAskNewDay:
		return "No problem! Which day works better for you? You can still pick a number from the list.", keyboard.Menu(res.Slots)

	case service.KindInvalidSelection:
		text := "Sorry, I didn't understand that. Please reply with the number of the time you'd like!\n" +
			menuLines(res.Slots)
		return text, keyboard.Menu(res.Slots)

	case service.KindCancelled:
		return fmt.Sprintf("❌ Your appointment on %s has been cancelled.", res.Slot), nil

	case service.KindNothingToCancel:
		return "You don't have an appointment to cancel.", nil

	case service.KindNothingToReschedule:
		return "You don't have an appointment to reschedule yet. Want to book one?", nil

	case service.KindBookingFound:
		return fmt.Sprintf("📅 Your appointment is on %s.", res.Slot), nil

	case service.KindNoBooking:
		return "You don't have any appointments booked.", nil

	case service.KindEmailSaved:
		return fmt.Sprintf("📧 Thanks! I'll also email reminders to %s.", res.Email), nil

	case service.KindEmailSkipped:
		return "No problem, I'll remind you here in the chat.", nil

	case service.KindEmailInvalid:
		return "That doesn't look like an email address. Reply with your email, or \"skip\".", nil

	case service.KindGreeting:
		return "👋 Hi there! I can book, reschedule, check or cancel appointments. " +
			"Try \"book Friday at 2pm\".", nil

	case service.KindNotUnderstood:
		return "🤔 I couldn't work out that time. Try something like \"Friday 2pm\" or \"tomorrow at 10:30\".", nil

	case service.KindStoreUnavailable:
		return "⚠️ Something went wrong on our side. Please try again in a minute.", nil
	}

	return "❓ Sorry, I didn't understand that. You can say \"book Friday at 2pm\", " +
		"\"what's available?\" or \"cancel\".", nil
}

func menuLines(slots []string) string {
	lines := make([]string, len(slots))
	for i, s := range slots {
		lines[i] = fmt.Sprintf("🕒 %d) %s", i+1, s)
	}
	return strings.Join(lines, "\n")
}
