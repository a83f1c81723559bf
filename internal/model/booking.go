package model

import "time"

// Channel канал доставки напоминаний
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
)

// LeadWindow за сколько до встречи отправляется напоминание
type LeadWindow time.Duration

const (
	Lead24h LeadWindow = LeadWindow(24 * time.Hour)
	Lead1h  LeadWindow = LeadWindow(time.Hour)
)

// LeadWindows окна напоминаний в порядке проверки
var LeadWindows = []LeadWindow{Lead24h, Lead1h}

// Duration длительность окна
func (w LeadWindow) Duration() time.Duration {
	return time.Duration(w)
}

// ConversationState состояние диалога, вычисляется из флагов записи
type ConversationState string

const (
	StateIdle          ConversationState = "idle"
	StateMenuOffered   ConversationState = "menu_offered"
	StateAwaitingEmail ConversationState = "awaiting_email"
)

// Booking запись пользователя в хранилище. Ключ записи это идентификатор пользователя.
// Имена JSON-полей совместимы со старым форматом файла bookings.json.
type Booking struct {
	Time                string     `json:"time,omitempty"` // каноническая строка слота, пусто = нет брони
	Email               string     `json:"email,omitempty"`
	AwaitingSelection   bool       `json:"awaiting_selection"`
	AwaitingEmail       bool       `json:"awaiting_email"`
	ShownSlots          []string   `json:"shown_slots,omitempty"` // последнее показанное меню
	ReminderSentChat24  bool       `json:"reminder_sent_sms_24"`
	ReminderSentChat1   bool       `json:"reminder_sent_sms_1"`
	ReminderSentEmail24 bool       `json:"reminder_sent_email_24"`
	ReminderSentEmail1  bool       `json:"reminder_sent_email_1"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}

// Bookings все записи по идентификатору пользователя
type Bookings map[string]*Booking

// HasSlot есть ли активная бронь
func (b *Booking) HasSlot() bool {
	return b != nil && b.Time != ""
}

// State текущее состояние диалога
func (b *Booking) State() ConversationState {
	switch {
	case b == nil:
		return StateIdle
	case b.AwaitingEmail:
		return StateAwaitingEmail
	case b.AwaitingSelection:
		return StateMenuOffered
	default:
		return StateIdle
	}
}

// SetSlot выставляет слот и сбрасывает флаги напоминаний
func (b *Booking) SetSlot(slot string) {
	if b.Time != slot {
		b.ResetReminders()
	}
	b.Time = slot
}

// ClearSlot снимает бронь
func (b *Booking) ClearSlot() {
	b.Time = ""
	b.ResetReminders()
}

// ClearMenu выходит из режима выбора слота
func (b *Booking) ClearMenu() {
	b.AwaitingSelection = false
	b.ShownSlots = nil
}

// ResetReminders сбрасывает все флаги доставки
func (b *Booking) ResetReminders() {
	b.ReminderSentChat24 = false
	b.ReminderSentChat1 = false
	b.ReminderSentEmail24 = false
	b.ReminderSentEmail1 = false
}

// IsBlank запись не несёт никаких данных и её можно удалить
func (b *Booking) IsBlank() bool {
	return !b.HasSlot() && b.Email == "" && !b.AwaitingSelection && !b.AwaitingEmail && len(b.ShownSlots) == 0
}

// ReminderSent отправлено ли напоминание по каналу для окна
func (b *Booking) ReminderSent(ch Channel, w LeadWindow) bool {
	if flag := b.reminderFlag(ch, w); flag != nil {
		return *flag
	}
	return false
}

// MarkReminderSent помечает напоминание отправленным
func (b *Booking) MarkReminderSent(ch Channel, w LeadWindow) {
	if flag := b.reminderFlag(ch, w); flag != nil {
		*flag = true
	}
}

func (b *Booking) reminderFlag(ch Channel, w LeadWindow) *bool {
	switch {
	case ch == ChannelChat && w == Lead24h:
		return &b.ReminderSentChat24
	case ch == ChannelChat && w == Lead1h:
		return &b.ReminderSentChat1
	case ch == ChannelEmail && w == Lead24h:
		return &b.ReminderSentEmail24
	case ch == ChannelEmail && w == Lead1h:
		return &b.ReminderSentEmail1
	}
	return nil
}

// Touch обновляет время изменения
func (b *Booking) Touch(now time.Time) {
	t := now.UTC().Truncate(time.Second)
	b.UpdatedAt = &t
}

// Clone глубокая копия записи
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.ShownSlots != nil {
		c.ShownSlots = append([]string(nil), b.ShownSlots...)
	}
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// Clone глубокая копия всех записей
func (bs Bookings) Clone() Bookings {
	out := make(Bookings, len(bs))
	for id, b := range bs {
		out[id] = b.Clone()
	}
	return out
}

// Get возвращает запись пользователя, создавая пустую при отсутствии
func (bs Bookings) Get(userID string) *Booking {
	b, ok := bs[userID]
	if !ok || b == nil {
		b = &Booking{}
		bs[userID] = b
	}
	return b
}
