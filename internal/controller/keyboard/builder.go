package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Callback data кнопок меню
const (
	PickPrefix = "pick:" // pick:2, номер пункта меню с единицы
	BookPrefix = "book:" // book:Friday 02:15 PM, предложенный слот
	Noop       = "noop"
)

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

// NewBuilder создаёт новый builder клавиатуры
func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Len количество рядов
func (b *Builder) Len() int {
	return len(b.rows)
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// Build создаёт финальную клавиатуру
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// Empty возвращает пустую клавиатуру (без кнопок)
func Empty() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{},
	}
}

// Menu по кнопке на каждый показанный слот
func Menu(slots []string) *models.InlineKeyboardMarkup {
	kb := NewBuilder()
	for i, s := range slots {
		kb.Row(Button("🕒 "+s, PickData(i+1)))
	}
	return kb.Build()
}

// PickData callback data для пункта меню
func PickData(index int) string {
	return PickPrefix + strconv.Itoa(index)
}

// BookData callback data для предложенного слота.
// Telegram ограничивает callback data 64 байтами, канонический слот всегда короче.
func BookData(slot string) string {
	return BookPrefix + slot
}

// ParsePick извлекает номер пункта из "pick:N"
func ParsePick(data string) (int, error) {
	raw, ok := strings.CutPrefix(data, PickPrefix)
	if !ok {
		return 0, fmt.Errorf("not a pick callback: %q", data)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid pick index %q", raw)
	}
	return n, nil
}
