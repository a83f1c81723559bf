package repository

import (
	"context"
	"errors"

	"github.com/Freeeeeet/appointment_bot/internal/model"
)

// UpdateFunc изменяет свежезагруженные записи. Возвращает true, если что-то поменялось
// и состояние нужно сохранить. Ошибка отменяет запись.
type UpdateFunc func(bookings model.Bookings) (changed bool, err error)

// BookingStore единственный владелец сохранённого состояния
type BookingStore interface {
	// Load возвращает снимок всех записей
	Load(ctx context.Context) (model.Bookings, error)
	// Save полностью заменяет сохранённое состояние
	Save(ctx context.Context, bookings model.Bookings) error
	// Update выполняет цикл загрузка-изменение-сохранение атомарно относительно других Update
	Update(ctx context.Context, fn UpdateFunc) error
}

// ErrSlotConflict слот уже занят другой записью на уровне хранилища
var ErrSlotConflict = errors.New("slot already held by another record")
