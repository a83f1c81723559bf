package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// bookingsLockKey ключ advisory-блокировки, сериализующей циклы Update
const bookingsLockKey int64 = 0x626f6f6b696e6773

const selectBookings = `
	SELECT user_id, slot, email, awaiting_selection, awaiting_email, shown_slots,
	       reminder_sent_chat_24, reminder_sent_chat_1,
	       reminder_sent_email_24, reminder_sent_email_1, updated_at
	FROM bookings
`

const upsertBooking = `
	INSERT INTO bookings (
		user_id, slot, email, awaiting_selection, awaiting_email, shown_slots,
		reminder_sent_chat_24, reminder_sent_chat_1,
		reminder_sent_email_24, reminder_sent_email_1, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (user_id) DO UPDATE SET
		slot = EXCLUDED.slot,
		email = EXCLUDED.email,
		awaiting_selection = EXCLUDED.awaiting_selection,
		awaiting_email = EXCLUDED.awaiting_email,
		shown_slots = EXCLUDED.shown_slots,
		reminder_sent_chat_24 = EXCLUDED.reminder_sent_chat_24,
		reminder_sent_chat_1 = EXCLUDED.reminder_sent_chat_1,
		reminder_sent_email_24 = EXCLUDED.reminder_sent_email_24,
		reminder_sent_email_1 = EXCLUDED.reminder_sent_email_1,
		updated_at = EXCLUDED.updated_at
`

// PostgresStore хранит записи в таблице bookings
type PostgresStore struct {
	*base.Repository
	logger *zap.Logger
}

// NewPostgresStore создаёт хранилище поверх пула
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{Repository: base.NewRepository(pool), logger: logger}
}

// Load возвращает все записи
func (s *PostgresStore) Load(ctx context.Context) (model.Bookings, error) {
	return loadBookings(ctx, s.Pool())
}

// Save приводит таблицу к переданному состоянию
func (s *PostgresStore) Save(ctx context.Context, bookings model.Bookings) error {
	return s.InTx(ctx, func(tx pgx.Tx) error {
		current, err := lockAndLoad(ctx, tx)
		if err != nil {
			return err
		}
		return writeDiff(ctx, tx, current, bookings)
	})
}

// Update перечитывает таблицу под advisory-блокировкой, применяет fn и записывает изменения
func (s *PostgresStore) Update(ctx context.Context, fn UpdateFunc) error {
	return s.InTx(ctx, func(tx pgx.Tx) error {
		current, err := lockAndLoad(ctx, tx)
		if err != nil {
			return err
		}

		before := current.Clone()
		changed, err := fn(current)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		if err := writeDiff(ctx, tx, before, current); err != nil {
			return err
		}

		s.logger.Debug("Bookings updated", zap.Int("records", len(current)))
		return nil
	})
}

func lockAndLoad(ctx context.Context, tx pgx.Tx) (model.Bookings, error) {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", bookingsLockKey); err != nil {
		return nil, fmt.Errorf("lock bookings: %w", err)
	}
	return loadBookings(ctx, tx)
}

func loadBookings(ctx context.Context, q base.Querier) (model.Bookings, error) {
	rows, err := q.Query(ctx, selectBookings)
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}
	defer rows.Close()

	bookings := model.Bookings{}
	for rows.Next() {
		var (
			userID string
			slot   *string
			b      model.Booking
		)
		err := rows.Scan(
			&userID,
			&slot,
			&b.Email,
			&b.AwaitingSelection,
			&b.AwaitingEmail,
			&b.ShownSlots,
			&b.ReminderSentChat24,
			&b.ReminderSentChat1,
			&b.ReminderSentEmail24,
			&b.ReminderSentEmail1,
			&b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		if slot != nil {
			b.Time = *slot
		}
		if len(b.ShownSlots) == 0 {
			b.ShownSlots = nil
		}
		bookings[userID] = &b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// writeDiff записывает только изменившиеся строки
func writeDiff(ctx context.Context, tx pgx.Tx, before, after model.Bookings) error {
	for id := range before {
		if b, ok := after[id]; !ok || b == nil {
			if _, err := tx.Exec(ctx, "DELETE FROM bookings WHERE user_id = $1", id); err != nil {
				return fmt.Errorf("delete booking: %w", err)
			}
		}
	}

	var changed []string
	for id, b := range after {
		if b == nil {
			continue
		}
		if old, ok := before[id]; !ok || !reflect.DeepEqual(old, b) {
			changed = append(changed, id)
		}
	}
	sort.Strings(changed)

	// Сначала освобождаем старые слоты, чтобы обмен слотами внутри одного Update
	// не упёрся в уникальный индекс
	for _, id := range changed {
		old, ok := before[id]
		if !ok || old.Time == "" || old.Time == after[id].Time {
			continue
		}
		if _, err := tx.Exec(ctx, "UPDATE bookings SET slot = NULL WHERE user_id = $1", id); err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
	}

	for _, id := range changed {
		b := after[id]
		shown := b.ShownSlots
		if shown == nil {
			shown = []string{}
		}
		_, err := tx.Exec(ctx, upsertBooking,
			id,
			nullIfEmpty(b.Time),
			b.Email,
			b.AwaitingSelection,
			b.AwaitingEmail,
			shown,
			b.ReminderSentChat24,
			b.ReminderSentChat1,
			b.ReminderSentEmail24,
			b.ReminderSentEmail1,
			b.UpdatedAt,
		)
		if err != nil {
			if base.IsUniqueViolation(err) {
				return fmt.Errorf("upsert booking %s: %w", id, ErrSlotConflict)
			}
			return fmt.Errorf("upsert booking: %w", err)
		}
	}

	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
