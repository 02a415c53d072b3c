package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonbooker/salonbooker/internal/events"
	"github.com/salonbooker/salonbooker/internal/hours"
)

const (
	uniqueViolation       = "23505"
	slotConstraint        = "bookings_active_slot_idx"
	idempotencyConstraint = "bookings_idempotency_idx"
)

const bookingColumns = `id::text, salon_id, customer_name, customer_phone, COALESCE(customer_email, ''),
		service_name, service_duration, staff_name, to_char(booking_date, 'YYYY-MM-DD'),
		to_char(booking_time, 'HH24:MI'), COALESCE(notes, ''), status, COALESCE(idempotency_key, ''), created_at`

type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Event is an outbox entry written in the same transaction as the booking.
type Event struct {
	Type    string
	Payload any
}

// Repository provides persistence helpers for bookings.
type Repository struct {
	db dbConn
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithConn(db dbConn) *Repository {
	if db == nil {
		panic("bookings: db required")
	}
	return &Repository{db: db}
}

// BookedTimes returns the HH:MM times of non-cancelled bookings on date.
func (r *Repository) BookedTimes(ctx context.Context, salonID string, date time.Time) ([]string, error) {
	query := `
		SELECT to_char(booking_time, 'HH24:MI')
		FROM bookings
		WHERE salon_id = $1 AND booking_date = $2::date AND status <> $3
	`
	rows, err := r.db.Query(ctx, query, salonID, hours.FormatDate(date), StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("bookings: booked times: %w", err)
	}
	defer rows.Close()

	times := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("bookings: scan booked time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// Create inserts the booking and its outbox events atomically.
func (r *Repository) Create(ctx context.Context, b *Booking, evts ...Event) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bookings: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
		INSERT INTO bookings (id, salon_id, customer_name, customer_phone, customer_email,
			service_name, service_duration, staff_name, booking_date, booking_time,
			notes, status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9::date, $10::time, NULLIF($11, ''), $12, NULLIF($13, ''), $14)
	`
	_, err = tx.Exec(ctx, query,
		b.ID, b.SalonID, b.CustomerName, b.CustomerPhone, b.CustomerEmail,
		b.ServiceName, b.ServiceDuration, b.StaffName, b.BookingDate, b.BookingTime,
		b.Notes, b.Status, b.IdempotencyKey, b.CreatedAt,
	)
	if err != nil {
		return mapInsertError(err)
	}

	for _, evt := range evts {
		if _, err = events.InsertEvent(ctx, tx, b.SalonID, evt.Type, evt.Payload); err != nil {
			return fmt.Errorf("bookings: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("bookings: commit: %w", err)
	}
	return nil
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case slotConstraint:
			return ErrSlotTaken
		case idempotencyConstraint:
			return ErrDuplicateKey
		}
	}
	return fmt.Errorf("bookings: insert: %w", err)
}

// GetByIdempotencyKey returns the booking created with key, or ErrNotFound.
func (r *Repository) GetByIdempotencyKey(ctx context.Context, salonID, key string) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE salon_id = $1 AND idempotency_key = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, salonID, key))
}

// Get returns a booking scoped to the salon.
func (r *Repository) Get(ctx context.Context, salonID, id string) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE salon_id = $1 AND id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, salonID, id))
}

// ListByDate returns every booking on date ordered by time, cancelled included.
func (r *Repository) ListByDate(ctx context.Context, salonID string, date time.Time) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE salon_id = $1 AND booking_date = $2::date
		ORDER BY booking_time, created_at`
	rows, err := r.db.Query(ctx, query, salonID, hours.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	var list []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Cancel marks an active booking cancelled and queues evts in the same
// transaction. Unknown or already cancelled bookings yield ErrNotFound.
func (r *Repository) Cancel(ctx context.Context, salonID, id string, evts ...Event) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bookings: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
		UPDATE bookings
		SET status = $3, updated_at = now()
		WHERE salon_id = $1 AND id = $2 AND status <> $3
	`
	ct, err := tx.Exec(ctx, query, salonID, id, StatusCancelled)
	if err != nil {
		return fmt.Errorf("bookings: cancel: %w", err)
	}
	if ct.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}
	for _, evt := range evts {
		if _, err = events.InsertEvent(ctx, tx, salonID, evt.Type, evt.Payload); err != nil {
			return fmt.Errorf("bookings: %w", err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("bookings: commit: %w", err)
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*Booking, error) {
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.SalonID, &b.CustomerName, &b.CustomerPhone, &b.CustomerEmail,
		&b.ServiceName, &b.ServiceDuration, &b.StaffName, &b.BookingDate,
		&b.BookingTime, &b.Notes, &b.Status, &b.IdempotencyKey, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("bookings: scan: %w", err)
	}
	return &b, nil
}
