package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"booking-platform/internal/slots"
	"booking-platform/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

// slotBookedConstraint is the partial unique index enforcing the exclusivity
// invariant; see migrations/001_init.sql.
const slotBookedConstraint = "appointments_slot_booked_uniq"

// PostgresRepo persists appointments in the appointments table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const appointmentColumns = `
id, contact_number, slot_id, status, start_at, end_at, title, notes,
COALESCE(source_session_id::text, ''), created_at, updated_at, cancelled_at
`

func scanAppointment(row interface{ Scan(...any) error }) (Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.ContactNumber,
		&a.SlotID,
		&a.Status,
		&a.StartAt,
		&a.EndAt,
		&a.Title,
		&a.Notes,
		&a.SourceSessionID,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.CancelledAt,
	)
	return a, err
}

func (r *PostgresRepo) Insert(ctx context.Context, a Appointment) error {
	const q = `
INSERT INTO appointments (
  id, contact_number, slot_id, status, start_at, end_at, title, notes,
  source_session_id, created_at, updated_at
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, $10, $11
)
`
	_, err := r.db.ExecContext(ctx, q,
		a.ID,
		a.ContactNumber,
		a.SlotID,
		a.Status,
		a.StartAt,
		a.EndAt,
		a.Title,
		a.Notes,
		a.SourceSessionID,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err, slotBookedConstraint) {
			return ErrSlotAlreadyBooked
		}
		return fmt.Errorf("booking: insert appointment: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	a, err := scanAppointment(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	return a, nil
}

func (r *PostgresRepo) Cancel(ctx context.Context, id string, at time.Time) (Appointment, error) {
	var out Appointment
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		lockQ := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 FOR UPDATE`
		a, err := scanAppointment(tx.QueryRowContext(ctx, lockQ, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if a.Status == StatusCancelled {
			// Idempotent: repeat cancellation is a no-op.
			out = a
			return nil
		}

		updQ := `
UPDATE appointments
SET status = $2, cancelled_at = $3, updated_at = $3
WHERE id = $1
RETURNING ` + appointmentColumns
		out, err = scanAppointment(tx.QueryRowContext(ctx, updQ, id, StatusCancelled, at))
		return err
	})
	if err != nil {
		return Appointment{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Reassign(ctx context.Context, id string, sl slots.Slot, at time.Time) (Appointment, error) {
	var out Appointment
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		lockQ := `SELECT status FROM appointments WHERE id = $1 FOR UPDATE`
		var status Status
		if err := tx.QueryRowContext(ctx, lockQ, id).Scan(&status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if status != StatusBooked {
			return ErrInvalidInput
		}

		// Snapshot the new slot's times; the partial unique index rejects the
		// move at commit when the target slot is already booked.
		updQ := `
UPDATE appointments
SET slot_id = $2, start_at = $3, end_at = $4, updated_at = $5
WHERE id = $1
RETURNING ` + appointmentColumns
		a, err := scanAppointment(tx.QueryRowContext(ctx, updQ, id, sl.ID, sl.StartAt, sl.EndAt, at))
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		if isConstraintViolation(err, slotBookedConstraint) {
			return Appointment{}, ErrSlotAlreadyBooked
		}
		return Appointment{}, err
	}
	return out, nil
}

func (r *PostgresRepo) ListByContact(ctx context.Context, q ContactQuery) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE contact_number = $1`
	args := []any{q.ContactNumber}

	if !q.IncludeCancelled {
		args = append(args, StatusBooked)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !q.From.IsZero() {
		args = append(args, q.From)
		query += fmt.Sprintf(" AND start_at >= $%d", len(args))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		query += fmt.Sprintf(" AND start_at < $%d", len(args))
	}
	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY start_at DESC LIMIT $%d", len(args))

	return r.list(ctx, query, args...)
}

func (r *PostgresRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
FROM appointments
WHERE source_session_id = $1
ORDER BY start_at
LIMIT $2`
	return r.list(ctx, query, sessionID, limit)
}

func (r *PostgresRepo) BookedSlotIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	const q = `
SELECT slot_id
FROM appointments
WHERE status = $1 AND start_at >= $2 AND start_at < $3
`
	rows, err := r.db.QueryContext(ctx, q, StatusBooked, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) list(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func isConstraintViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 23505 = unique_violation
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
