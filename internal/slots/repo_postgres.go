package slots

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"booking-platform/pkg/utils"
)

// PostgresRepo persists the slot calendar in the slots table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) InsertMissing(ctx context.Context, in []Slot) (int, error) {
	if len(in) == 0 {
		return 0, nil
	}

	// ON CONFLICT (start_at) DO NOTHING makes generation idempotent across
	// overlapping ranges; RowsAffected counts only the new rows.
	const q = `
INSERT INTO slots (id, start_at, end_at, is_enabled, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (start_at) DO NOTHING
`
	inserted := 0
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, sl := range in {
			res, err := stmt.ExecContext(ctx, sl.ID, sl.StartAt, sl.EndAt, sl.Enabled, sl.CreatedAt, sl.UpdatedAt)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Slot, error) {
	const q = `
SELECT id, start_at, end_at, is_enabled, created_at, updated_at
FROM slots
WHERE id = $1
`
	var out Slot
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&out.ID,
		&out.StartAt,
		&out.EndAt,
		&out.Enabled,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Slot{}, ErrNotFound
		}
		return Slot{}, err
	}
	return out, nil
}

func (r *PostgresRepo) SetEnabled(ctx context.Context, id string, enabled bool, at time.Time) error {
	const q = `
UPDATE slots
SET is_enabled = $2, updated_at = $3
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, id, enabled, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListWindow(ctx context.Context, from, to time.Time) ([]Slot, error) {
	const q = `
SELECT id, start_at, end_at, is_enabled, created_at, updated_at
FROM slots
WHERE is_enabled = TRUE AND start_at >= $1 AND start_at < $2
ORDER BY start_at
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var sl Slot
		if err := rows.Scan(&sl.ID, &sl.StartAt, &sl.EndAt, &sl.Enabled, &sl.CreatedAt, &sl.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}
