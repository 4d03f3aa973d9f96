package summary

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const summaryColumns = `session_id, summary_text, booked_appointments, preferences, model, COALESCE(generation_ms, 0), created_at, updated_at`

func scanSummary(row interface{ Scan(...any) error }) (Summary, error) {
	var s Summary
	err := row.Scan(
		&s.SessionID, &s.SummaryText, &s.BookedAppointments, &s.Preferences,
		&s.Model, &s.GenerationMs, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *PostgresRepo) Upsert(ctx context.Context, s Summary) (Summary, error) {
	const q = `
		INSERT INTO call_summaries (session_id, summary_text, booked_appointments, preferences, model, generation_ms, created_at, updated_at)
		VALUES ($1, $2, COALESCE($3, '[]'::jsonb), COALESCE($4, '{}'::jsonb), $5, NULLIF($6, 0), $7, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			summary_text        = EXCLUDED.summary_text,
			booked_appointments = EXCLUDED.booked_appointments,
			preferences         = EXCLUDED.preferences,
			model               = EXCLUDED.model,
			generation_ms       = EXCLUDED.generation_ms,
			updated_at          = EXCLUDED.updated_at
		RETURNING ` + summaryColumns
	return scanSummary(r.db.QueryRowContext(ctx, q,
		s.SessionID, s.SummaryText, []byte(s.BookedAppointments), []byte(s.Preferences),
		s.Model, s.GenerationMs, s.UpdatedAt,
	))
}

func (r *PostgresRepo) Get(ctx context.Context, sessionID string) (Summary, error) {
	const q = `SELECT ` + summaryColumns + ` FROM call_summaries WHERE session_id = $1`
	s, err := scanSummary(r.db.QueryRowContext(ctx, q, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, ErrNotFound
	}
	return s, err
}
