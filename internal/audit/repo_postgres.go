package audit

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
		INSERT INTO tool_events (id, session_id, tool, input, output, ok, error_message, created_at)
		VALUES ($1, $2, $3, COALESCE($4, '{}'::jsonb), COALESCE($5, '{}'::jsonb), $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.SessionID, e.Tool, []byte(e.Input), []byte(e.Output),
		e.OK, e.ErrorMessage, e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) ListBySession(ctx context.Context, sessionID string) ([]Event, error) {
	const q = `
		SELECT id, session_id, tool, input, output, ok, error_message, created_at
		FROM tool_events
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Tool, &e.Input, &e.Output, &e.OK, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
