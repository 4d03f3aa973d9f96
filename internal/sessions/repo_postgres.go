package sessions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"booking-platform/pkg/utils"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const sessionColumns = `id, room_name, COALESCE(contact_number, ''), status, metadata, started_at, ended_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var (
		s       Session
		endedAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.RoomName, &s.ContactNumber, &s.Status, &s.Metadata, &s.StartedAt, &endedAt)
	if err != nil {
		return Session{}, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return s, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, s Session) error {
	const q = `
		INSERT INTO call_sessions (id, room_name, contact_number, status, metadata, started_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, COALESCE($5, '{}'::jsonb), $6)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.RoomName, s.ContactNumber, s.Status, []byte(s.Metadata), s.StartedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM call_sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

func (r *PostgresRepo) SetContact(ctx context.Context, id, contactNumber string) (Session, error) {
	const q = `
		UPDATE call_sessions
		SET contact_number = $2
		WHERE id = $1
		RETURNING ` + sessionColumns
	s, err := scanSession(r.db.QueryRowContext(ctx, q, id, contactNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

// Close flips active sessions to ended. Already ended sessions are left
// untouched so ended_at is never restamped.
func (r *PostgresRepo) Close(ctx context.Context, id string, at time.Time) (Session, error) {
	var out Session
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const lock = `SELECT ` + sessionColumns + ` FROM call_sessions WHERE id = $1 FOR UPDATE`
		cur, err := scanSession(tx.QueryRowContext(ctx, lock, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if cur.Status == StatusEnded {
			out = cur
			return nil
		}

		const q = `
			UPDATE call_sessions
			SET status = $2, ended_at = $3
			WHERE id = $1
			RETURNING ` + sessionColumns
		out, err = scanSession(tx.QueryRowContext(ctx, q, id, StatusEnded, at))
		return err
	})
	if err != nil {
		return Session{}, err
	}
	return out, nil
}

// AppendMessage inserts under a row lock on the parent session so a
// concurrent Close cannot slip a message into an ended transcript.
func (r *PostgresRepo) AppendMessage(ctx context.Context, m Message) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const lock = `SELECT status FROM call_sessions WHERE id = $1 FOR UPDATE`
		var status Status
		err := tx.QueryRowContext(ctx, lock, m.SessionID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if status == StatusEnded {
			return ErrSessionClosed
		}

		const q = `
			INSERT INTO call_messages (id, session_id, role, content, meta, created_at)
			VALUES ($1, $2, $3, $4, COALESCE($5, '{}'::jsonb), $6)`
		_, err = tx.ExecContext(ctx, q, m.ID, m.SessionID, m.Role, m.Content, []byte(m.Meta), m.CreatedAt)
		return err
	})
}

func (r *PostgresRepo) ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	const q = `
		SELECT id, session_id, role, content, meta, created_at
		FROM call_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Meta, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
