package contacts

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo persists contacts in the contacts table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Upsert(ctx context.Context, c Contact) (Contact, error) {
	// Merge semantics: empty incoming name/metadata keep the stored values.
	const q = `
INSERT INTO contacts (contact_number, name, metadata, created_at, updated_at, last_seen_at)
VALUES ($1, $2, COALESCE($3::jsonb, '{}'::jsonb), $4, $4, $4)
ON CONFLICT (contact_number)
DO UPDATE SET
  name         = COALESCE(NULLIF(EXCLUDED.name, ''), contacts.name),
  metadata     = CASE WHEN $3::jsonb IS NULL THEN contacts.metadata ELSE EXCLUDED.metadata END,
  updated_at   = EXCLUDED.updated_at,
  last_seen_at = EXCLUDED.last_seen_at
RETURNING contact_number, name, metadata, created_at, updated_at, last_seen_at
`
	meta := nullableJSON(c.Metadata)
	var out Contact
	if err := r.db.QueryRowContext(ctx, q, c.ContactNumber, c.Name, meta, c.UpdatedAt).Scan(
		&out.ContactNumber,
		&out.Name,
		&out.Metadata,
		&out.CreatedAt,
		&out.UpdatedAt,
		&out.LastSeenAt,
	); err != nil {
		return Contact{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Get(ctx context.Context, contactNumber string) (Contact, error) {
	const q = `
SELECT contact_number, name, metadata, created_at, updated_at, last_seen_at
FROM contacts
WHERE contact_number = $1
`
	var out Contact
	if err := r.db.QueryRowContext(ctx, q, contactNumber).Scan(
		&out.ContactNumber,
		&out.Name,
		&out.Metadata,
		&out.CreatedAt,
		&out.UpdatedAt,
		&out.LastSeenAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, err
	}
	return out, nil
}

// nullableJSON maps an absent JSON payload to SQL NULL so the upsert can tell
// "not supplied" apart from an explicit empty object.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
