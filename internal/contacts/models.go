package contacts

import (
	"encoding/json"
	"time"
)

// Contact is a caller identity keyed by normalized phone number.
//
// Invariants:
// - contact_number is the natural key; there is no synthetic id.
// - Contacts are created on first sighting and refreshed on every later one.
// - The core never hard-deletes a contact; removal is an administrative
//   operation and cascades appointments at the storage layer.
type Contact struct {
	ContactNumber string `json:"contact_number" db:"contact_number"`
	Name          string `json:"name,omitempty" db:"name"`

	// Metadata is free-form JSON (stored as JSONB).
	Metadata json.RawMessage `json:"metadata,omitempty" db:"metadata"`

	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
	LastSeenAt time.Time `json:"last_seen_at" db:"last_seen_at"`
}
