package sessions

import (
	"encoding/json"
	"time"
)

// Session is one conversational call, keyed by uuid. Sessions move from
// active to ended exactly once; ended is terminal.
type Session struct {
	ID            string          `json:"id"`
	RoomName      string          `json:"room_name"`
	ContactNumber string          `json:"contact_number,omitempty"`
	Status        Status          `json:"status"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	EndedAt       *time.Time      `json:"ended_at,omitempty"`
}

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Message is one conversational turn. Messages are append-only; there is no
// update or delete path.
type Message struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}
