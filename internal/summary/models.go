package summary

import (
	"encoding/json"
	"time"
)

// Summary is the post-call digest for one session. One row per session;
// repeat writes overwrite (last write wins).
type Summary struct {
	SessionID          string          `json:"session_id"`
	SummaryText        string          `json:"summary_text"`
	BookedAppointments json.RawMessage `json:"booked_appointments,omitempty"`
	Preferences        json.RawMessage `json:"preferences,omitempty"`
	Model              string          `json:"model,omitempty"`
	GenerationMs       int64           `json:"generation_ms,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
