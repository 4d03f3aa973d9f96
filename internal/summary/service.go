package summary

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("summary: not found")
	ErrInvalidInput = errors.New("summary: invalid input")
)

// maxSummaryChars bounds stored summary text. Longer texts are truncated,
// not rejected; a clipped summary beats a failed write at call teardown.
const maxSummaryChars = 4000

type Repository interface {
	Upsert(ctx context.Context, s Summary) (Summary, error)
	Get(ctx context.Context, sessionID string) (Summary, error)
}

// SessionSource verifies the parent session exists. Summaries are written
// after the call ends, so an ended session is perfectly valid here.
type SessionSource interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

type Service struct {
	repo     Repository
	sessions SessionSource
	clock    func() time.Time
}

func NewService(repo Repository, sessions SessionSource) *Service {
	return &Service{repo: repo, sessions: sessions, clock: time.Now}
}

type UpsertRequest struct {
	SessionID          string          `json:"session_id"`
	SummaryText        string          `json:"summary_text"`
	BookedAppointments json.RawMessage `json:"booked_appointments"`
	Preferences        json.RawMessage `json:"preferences"`
	Model              string          `json:"model"`
	GenerationMs       int64           `json:"generation_ms"`
}

// Upsert writes the session's summary, replacing any previous one.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (Summary, error) {
	if req.SessionID == "" || req.SummaryText == "" {
		return Summary{}, ErrInvalidInput
	}

	ok, err := s.sessions.Exists(ctx, req.SessionID)
	if err != nil {
		return Summary{}, err
	}
	if !ok {
		return Summary{}, ErrNotFound
	}

	text := req.SummaryText
	if runes := []rune(text); len(runes) > maxSummaryChars {
		text = string(runes[:maxSummaryChars])
	}

	now := s.clock().UTC()
	return s.repo.Upsert(ctx, Summary{
		SessionID:          req.SessionID,
		SummaryText:        text,
		BookedAppointments: req.BookedAppointments,
		Preferences:        req.Preferences,
		Model:              req.Model,
		GenerationMs:       req.GenerationMs,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

func (s *Service) Get(ctx context.Context, sessionID string) (Summary, error) {
	if sessionID == "" {
		return Summary{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, sessionID)
}
