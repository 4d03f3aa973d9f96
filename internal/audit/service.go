package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("audit: invalid input")
)

// Repository is the append-only persistence contract for tool events.
type Repository interface {
	Append(ctx context.Context, e Event) error
	ListBySession(ctx context.Context, sessionID string) ([]Event, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

type RecordRequest struct {
	SessionID    string          `json:"session_id"`
	Tool         Tool            `json:"tool"`
	Input        json.RawMessage `json:"input"`
	Output       json.RawMessage `json:"output"`
	OK           bool            `json:"ok"`
	ErrorMessage string          `json:"error_message"`
}

// Record appends one tool event. Ended sessions accept events: tool results
// routinely land after the call has been torn down.
func (s *Service) Record(ctx context.Context, req RecordRequest) (Event, error) {
	if req.SessionID == "" || !req.Tool.Valid() {
		return Event{}, ErrInvalidInput
	}

	e := Event{
		ID:           uuid.NewString(),
		SessionID:    req.SessionID,
		Tool:         req.Tool,
		Input:        req.Input,
		Output:       req.Output,
		OK:           req.OK,
		ErrorMessage: req.ErrorMessage,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// ListBySession returns all events for a session in the order they were
// recorded.
func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]Event, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListBySession(ctx, sessionID)
}
