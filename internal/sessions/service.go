package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"booking-platform/pkg/utils"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no session exists with the given id.
	ErrNotFound = errors.New("sessions: session not found")
	// ErrInvalidInput covers malformed requests (missing room, bad role).
	ErrInvalidInput = errors.New("sessions: invalid input")
	// ErrSessionClosed is returned when appending a message to an ended
	// session. Summaries and tool events are deliberately not subject to
	// this check; they are written after the call ends.
	ErrSessionClosed = errors.New("sessions: session already ended")
	// ErrTooManySessions means the per-room active session cap was hit.
	ErrTooManySessions = errors.New("sessions: too many active sessions for room")
)

// Repository is the persistence contract for the session ledger.
//
// AppendMessage must refuse writes against ended sessions; Close must be
// idempotent and preserve the original ended_at on repeat calls.
type Repository interface {
	Insert(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	SetContact(ctx context.Context, id, contactNumber string) (Session, error)
	Close(ctx context.Context, id string, at time.Time) (Session, error)
	AppendMessage(ctx context.Context, m Message) error
	ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
}

// Limiter caps simultaneously active sessions per room. A nil Limiter on the
// Service disables the cap entirely.
type Limiter interface {
	Acquire(ctx context.Context, roomName string) (bool, error)
	Release(ctx context.Context, roomName string) error
}

type Service struct {
	repo    Repository
	limiter Limiter
	clock   func() time.Time
}

func NewService(repo Repository, limiter Limiter) *Service {
	return &Service{repo: repo, limiter: limiter, clock: time.Now}
}

type OpenRequest struct {
	RoomName      string          `json:"room_name"`
	ContactNumber string          `json:"contact_number"`
	Metadata      json.RawMessage `json:"metadata"`
}

// Open starts a new active session. The caller identity is usually unknown at
// this point; SetContact attaches it later once identification succeeds.
func (s *Service) Open(ctx context.Context, req OpenRequest) (Session, error) {
	if req.RoomName == "" {
		return Session{}, ErrInvalidInput
	}

	if s.limiter != nil {
		ok, err := s.limiter.Acquire(ctx, req.RoomName)
		if err != nil {
			return Session{}, err
		}
		if !ok {
			return Session{}, ErrTooManySessions
		}
	}

	sess := Session{
		ID:            uuid.NewString(),
		RoomName:      req.RoomName,
		ContactNumber: utils.NormalizePhone(req.ContactNumber),
		Status:        StatusActive,
		Metadata:      req.Metadata,
		StartedAt:     s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, sess); err != nil {
		if s.limiter != nil {
			_ = s.limiter.Release(ctx, req.RoomName)
		}
		return Session{}, err
	}
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether a session with the given id was ever opened,
// regardless of whether it has since ended.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetContact attaches an identified caller to the session. Re-identification
// overwrites the previous number.
func (s *Service) SetContact(ctx context.Context, id, contactNumber string) (Session, error) {
	if id == "" {
		return Session{}, ErrInvalidInput
	}
	cn := utils.NormalizePhone(contactNumber)
	if cn == "" {
		return Session{}, ErrInvalidInput
	}
	return s.repo.SetContact(ctx, id, cn)
}

// AppendMessage records one conversational turn. Ended sessions reject new
// messages with ErrSessionClosed.
func (s *Service) AppendMessage(ctx context.Context, sessionID string, role Role, content string, meta json.RawMessage) (Message, error) {
	if sessionID == "" || content == "" || !role.Valid() {
		return Message{}, ErrInvalidInput
	}

	m := Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Meta:      meta,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.AppendMessage(ctx, m); err != nil {
		return Message{}, err
	}
	return m, nil
}

const (
	defaultMessageLimit = 80
	maxMessageLimit     = 200
)

// ListMessages returns the session transcript in chronological order.
// Limit defaults to 80 and is clamped to [1, 200].
func (s *Service) ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	if _, err := s.repo.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, sessionID, limit)
}

// Close ends the session. Repeat closes are no-ops returning the already
// ended session. The room's limiter slot is released only on the first
// transition so repeat closes cannot over-release.
func (s *Service) Close(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrInvalidInput
	}

	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}

	ended, err := s.repo.Close(ctx, id, s.clock().UTC())
	if err != nil {
		return Session{}, err
	}
	if s.limiter != nil && before.Status == StatusActive {
		_ = s.limiter.Release(ctx, before.RoomName)
	}
	return ended, nil
}
