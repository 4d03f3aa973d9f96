package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"booking-platform/pkg/utils"
)

var (
	ErrNotFound     = errors.New("contacts: not found")
	ErrInvalidInput = errors.New("contacts: invalid input")
)

// Repository is the persistence contract for contacts.
//
// Upsert must merge: an empty incoming name or metadata keeps the stored
// value, and last_seen_at/updated_at are always refreshed.
type Repository interface {
	Upsert(ctx context.Context, c Contact) (Contact, error)
	Get(ctx context.Context, contactNumber string) (Contact, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Upsert creates the contact if absent, otherwise merges the supplied fields
// and refreshes last_seen_at. Duplicate numbers are never an error.
func (s *Service) Upsert(ctx context.Context, contactNumber, name string, metadata json.RawMessage) (Contact, error) {
	cn := utils.NormalizePhone(contactNumber)
	if cn == "" {
		return Contact{}, ErrInvalidInput
	}

	now := s.clock().UTC()
	return s.repo.Upsert(ctx, Contact{
		ContactNumber: cn,
		Name:          name,
		Metadata:      metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastSeenAt:    now,
	})
}

func (s *Service) Get(ctx context.Context, contactNumber string) (Contact, error) {
	cn := utils.NormalizePhone(contactNumber)
	if cn == "" {
		return Contact{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, cn)
}
