package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakeLimiter struct {
	active   map[string]int
	cap      int
	acquires int
	releases int
}

func newFakeLimiter(cap int) *fakeLimiter {
	return &fakeLimiter{active: make(map[string]int), cap: cap}
}

func (l *fakeLimiter) Acquire(ctx context.Context, roomName string) (bool, error) {
	l.acquires++
	if l.active[roomName] >= l.cap {
		return false, nil
	}
	l.active[roomName]++
	return true, nil
}

func (l *fakeLimiter) Release(ctx context.Context, roomName string) error {
	l.releases++
	if l.active[roomName] > 0 {
		l.active[roomName]--
	}
	return nil
}

func TestOpen_RequiresRoomName(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	if _, err := svc.Open(context.Background(), OpenRequest{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOpen_NormalizesContactAndStartsActive(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	sess, err := svc.Open(context.Background(), OpenRequest{
		RoomName:      "room-7",
		ContactNumber: "+91 98765 43210",
		Metadata:      json.RawMessage(`{"channel":"voice"}`),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sess.Status != StatusActive {
		t.Fatalf("expected active, got %q", sess.Status)
	}
	if sess.ContactNumber != "9876543210" {
		t.Fatalf("expected normalized contact, got %q", sess.ContactNumber)
	}
	if sess.ID == "" || sess.StartedAt.IsZero() {
		t.Fatalf("expected id and started_at to be set")
	}
}

func TestOpen_CapRejectsAndCloseReleases(t *testing.T) {
	lim := newFakeLimiter(1)
	svc := NewService(NewMemoryRepo(), lim)
	ctx := context.Background()

	first, err := svc.Open(ctx, OpenRequest{RoomName: "room-1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Open(ctx, OpenRequest{RoomName: "room-1"}); !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("expected ErrTooManySessions, got %v", err)
	}
	// Other rooms are unaffected.
	if _, err := svc.Open(ctx, OpenRequest{RoomName: "room-2"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, err := svc.Close(ctx, first.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Open(ctx, OpenRequest{RoomName: "room-1"}); err != nil {
		t.Fatalf("expected room slot freed after close, got %v", err)
	}
}

func TestClose_IdempotentReleasesOnce(t *testing.T) {
	lim := newFakeLimiter(1)
	svc := NewService(NewMemoryRepo(), lim)
	ctx := context.Background()

	sess, err := svc.Open(ctx, OpenRequest{RoomName: "room-1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	first, err := svc.Close(ctx, sess.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first.Status != StatusEnded || first.EndedAt == nil {
		t.Fatalf("expected ended with timestamp, got %+v", first)
	}

	second, err := svc.Close(ctx, sess.ID)
	if err != nil {
		t.Fatalf("repeat close should be a no-op, got %v", err)
	}
	if !second.EndedAt.Equal(*first.EndedAt) {
		t.Fatalf("repeat close must not restamp ended_at")
	}
	if lim.releases != 1 {
		t.Fatalf("expected exactly one limiter release, got %d", lim.releases)
	}

	if _, err := svc.Close(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetContact(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()

	sess, err := svc.Open(ctx, OpenRequest{RoomName: "room-1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, err := svc.SetContact(ctx, sess.ID, "+919876543210")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ContactNumber != "9876543210" {
		t.Fatalf("expected normalized contact, got %q", got.ContactNumber)
	}

	if _, err := svc.SetContact(ctx, sess.ID, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.SetContact(ctx, "missing", "9876543210"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendMessage_ValidatesAndRejectsClosed(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()

	sess, err := svc.Open(ctx, OpenRequest{RoomName: "room-1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, err := svc.AppendMessage(ctx, sess.ID, Role("moderator"), "hi", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad role, got %v", err)
	}
	if _, err := svc.AppendMessage(ctx, sess.ID, RoleUser, "", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty content, got %v", err)
	}

	msg, err := svc.AppendMessage(ctx, sess.ID, RoleUser, "I want to book a checkup", nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg.ID == "" || msg.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be set")
	}

	if _, err := svc.Close(ctx, sess.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.AppendMessage(ctx, sess.ID, RoleAssistant, "anything else?", nil); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestListMessages_OrderAndClamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	sess, err := svc.Open(ctx, OpenRequest{RoomName: "room-1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	roles := []Role{RoleUser, RoleAssistant, RoleUser}
	for i, role := range roles {
		svc.clock = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		if _, err := svc.AppendMessage(ctx, sess.ID, role, "turn", nil); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	msgs, err := svc.ListMessages(ctx, sess.ID, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("expected chronological order")
		}
	}

	msgs, err = svc.ListMessages(ctx, sess.ID, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected limit applied, got %d", len(msgs))
	}

	if _, err := svc.ListMessages(ctx, "missing", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
