package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Slot is a fixed, schedulable time window [StartAt, EndAt).
//
// Invariants:
// - EndAt > StartAt.
// - StartAt is globally unique; generation is idempotent on it.
// - Slots are disabled, never deleted, to remove availability. Once created
//   only the enabled flag and updated_at may change.
type Slot struct {
	ID      string    `json:"id" db:"id"`
	StartAt time.Time `json:"start_at" db:"start_at"`
	EndAt   time.Time `json:"end_at" db:"end_at"`
	Enabled bool      `json:"is_enabled" db:"is_enabled"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ClockTime is a wall-clock time of day ("HH:MM") in the business time zone.
type ClockTime struct {
	Hour   int
	Minute int
}

func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("clock time must be HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return ClockTime{}, fmt.Errorf("clock time must be HH:MM, got %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("clock time must be HH:MM, got %q", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

func (c ClockTime) minutes() int { return c.Hour*60 + c.Minute }

// GenerateRequest carries everything slot generation needs. Time zone and
// business hours are explicit arguments, never ambient state, so the routine
// stays testable and reentrant.
type GenerateRequest struct {
	// StartDate names the first calendar day; only its Y/M/D are used,
	// interpreted in Location.
	StartDate time.Time
	Days      int

	OpenTime  ClockTime
	CloseTime ClockTime

	SlotDuration time.Duration
	Location     *time.Location
}
