package httpapi

import (
	"errors"
	"net/http"

	"booking-platform/internal/audit"
	"booking-platform/internal/booking"
	"booking-platform/internal/contacts"
	"booking-platform/internal/reporting"
	"booking-platform/internal/sessions"
	"booking-platform/internal/slots"
	"booking-platform/internal/summary"
	"booking-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError translates domain errors to HTTP statuses:
// missing things are 404, bad requests 400, state conflicts 409,
// everything else an opaque 500.
func respondError(c *gin.Context, err error) {
	switch {
	case isNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case isInvalidInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case isConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("internal error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, booking.ErrNotFound) ||
		errors.Is(err, booking.ErrInvalidSlot) ||
		errors.Is(err, contacts.ErrNotFound) ||
		errors.Is(err, slots.ErrNotFound) ||
		errors.Is(err, sessions.ErrNotFound) ||
		errors.Is(err, summary.ErrNotFound) ||
		errors.Is(err, reporting.ErrNotFound)
}

func isInvalidInput(err error) bool {
	return errors.Is(err, booking.ErrInvalidInput) ||
		errors.Is(err, audit.ErrInvalidInput) ||
		errors.Is(err, contacts.ErrInvalidInput) ||
		errors.Is(err, slots.ErrInvalidInput) ||
		errors.Is(err, sessions.ErrInvalidInput) ||
		errors.Is(err, summary.ErrInvalidInput) ||
		errors.Is(err, reporting.ErrInvalidInput)
}

func isConflict(err error) bool {
	return errors.Is(err, booking.ErrSlotAlreadyBooked) ||
		errors.Is(err, booking.ErrSlotDisabled) ||
		errors.Is(err, sessions.ErrSessionClosed) ||
		errors.Is(err, sessions.ErrTooManySessions)
}
