package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"booking-platform/internal/agent"
	"booking-platform/internal/audit"
	"booking-platform/internal/booking"
	"booking-platform/internal/config"
	"booking-platform/internal/reporting"
	"booking-platform/internal/sessions"
	"booking-platform/internal/slots"
	"booking-platform/internal/summary"

	"github.com/gin-gonic/gin"
)

// Handlers holds the HTTP surface. Routes stay thin; every decision that
// matters lives in the services.
type Handlers struct {
	gateway   *agent.Gateway
	sessions  *sessions.Service
	booking   *booking.Service
	slots     *slots.Service
	summary   *summary.Service
	audit     *audit.Service
	reporting *reporting.Service

	bookingCfg config.BookingConfig
	loc        *time.Location
}

func NewHandlers(
	gateway *agent.Gateway,
	sessionsSvc *sessions.Service,
	bookingSvc *booking.Service,
	slotsSvc *slots.Service,
	summarySvc *summary.Service,
	auditSvc *audit.Service,
	reportingSvc *reporting.Service,
	bookingCfg config.BookingConfig,
	loc *time.Location,
) *Handlers {
	return &Handlers{
		gateway:    gateway,
		sessions:   sessionsSvc,
		booking:    bookingSvc,
		slots:      slotsSvc,
		summary:    summarySvc,
		audit:      auditSvc,
		reporting:  reportingSvc,
		bookingCfg: bookingCfg,
		loc:        loc,
	}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- sessions ---

func (h *Handlers) OpenSession(c *gin.Context) {
	var req sessions.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sess, err := h.sessions.Open(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handlers) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handlers) SetSessionContact(c *gin.Context) {
	var req struct {
		ContactNumber string `json:"contact_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sess, err := h.sessions.SetContact(c.Request.Context(), c.Param("id"), req.ContactNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handlers) AppendMessage(c *gin.Context) {
	var req struct {
		Role    sessions.Role   `json:"role"`
		Content string          `json:"content"`
		Meta    json.RawMessage `json:"meta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	msg, err := h.sessions.AppendMessage(c.Request.Context(), c.Param("id"), req.Role, req.Content, req.Meta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handlers) ListMessages(c *gin.Context) {
	msgs, err := h.sessions.ListMessages(c.Request.Context(), c.Param("id"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handlers) CloseSession(c *gin.Context) {
	sess, err := h.sessions.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handlers) ListSessionAppointments(c *gin.Context) {
	appts, err := h.booking.ListBySession(c.Request.Context(), c.Param("id"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// --- summary / audit / reporting ---

func (h *Handlers) UpsertSummary(c *gin.Context) {
	var req summary.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	req.SessionID = c.Param("id")
	s, err := h.summary.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handlers) GetSummary(c *gin.Context) {
	s, err := h.summary.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handlers) ListToolEvents(c *gin.Context) {
	events, err := h.audit.ListBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handlers) SessionReport(c *gin.Context) {
	rep, err := h.reporting.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// --- agent tools ---

func (h *Handlers) IdentifyCaller(c *gin.Context) {
	var req struct {
		ContactNumber string `json:"contact_number"`
		Name          string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	res, err := h.gateway.IdentifyCaller(c.Request.Context(), c.Param("id"), req.ContactNumber, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) FetchSlots(c *gin.Context) {
	offers, err := h.gateway.FetchSlots(c.Request.Context(), c.Param("id"), queryInt(c, "days"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": offers})
}

func (h *Handlers) BookAppointment(c *gin.Context) {
	var req agent.BookParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	appt, err := h.gateway.BookAppointment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *Handlers) RetrieveAppointments(c *gin.Context) {
	var req agent.RetrieveParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	appts, err := h.gateway.RetrieveAppointments(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (h *Handlers) CancelAppointment(c *gin.Context) {
	var req struct {
		AppointmentID string `json:"appointment_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	appt, err := h.gateway.CancelAppointment(c.Request.Context(), c.Param("id"), req.AppointmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handlers) ModifyAppointment(c *gin.Context) {
	var req struct {
		AppointmentID string `json:"appointment_id"`
		NewSlotID     string `json:"new_slot_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	appt, err := h.gateway.ModifyAppointment(c.Request.Context(), c.Param("id"), req.AppointmentID, req.NewSlotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handlers) EndConversation(c *gin.Context) {
	sess, err := h.gateway.EndConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// --- admin slot calendar ---

// GenerateSlots builds the forward calendar. The request may override the
// configured defaults; the external scheduler usually sends an empty body.
func (h *Handlers) GenerateSlots(c *gin.Context) {
	var req struct {
		StartDate string `json:"start_date"` // YYYY-MM-DD, default today
		Days      int    `json:"days"`
		OpenTime  string `json:"open_time"`
		CloseTime string `json:"close_time"`
		SlotMins  int    `json:"slot_minutes"`
	}
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	if req.Days <= 0 {
		req.Days = h.bookingCfg.WindowDays
	}
	if req.OpenTime == "" {
		req.OpenTime = h.bookingCfg.OpenTime
	}
	if req.CloseTime == "" {
		req.CloseTime = h.bookingCfg.CloseTime
	}
	if req.SlotMins <= 0 {
		req.SlotMins = h.bookingCfg.SlotDurationMinutes
	}

	start := time.Now().In(h.loc)
	if req.StartDate != "" {
		d, err := time.ParseInLocation("2006-01-02", req.StartDate, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		start = d
	}

	openAt, err := slots.ParseClockTime(req.OpenTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open_time must be HH:MM"})
		return
	}
	closeAt, err := slots.ParseClockTime(req.CloseTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "close_time must be HH:MM"})
		return
	}

	created, err := h.slots.Generate(c.Request.Context(), slots.GenerateRequest{
		StartDate:    start,
		Days:         req.Days,
		OpenTime:     openAt,
		CloseTime:    closeAt,
		SlotDuration: time.Duration(req.SlotMins) * time.Minute,
		Location:     h.loc,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (h *Handlers) ListSlots(c *gin.Context) {
	from, to, err := h.window(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var out []slots.Slot
	if c.Query("available") == "true" {
		out, err = h.slots.ListAvailable(c.Request.Context(), from, to)
	} else {
		out, err = h.slots.ListWindow(c.Request.Context(), from, to)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": out})
}

func (h *Handlers) EnableSlot(c *gin.Context) {
	if err := h.slots.Enable(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "enabled"})
}

func (h *Handlers) DisableSlot(c *gin.Context) {
	if err := h.slots.Disable(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "disabled"})
}

func (h *Handlers) window(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().In(h.loc)
	from, to := now, now.AddDate(0, 0, h.bookingCfg.WindowDays)

	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

func queryInt(c *gin.Context, key string) int {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
