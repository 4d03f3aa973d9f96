package httpapi

import (
	"github.com/gin-gonic/gin"
)

// Register mounts all routes. Everything under /v1 requires a service token;
// only the health probe is public.
func (h *Handlers) Register(r *gin.Engine, requireAuth gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1", requireAuth)

	sess := v1.Group("/sessions")
	{
		sess.POST("", h.OpenSession)
		sess.GET("/:id", h.GetSession)
		sess.PUT("/:id/contact", h.SetSessionContact)
		sess.POST("/:id/messages", h.AppendMessage)
		sess.GET("/:id/messages", h.ListMessages)
		sess.POST("/:id/close", h.CloseSession)
		sess.GET("/:id/appointments", h.ListSessionAppointments)
		sess.PUT("/:id/summary", h.UpsertSummary)
		sess.GET("/:id/summary", h.GetSummary)
		sess.GET("/:id/tool-events", h.ListToolEvents)
		sess.GET("/:id/report", h.SessionReport)
	}

	// Tool endpoints mirror the agent's tool names one to one.
	tools := v1.Group("/agent/:id")
	{
		tools.POST("/identify", h.IdentifyCaller)
		tools.GET("/slots", h.FetchSlots)
		tools.POST("/book", h.BookAppointment)
		tools.POST("/retrieve", h.RetrieveAppointments)
		tools.POST("/cancel", h.CancelAppointment)
		tools.POST("/modify", h.ModifyAppointment)
		tools.POST("/end", h.EndConversation)
	}

	admin := v1.Group("/admin/slots")
	{
		admin.POST("/generate", h.GenerateSlots)
		admin.GET("", h.ListSlots)
		admin.POST("/:id/enable", h.EnableSlot)
		admin.POST("/:id/disable", h.DisableSlot)
	}
}
