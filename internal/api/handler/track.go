package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/stratushq/tenant_go_server/internal/api/middleware"
	"github.com/stratushq/tenant_go_server/internal/pkg/response"
	"github.com/stratushq/tenant_go_server/internal/tracker"
)

type TrackHandler struct {
	manager *tracker.Manager
}

func NewTrackHandler(manager *tracker.Manager) *TrackHandler {
	return &TrackHandler{
		manager: manager,
	}
}

type trackEventRequest struct {
	Event string `json:"event" binding:"required,oneof=pointermove pointerdown keydown touchstart scroll focus blur visibilitychange"`
}

// Touch records a liveness signal for the caller's activity tracker.
// POST /api/v1/track/event
func (h *TrackHandler) Touch(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req trackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	h.manager.Touch(c.Request.Context(), userID, req.Event)
	response.Success(c, nil)
}

// Counters returns the caller's running active/inactive totals.
// GET /api/v1/track/counters
func (h *TrackHandler) Counters(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	activeMs, inactiveMs, active := h.manager.Counters(userID)
	response.Success(c, gin.H{
		"active_time_ms":   activeMs,
		"inactive_time_ms": inactiveMs,
		"active":           active,
	})
}
