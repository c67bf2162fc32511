package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stratushq/tenant_go_server/internal/api/middleware"
	"github.com/stratushq/tenant_go_server/internal/pkg/response"
	"github.com/stratushq/tenant_go_server/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// Flush finalizes a session at page exit. Browsers fire it via
// navigator.sendBeacon, which cannot set headers, so this endpoint takes the
// session id in the path, skips auth and answers with plain HTTP status
// codes and a minimal JSON body instead of the coded envelope.
// GET /api/v1/track/session/:id?activeTime=<ms>
func (h *SessionHandler) Flush(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	raw, ok := c.GetQuery("activeTime")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "activeTime is required"})
		return
	}
	activeTimeMs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activeTime"})
		return
	}

	if err := h.sessionService.Flush(sessionID, activeTimeMs); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "flush failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// List returns the caller's session history.
// GET /api/v1/sessions
func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := pagination(c)
	sessions, total, err := h.sessionService.ListByUser(userID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, sessions)
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
