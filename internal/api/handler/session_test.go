package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/pkg/cache"
	"github.com/stratushq/tenant_go_server/internal/repository"
	"github.com/stratushq/tenant_go_server/internal/service"
	"github.com/stratushq/tenant_go_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newFlushRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	svc := service.NewSessionService(repository.NewSessionRepository(db), cache.New(16, time.Minute))
	h := NewSessionHandler(svc)

	router := gin.New()
	router.GET("/api/v1/track/session/:id", h.Flush)
	return router, db
}

func flushRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFlush_Success(t *testing.T) {
	router, db := newFlushRouter(t)

	session := testutil.TestSession(t, db, 1, time.Now().UTC().Add(-10*time.Minute))

	w := flushRequest(router, fmt.Sprintf("/api/v1/track/session/%d?activeTime=300000", session.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())

	var got model.UserSession
	require.NoError(t, db.First(&got, session.ID).Error)
	assert.Equal(t, int64(300), got.TotalActiveTime)
	require.NotNil(t, got.EndTime)
}

func TestFlush_InvalidSessionID(t *testing.T) {
	router, _ := newFlushRouter(t)

	w := flushRequest(router, "/api/v1/track/session/abc?activeTime=1000")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = flushRequest(router, "/api/v1/track/session/0?activeTime=1000")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlush_InvalidActiveTime(t *testing.T) {
	router, db := newFlushRouter(t)

	session := testutil.TestSession(t, db, 1, time.Now().UTC())

	w := flushRequest(router, fmt.Sprintf("/api/v1/track/session/%d?activeTime=xyz", session.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlush_UnknownSession(t *testing.T) {
	router, _ := newFlushRouter(t)

	w := flushRequest(router, "/api/v1/track/session/99999?activeTime=1000")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlush_MissingActiveTime(t *testing.T) {
	router, db := newFlushRouter(t)

	session := testutil.TestSession(t, db, 1, time.Now().UTC().Add(-time.Minute))

	w := flushRequest(router, fmt.Sprintf("/api/v1/track/session/%d", session.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "activeTime is required"}`, w.Body.String())

	// The session must not be finalized by a rejected request.
	var got model.UserSession
	require.NoError(t, db.First(&got, session.ID).Error)
	assert.Nil(t, got.EndTime)
}
