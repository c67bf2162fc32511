package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/stratushq/tenant_go_server/internal/model"
)

func newDashboardRouter() *gin.Engine {
	router := gin.New()
	dashboard := router.Group("/dashboard", DashboardGate())
	for _, path := range []string{"/superadmin", "/admin", "/user"} {
		dashboard.GET(path, func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
	}
	return router
}

func getDashboard(router *gin.Engine, path, roleCookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if roleCookie != "" {
		req.AddCookie(&http.Cookie{Name: RoleCookieName, Value: roleCookie})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDashboardGate_OwnDashboard(t *testing.T) {
	router := newDashboardRouter()

	tests := []struct {
		role string
		path string
	}{
		{model.RoleSuperAdmin, "/dashboard/superadmin"},
		{model.RoleAdmin, "/dashboard/admin"},
		{model.RoleUser, "/dashboard/user"},
	}
	for _, tt := range tests {
		w := getDashboard(router, tt.path, tt.role)
		assert.Equal(t, http.StatusOK, w.Code, "role %s on %s", tt.role, tt.path)
	}
}

func TestDashboardGate_HigherRoleEntersLowerDashboard(t *testing.T) {
	router := newDashboardRouter()

	w := getDashboard(router, "/dashboard/user", model.RoleSuperAdmin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = getDashboard(router, "/dashboard/admin", model.RoleSuperAdmin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = getDashboard(router, "/dashboard/user", model.RoleAdmin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDashboardGate_LowerRoleRedirectedDown(t *testing.T) {
	router := newDashboardRouter()

	w := getDashboard(router, "/dashboard/superadmin", model.RoleAdmin)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, AdminDashboard, w.Header().Get("Location"))

	w = getDashboard(router, "/dashboard/admin", model.RoleUser)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, UserDashboard, w.Header().Get("Location"))
}

func TestDashboardGate_MissingCookieTreatedAsUser(t *testing.T) {
	router := newDashboardRouter()

	w := getDashboard(router, "/dashboard/admin", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, UserDashboard, w.Header().Get("Location"))

	w = getDashboard(router, "/dashboard/user", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDashboardGate_UnknownRoleTreatedAsUser(t *testing.T) {
	router := newDashboardRouter()

	w := getDashboard(router, "/dashboard/superadmin", "root")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, UserDashboard, w.Header().Get("Location"))
}
