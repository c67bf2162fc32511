package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/pkg/response"
)

// RoleCookieName carries the signed-in role for dashboard routing. The
// cookie only picks which dashboard is served; API authorization always
// comes from the JWT.
const RoleCookieName = "role"

// Dashboard roots by role.
const (
	SuperAdminDashboard = "/dashboard/superadmin"
	AdminDashboard      = "/dashboard/admin"
	UserDashboard       = "/dashboard/user"
)

var dashboardRoots = map[string]string{
	model.RoleSuperAdmin: SuperAdminDashboard,
	model.RoleAdmin:      AdminDashboard,
	model.RoleUser:       UserDashboard,
}

// DashboardGate routes /dashboard/* by the role cookie. A role may enter its
// own dashboard and every dashboard below it; hitting a higher one redirects
// (302) to the caller's own root instead of rejecting. A missing or unknown
// cookie counts as the lowest role.
func DashboardGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := model.RoleUser
		if cookie, err := c.Cookie(RoleCookieName); err == nil {
			if _, ok := dashboardRoots[cookie]; ok {
				role = cookie
			}
		}

		required := requiredRole(c.Request.URL.Path)
		if model.RoleRank(role) < model.RoleRank(required) {
			c.Redirect(http.StatusFound, dashboardRoots[role])
			c.Abort()
			return
		}

		c.Set(UserRoleKey, role)
		c.Next()
	}
}

func requiredRole(path string) string {
	switch {
	case strings.HasPrefix(path, SuperAdminDashboard):
		return model.RoleSuperAdmin
	case strings.HasPrefix(path, AdminDashboard):
		return model.RoleAdmin
	default:
		return model.RoleUser
	}
}

// RequireRole guards an API group with a minimum role from the JWT claims.
func RequireRole(minRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok || model.RoleRank(role) < model.RoleRank(minRole) {
			response.PermissionError(c, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}
