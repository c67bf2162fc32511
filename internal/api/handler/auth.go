package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/stratushq/tenant_go_server/internal/api/middleware"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/pkg/response"
	"github.com/stratushq/tenant_go_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// SignUp registers a company with its first admin.
// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.SignUp(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists),
			errors.Is(err, service.ErrCompanyExists):
			response.DuplicateError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "account created", resp)
}

// SignIn authenticates with email and password.
// POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.SignIn(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.AuthError(c, err.Error())
		case errors.Is(err, service.ErrUserInactive):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	h.setRoleCookie(c, resp.User.Role)
	response.Success(c, resp)
}

// SignOut finalizes the caller's session with the tracker's active time.
// POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	// The body is optional; clients without a tracker sign out with no
	// active time to report.
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ParamError(c, err.Error())
		return
	}

	err := h.authService.SignOut(c.Request.Context(), userID, req.ActiveTimeMs)
	if err != nil && !errors.Is(err, service.ErrNoActiveSession) {
		response.ServerError(c, "")
		return
	}

	h.clearRoleCookie(c)
	response.SuccessWithMessage(c, "signed out", nil)
}

// SendOTP mails a one-time sign-in code.
// POST /api/v1/auth/otp/send
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req dto.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	err := h.authService.SendOTP(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrUserInactive):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "verification code sent", nil)
}

// VerifyOTP completes OTP sign-in.
// POST /api/v1/auth/otp/verify
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.VerifyOTP(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOTP):
			response.AuthError(c, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrUserInactive):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	h.setRoleCookie(c, resp.User.Role)
	response.Success(c, resp)
}

// UpdatePassword changes the caller's password.
// PUT /api/v1/auth/password
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.authService.UpdatePassword(userID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.AuthError(c, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "password updated", nil)
}

// Profile returns the caller's user record.
// GET /api/v1/auth/me
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		response.NotFoundError(c, "user not found")
		return
	}

	response.Success(c, user)
}

// The role cookie picks the dashboard variant served to the browser. It is
// not an authorization boundary; the API checks the JWT role.
func (h *AuthHandler) setRoleCookie(c *gin.Context, role string) {
	c.SetCookie(middleware.RoleCookieName, role, 86400*7, "/", "", false, false)
}

func (h *AuthHandler) clearRoleCookie(c *gin.Context) {
	c.SetCookie(middleware.RoleCookieName, "", -1, "/", "", false, false)
}
