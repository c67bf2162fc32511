package handler

import (
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stratushq/tenant_go_server/internal/api/middleware"
	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/pkg/response"
	"github.com/stratushq/tenant_go_server/internal/service"
)

const maxAvatarBytes = 5 << 20

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Create adds a user to a company.
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if !h.canManageCompany(c, req.CompanyID) {
		response.PermissionError(c, "user belongs to another company")
		return
	}

	user, err := h.userService.CreateUser(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			response.DuplicateError(c, err.Error())
		case errors.Is(err, service.ErrUserLimitReached):
			response.PlanLimitError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, user)
}

// Get returns one user.
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user id")
		return
	}

	user, err := h.userService.GetUser(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, user)
}

// Update modifies a user.
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user id")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	user, err := h.userService.UpdateUser(id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrUserLimitReached):
			response.PlanLimitError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, user)
}

// Delete removes a user.
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user id")
		return
	}

	if err := h.userService.DeleteUser(id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "user deleted", nil)
}

// List returns users of a company.
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	var query dto.ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	users, total, err := h.userService.ListUsers(&query)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, query.Page, query.PageSize, users)
}

// canManageCompany reports whether the caller may manage users of the given
// company. Super admins manage any tenant; admins only their own.
func (h *UserHandler) canManageCompany(c *gin.Context, companyID int64) bool {
	if role, ok := middleware.GetUserRole(c); ok && role == model.RoleSuperAdmin {
		return true
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return false
	}
	caller, err := h.userService.GetUser(userID)
	if err != nil || caller.CompanyID == nil {
		return false
	}
	return *caller.CompanyID == companyID
}

// UploadAvatar stores the caller's avatar image.
// POST /api/v1/users/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.ParamError(c, "avatar file required")
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		response.ParamError(c, "avatar too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		response.ParamError(c, "unsupported image format")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	url, err := h.userService.UploadAvatar(userID, data, ext)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"avatar_url": url})
}
