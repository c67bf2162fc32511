package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stratushq/tenant_go_server/internal/api/middleware"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/pkg/response"
	"github.com/stratushq/tenant_go_server/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
	userService   *service.UserService
}

func NewReportHandler(reportService *service.ReportService, userService *service.UserService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		userService:   userService,
	}
}

// Create adds an embedded report.
// POST /api/v1/reports
func (h *ReportHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	companyID, ok := h.callerCompany(c)
	if !ok {
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if req.CompanyID != companyID {
		response.PermissionError(c, "report belongs to another company")
		return
	}

	report, err := h.reportService.CreateReport(userID, &req)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, report)
}

// Get returns one report, scoped to the caller's company.
// GET /api/v1/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	id, companyID, ok := h.reportScope(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(id, companyID)
	if err != nil {
		h.reportError(c, err)
		return
	}

	response.Success(c, report)
}

// Update modifies a report.
// PUT /api/v1/reports/:id
func (h *ReportHandler) Update(c *gin.Context) {
	id, companyID, ok := h.reportScope(c)
	if !ok {
		return
	}

	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	report, err := h.reportService.UpdateReport(id, companyID, &req)
	if err != nil {
		h.reportError(c, err)
		return
	}

	response.Success(c, report)
}

// Delete removes a report.
// DELETE /api/v1/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	id, companyID, ok := h.reportScope(c)
	if !ok {
		return
	}

	if err := h.reportService.DeleteReport(id, companyID); err != nil {
		h.reportError(c, err)
		return
	}

	response.SuccessWithMessage(c, "report deleted", nil)
}

// List returns the caller company's reports.
// GET /api/v1/reports
func (h *ReportHandler) List(c *gin.Context) {
	companyID, ok := h.callerCompany(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	reports, total, err := h.reportService.ListReports(companyID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, reports)
}

func (h *ReportHandler) reportScope(c *gin.Context) (int64, int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid report id")
		return 0, 0, false
	}

	companyID, ok := h.callerCompany(c)
	if !ok {
		return 0, 0, false
	}
	return id, companyID, true
}

func (h *ReportHandler) callerCompany(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return 0, false
	}

	user, err := h.userService.GetUser(userID)
	if err != nil || user.CompanyID == nil {
		response.PermissionError(c, "no company associated with account")
		return 0, false
	}
	return *user.CompanyID, true
}

func (h *ReportHandler) reportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrReportForbidden):
		response.PermissionError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
