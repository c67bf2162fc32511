package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/pkg/response"
	"github.com/stratushq/tenant_go_server/internal/service"
)

type CompanyHandler struct {
	companyService *service.CompanyService
}

func NewCompanyHandler(companyService *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
	}
}

// Create registers a company.
// POST /api/v1/companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	company, err := h.companyService.CreateCompany(&req)
	if err != nil {
		if errors.Is(err, service.ErrCompanyExists) {
			response.DuplicateError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, company)
}

// Get returns one company.
// GET /api/v1/companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid company id")
		return
	}

	company, err := h.companyService.GetCompany(id)
	if err != nil {
		if errors.Is(err, service.ErrCompanyNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, company)
}

// Update modifies a company.
// PUT /api/v1/companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid company id")
		return
	}

	var req dto.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	company, err := h.companyService.UpdateCompany(id, &req)
	if err != nil {
		if errors.Is(err, service.ErrCompanyNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, company)
}

// Delete removes a company.
// DELETE /api/v1/companies/:id
func (h *CompanyHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid company id")
		return
	}

	if err := h.companyService.DeleteCompany(id); err != nil {
		if errors.Is(err, service.ErrCompanyNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "company deleted", nil)
}

// List returns companies with user counts and plan state.
// GET /api/v1/companies
func (h *CompanyHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	companies, total, err := h.companyService.ListCompanies(page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, companies)
}
