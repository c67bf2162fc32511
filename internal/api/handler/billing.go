package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stratushq/tenant_go_server/internal/api/middleware"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/pkg/response"
	"github.com/stratushq/tenant_go_server/internal/service"
)

type BillingHandler struct {
	billingService *service.BillingService
	userService    *service.UserService
}

func NewBillingHandler(billingService *service.BillingService, userService *service.UserService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		userService:    userService,
	}
}

// Checkout starts a hosted checkout for the caller's company.
// POST /api/v1/billing/checkout
func (h *BillingHandler) Checkout(c *gin.Context) {
	companyID, ok := h.callerCompany(c)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.billingService.CreateCheckout(companyID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPlan):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrCompanyNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// Portal returns a billing portal URL for the caller's company.
// POST /api/v1/billing/portal
func (h *BillingHandler) Portal(c *gin.Context) {
	companyID, ok := h.callerCompany(c)
	if !ok {
		return
	}

	resp, err := h.billingService.Portal(companyID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSubscription):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrCompanyNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// Overview returns subscription, invoices and payment methods.
// GET /api/v1/billing
func (h *BillingHandler) Overview(c *gin.Context) {
	companyID, ok := h.callerCompany(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	overview, total, err := h.billingService.Overview(companyID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, overview)
}

// SetDefaultPaymentMethod marks a stored payment method as the default.
// PUT /api/v1/billing/payment-methods/default
func (h *BillingHandler) SetDefaultPaymentMethod(c *gin.Context) {
	companyID, ok := h.callerCompany(c)
	if !ok {
		return
	}

	var req dto.SetDefaultPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.billingService.SetDefaultPaymentMethod(companyID, req.PaymentMethodID); err != nil {
		if errors.Is(err, service.ErrPaymentMethodNotFound) {
			response.NotFoundError(c, err.Error())
		} else {
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, nil)
}

// callerCompany resolves the authenticated caller's company id; callers
// without a company cannot use billing endpoints.
func (h *BillingHandler) callerCompany(c *gin.Context) (int64, bool) {
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
