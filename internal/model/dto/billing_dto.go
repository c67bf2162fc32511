package dto

type CheckoutRequest struct {
	Plan     string `json:"plan" binding:"required"`
	Interval string `json:"interval" binding:"omitempty,oneof=month year"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type PortalResponse struct {
	URL string `json:"url"`
}

type BillingOverview struct {
	Subscription   interface{} `json:"subscription,omitempty"`
	BillingRecords interface{} `json:"billing_records"`
	PaymentMethods interface{} `json:"payment_methods"`
	FailedPayments int64       `json:"failed_payments"`
}

type SetDefaultPaymentMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
}
