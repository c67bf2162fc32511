package model

import (
	"time"
)

const (
	BillingStatusPaid   = "paid"
	BillingStatusFailed = "failed"
)

// BillingRecord is one row per Stripe invoice, upserted by invoice id so
// webhook redelivery cannot duplicate it.
type BillingRecord struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	StripeInvoiceID  string    `gorm:"size:100;uniqueIndex;not null" json:"stripe_invoice_id"`
	CompanyID        int64     `gorm:"not null;index" json:"company_id"`
	StripeCustomerID string    `gorm:"size:100;index" json:"stripe_customer_id"`
	BillingDate      time.Time `json:"billing_date"`
	Status           string    `gorm:"size:20;index" json:"status"`
	Amount           float64   `gorm:"type:decimal(10,2)" json:"amount"`
	Plan             string    `gorm:"size:50" json:"plan"`
	PDFLink          string    `gorm:"size:500" json:"pdf_link,omitempty"`
	PaymentStatus    string    `gorm:"size:20" json:"payment_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (BillingRecord) TableName() string {
	return "billing_records"
}
