package model

import (
	"time"
)

type PaymentMethod struct {
	ID                    int64     `gorm:"primaryKey" json:"id"`
	StripePaymentMethodID string    `gorm:"size:100;uniqueIndex;not null" json:"stripe_payment_method_id"`
	CompanyID             int64     `gorm:"not null;index" json:"company_id"`
	StripeCustomerID      string    `gorm:"size:100;index" json:"stripe_customer_id"`
	Type                  string    `gorm:"size:20" json:"type"` // card, sepa_debit, ...
	Last4                 string    `gorm:"size:4" json:"last4"`
	ExpMonth              int       `json:"exp_month"`
	ExpYear               int       `json:"exp_year"`
	IsDefault             bool      `gorm:"default:false" json:"is_default"`
	CreatedAt             time.Time `json:"created_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
