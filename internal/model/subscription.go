package model

import (
	"time"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusUnpaid   = "unpaid"
	SubscriptionStatusCanceled = "canceled"
)

type Subscription struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	StripeSubscriptionID string     `gorm:"size:100;uniqueIndex;not null" json:"stripe_subscription_id"`
	CompanyID            int64      `gorm:"not null;index" json:"company_id"`
	StripeCustomerID     string     `gorm:"size:100;index" json:"stripe_customer_id"`
	Plan                 string     `gorm:"size:50" json:"plan"`
	Amount               float64    `gorm:"type:decimal(10,2)" json:"amount"`
	BillingInterval      string     `gorm:"size:20" json:"billing_interval"` // month, year
	Status               string     `gorm:"size:20;index" json:"status"`
	UserLimit            int        `json:"user_limit"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	PortalURL            string     `gorm:"size:500" json:"portal_url,omitempty"`
	// LastEventAt carries the processor's event timestamp; mutations from
	// older events are skipped (last-writer-wins under out-of-order delivery).
	LastEventAt *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
