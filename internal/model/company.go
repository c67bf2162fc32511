package model

import (
	"time"
)

type Company struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:150;not null" json:"name"`
	Email            string    `gorm:"size:100;uniqueIndex" json:"email"`
	Phone            string    `gorm:"size:30" json:"phone,omitempty"`
	Address          string    `gorm:"size:255" json:"address,omitempty"`
	Status           string    `gorm:"size:20;default:active;index" json:"status"`
	StripeCustomerID *string   `gorm:"size:100;index" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Company) TableName() string {
	return "companies"
}
