package model

import (
	"time"
)

// Report is an embedded-report definition shown on a company dashboard.
type Report struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	CompanyID   int64     `gorm:"not null;index" json:"company_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	EmbedURL    string    `gorm:"size:1000;not null" json:"embed_url"`
	EmbedToken  string    `gorm:"size:100" json:"-"`
	CreatedBy   int64     `gorm:"index" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}
