package model

import (
	"time"
)

// UserSession accumulates active/inactive seconds between sign-in and
// sign-out. One open session (end_time NULL) per user is assumed.
type UserSession struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	UserID            int64      `gorm:"not null;index" json:"user_id"`
	StartTime         time.Time  `gorm:"not null" json:"start_time"`
	EndTime           *time.Time `gorm:"index" json:"end_time,omitempty"`
	TotalActiveTime   int64      `gorm:"not null;default:0" json:"total_active_time"`   // seconds
	TotalInactiveTime int64      `gorm:"not null;default:0" json:"total_inactive_time"` // seconds
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}
