package model

import (
	"time"
)

// Role hierarchy: super_admin > admin > user.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash *string    `gorm:"size:255" json:"-"`
	Role         string     `gorm:"size:20;default:user;index" json:"role"`
	Status       string     `gorm:"size:20;default:active;index" json:"status"`
	AvatarURL    string     `gorm:"size:500" json:"avatar_url"`
	Phone        string     `gorm:"size:30" json:"phone,omitempty"`
	CompanyID    *int64     `gorm:"index" json:"company_id,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// RoleRank maps a role to its position in the hierarchy; unknown roles rank
// as plain users.
func RoleRank(role string) int {
	switch role {
	case RoleSuperAdmin:
		return 2
	case RoleAdmin:
		return 1
	default:
		return 0
	}
}
