package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
)

// TestCompany creates a company row.
func TestCompany(t *testing.T, db *gorm.DB, opts ...func(*model.Company)) *model.Company {
	t.Helper()

	company := &model.Company{
		Name:   fmt.Sprintf("Acme %d", time.Now().UnixNano()%100000),
		Email:  fmt.Sprintf("company_%d@example.com", time.Now().UnixNano()),
		Status: "active",
	}

	for _, opt := range opts {
		opt(company)
	}

	if err := db.Create(company).Error; err != nil {
		t.Fatalf("Failed to create test company: %v", err)
	}

	return company
}

func WithStripeCustomer(customerID string) func(*model.Company) {
	return func(c *model.Company) {
		c.StripeCustomerID = &customerID
	}
}

// TestUser creates a user row.
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Name:         fmt.Sprintf("Test User %d", time.Now().UnixNano()%100000),
		Email:        fmt.Sprintf("test_%d@example.com", time.Now().UnixNano()),
		PasswordHash: &passwordHash,
		Role:         model.RoleUser,
		Status:       model.UserStatusActive,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

func WithCompany(companyID int64) func(*model.User) {
	return func(u *model.User) {
		u.CompanyID = &companyID
	}
}

func WithStatus(status string) func(*model.User) {
	return func(u *model.User) {
		u.Status = status
	}
}

func WithPasswordHash(hash string) func(*model.User) {
	return func(u *model.User) {
		u.PasswordHash = &hash
	}
}

// TestSession creates an open session starting at the given time.
func TestSession(t *testing.T, db *gorm.DB, userID int64, startTime time.Time) *model.UserSession {
	t.Helper()

	session := &model.UserSession{
		UserID:    userID,
		StartTime: startTime,
	}

	if err := db.Create(session).Error; err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return session
}

// TestSubscription creates a subscription row for a company.
func TestSubscription(t *testing.T, db *gorm.DB, companyID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	sub := &model.Subscription{
		StripeSubscriptionID: fmt.Sprintf("sub_%d", time.Now().UnixNano()),
		CompanyID:            companyID,
		StripeCustomerID:     fmt.Sprintf("cus_%d", time.Now().UnixNano()),
		Plan:                 "starter",
		Amount:               49,
		BillingInterval:      "month",
		Status:               model.SubscriptionStatusActive,
		UserLimit:            10,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

func WithStripeSubscriptionID(id string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.StripeSubscriptionID = id
	}
}

func WithCustomerID(id string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.StripeCustomerID = id
	}
}

func WithSubscriptionStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

func WithLastEventAt(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.LastEventAt = &at
	}
}

// TestReport creates a report row.
func TestReport(t *testing.T, db *gorm.DB, companyID, createdBy int64) *model.Report {
	t.Helper()

	report := &model.Report{
		CompanyID: companyID,
		Title:     fmt.Sprintf("Report %d", time.Now().UnixNano()%100000),
		EmbedURL:  "https://reports.example.com/embed/abc",
		CreatedBy: createdBy,
	}

	if err := db.Create(report).Error; err != nil {
		t.Fatalf("Failed to create test report: %v", err)
	}

	return report
}
