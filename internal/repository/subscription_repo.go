package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratushq/tenant_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// Upsert inserts or refreshes the row keyed by the external subscription id.
func (r *SubscriptionRepository) Upsert(sub *model.Subscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_id", "stripe_customer_id", "plan", "amount",
			"billing_interval", "status", "user_limit",
			"current_period_end", "portal_url", "last_event_at", "updated_at",
		}),
	}).Create(sub).Error
}

func (r *SubscriptionRepository) GetByStripeID(stripeSubscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) GetByCompanyID(companyID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("company_id = ?", companyID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetLatestByCustomer resolves the owning tenant for customer-scoped events
// (e.g. payment method attached) via the customer's most recent subscription.
func (r *SubscriptionRepository) GetLatestByCustomer(stripeCustomerID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("stripe_customer_id = ?", stripeCustomerID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) UpdateFieldsByStripeID(stripeSubscriptionID string, fields map[string]interface{}) error {
	return r.db.Model(&model.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(fields).Error
}

func (r *SubscriptionRepository) DeleteByStripeID(stripeSubscriptionID string) (int64, error) {
	result := r.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Delete(&model.Subscription{})
	return result.RowsAffected, result.Error
}
