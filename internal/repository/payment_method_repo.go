package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratushq/tenant_go_server/internal/model"
)

type PaymentMethodRepository struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

// Upsert keyed by the external payment method id; attach events may be
// redelivered.
func (r *PaymentMethodRepository) Upsert(pm *model.PaymentMethod) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_payment_method_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_id", "stripe_customer_id", "type", "last4",
			"exp_month", "exp_year", "is_default",
		}),
	}).Create(pm).Error
}

func (r *PaymentMethodRepository) GetByStripeID(stripePaymentMethodID string) (*model.PaymentMethod, error) {
	var pm model.PaymentMethod
	err := r.db.Where("stripe_payment_method_id = ?", stripePaymentMethodID).First(&pm).Error
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

func (r *PaymentMethodRepository) ListByCompany(companyID int64) ([]model.PaymentMethod, error) {
	var methods []model.PaymentMethod
	err := r.db.Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&methods).Error
	return methods, err
}

func (r *PaymentMethodRepository) SetDefault(companyID int64, stripePaymentMethodID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PaymentMethod{}).
			Where("company_id = ?", companyID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.PaymentMethod{}).
			Where("company_id = ? AND stripe_payment_method_id = ?", companyID, stripePaymentMethodID).
			Update("is_default", true).Error
	})
}
