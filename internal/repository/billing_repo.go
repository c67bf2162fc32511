package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratushq/tenant_go_server/internal/model"
)

type BillingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// UpsertByInvoiceID inserts or refreshes the row keyed by the external
// invoice id, so redelivered invoice events collapse into one record.
func (r *BillingRepository) UpsertByInvoiceID(record *model.BillingRecord) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_invoice_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_id", "stripe_customer_id", "billing_date", "status",
			"amount", "plan", "pdf_link", "payment_status", "updated_at",
		}),
	}).Create(record).Error
}

func (r *BillingRepository) GetByInvoiceID(stripeInvoiceID string) (*model.BillingRecord, error) {
	var record model.BillingRecord
	err := r.db.Where("stripe_invoice_id = ?", stripeInvoiceID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *BillingRepository) ListByCompany(companyID int64, page, pageSize int) ([]model.BillingRecord, int64, error) {
	query := r.db.Model(&model.BillingRecord{}).Where("company_id = ?", companyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.BillingRecord
	err := query.Order("billing_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *BillingRepository) CountByStatus(companyID int64, status string) (int64, error) {
	var count int64
	err := r.db.Model(&model.BillingRecord{}).
		Where("company_id = ? AND status = ?", companyID, status).
		Count(&count).Error
	return count, err
}
