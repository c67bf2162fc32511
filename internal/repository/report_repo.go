package repository

import (
	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(report *model.Report) error {
	return r.db.Create(report).Error
}

func (r *ReportRepository) GetByID(id int64) (*model.Report, error) {
	var report model.Report
	err := r.db.Where("id = ?", id).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Report{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ReportRepository) Delete(id int64) error {
	return r.db.Delete(&model.Report{}, id).Error
}

func (r *ReportRepository) ListByCompany(companyID int64, page, pageSize int) ([]model.Report, int64, error) {
	query := r.db.Model(&model.Report{}).Where("company_id = ?", companyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []model.Report
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}
