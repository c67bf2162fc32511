package repository

import (
	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(company *model.Company) error {
	return r.db.Create(company).Error
}

func (r *CompanyRepository) GetByID(id int64) (*model.Company, error) {
	var company model.Company
	err := r.db.Where("id = ?", id).First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) GetByStripeCustomerID(customerID string) (*model.Company, error) {
	var company model.Company
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Company{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *CompanyRepository) Update(company *model.Company) error {
	return r.db.Save(company).Error
}

func (r *CompanyRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Company{}).Where("id = ?", id).Updates(fields).Error
}

func (r *CompanyRepository) SetStripeCustomerID(id int64, customerID string) error {
	return r.db.Model(&model.Company{}).Where("id = ?", id).
		Update("stripe_customer_id", customerID).Error
}

func (r *CompanyRepository) Delete(id int64) error {
	return r.db.Delete(&model.Company{}, id).Error
}

func (r *CompanyRepository) List(page, pageSize int) ([]model.Company, int64, error) {
	var total int64
	if err := r.db.Model(&model.Company{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var companies []model.Company
	err := r.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&companies).Error
	if err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}
