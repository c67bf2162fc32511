package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) UpdateLastLogin(id int64, at time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).
		Update("last_login_at", at).Error
}

func (r *UserRepository) Delete(id int64) error {
	return r.db.Delete(&model.User{}, id).Error
}

func (r *UserRepository) ListByCompany(companyID int64, status string, page, pageSize int) ([]model.User, int64, error) {
	query := r.db.Model(&model.User{}).Where("company_id = ?", companyID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepository) CountActiveByCompany(companyID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).
		Where("company_id = ? AND status = ?", companyID, model.UserStatusActive).
		Count(&count).Error
	return count, err
}

// DeactivateByCompany marks every user of a tenant inactive. Applied when the
// tenant's subscription is deleted, canceled or unpaid.
func (r *UserRepository) DeactivateByCompany(companyID int64) (int64, error) {
	result := r.db.Model(&model.User{}).
		Where("company_id = ?", companyID).
		Update("status", model.UserStatusInactive)
	return result.RowsAffected, result.Error
}

// ListAdminIDsByCompany returns the ids of a company's admin users, used to
// fan out live billing updates.
func (r *UserRepository) ListAdminIDsByCompany(companyID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.User{}).
		Where("company_id = ? AND role = ?", companyID, model.RoleAdmin).
		Pluck("id", &ids).Error
	return ids, err
}
