package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.UserSession) error {
	return r.db.Create(session).Error
}

func (r *SessionRepository) GetByID(id int64) (*model.UserSession, error) {
	var session model.UserSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOpenByUser returns the newest session without an end time.
func (r *SessionRepository) GetOpenByUser(userID int64) (*model.UserSession, error) {
	var session model.UserSession
	err := r.db.Where("user_id = ? AND end_time IS NULL", userID).
		Order("start_time DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// AddDurations applies active/inactive second deltas with additive SQL
// updates and stamps the end time. Additive updates keep concurrent flushes
// from different tabs from losing each other's deltas.
func (r *SessionRepository) AddDurations(id int64, activeSec, inactiveSec int64, endTime time.Time) error {
	return r.db.Model(&model.UserSession{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_active_time":   gorm.Expr("total_active_time + ?", activeSec),
			"total_inactive_time": gorm.Expr("total_inactive_time + ?", inactiveSec),
			"end_time":            endTime,
		}).Error
}

func (r *SessionRepository) ListByUser(userID int64, page, pageSize int) ([]model.UserSession, int64, error) {
	query := r.db.Model(&model.UserSession{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []model.UserSession
	err := query.Order("start_time DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

// CloseStale stamps an end time on open sessions that started before the
// cutoff. Used by the cleanup job for sessions whose tab never flushed.
func (r *SessionRepository) CloseStale(cutoff, endTime time.Time) (int64, error) {
	result := r.db.Model(&model.UserSession{}).
		Where("end_time IS NULL AND start_time < ?", cutoff).
		Update("end_time", endTime)
	return result.RowsAffected, result.Error
}
