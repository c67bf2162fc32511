package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) Create(event *model.WebhookEvent) error {
	return r.db.Create(event).Error
}

func (r *WebhookEventRepository) GetByEventID(stripeEventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.Where("stripe_event_id = ?", stripeEventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *WebhookEventRepository) MarkProcessed(stripeEventID string, processingError string) error {
	now := time.Now().UTC()
	return r.db.Model(&model.WebhookEvent{}).
		Where("stripe_event_id = ?", stripeEventID).
		Updates(map[string]interface{}{
			"processed_at":     now,
			"processing_error": processingError,
		}).Error
}

// DeleteProcessedBefore prunes old processed events; retention is handled by
// the cleanup job.
func (r *WebhookEventRepository) DeleteProcessedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("processed_at IS NOT NULL AND created_at < ?", cutoff).
		Delete(&model.WebhookEvent{})
	return result.RowsAffected, result.Error
}
