package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estagio/estagio/pkg/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) NotificationExists(ctx context.Context, destinatario, referencia string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("destinatario = ? AND referencia = ?", destinatario, referencia).
		Count(&count).Error
	return count > 0, err
}

// CreateNotification relies on idx_notificacao_referencia; a concurrent
// insert of the same pair affects zero rows instead of failing.
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *model.Notification) (bool, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.DataEnvio.IsZero() {
		n.DataEnvio = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "destinatario"}, {Name: "referencia"}},
			DoNothing: true,
		}).
		Create(n)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, destinatario string, unreadOnly bool, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	query := r.db.WithContext(ctx).Where("destinatario = ?", destinatario)

	if unreadOnly {
		query = query.Where("lida = ?", false)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("data_envio DESC").Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, destinatario string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND destinatario = ?", id, destinatario).
		Update("lida", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "notificacao", id)
	}
	return nil
}
