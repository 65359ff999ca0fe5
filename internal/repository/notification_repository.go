package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/models"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/repository/common"
)

// ErrNotificationNotFound ошибка уровня репозитория.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository отвечает за сохранённые уведомления пользователей.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository создаёт новый экземпляр.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create сохраняет уведомление.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, payload, is_read)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, n.UserID, n.Payload, n.IsRead).
		Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}

// GetByID возвращает уведомление по идентификатору.
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return common.GetByID[models.Notification](ctx, r.db, "notifications", id, ErrNotificationNotFound)
}

// List возвращает уведомления пользователя, свежие сверху.
func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := `
		SELECT id, user_id, payload, is_read, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("notification repository: list %w", err)
	}
	return notifications, nil
}

// MarkAsRead помечает уведомление прочитанным.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: mark as read %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead помечает все уведомления пользователя прочитанными.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID,
	); err != nil {
		return fmt.Errorf("notification repository: mark all as read %w", err)
	}
	return nil
}

// Delete удаляет уведомление.
func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: delete %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// CountUnread возвращает число непрочитанных уведомлений пользователя.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("notification repository: count unread %w", err)
	}
	return count, nil
}
