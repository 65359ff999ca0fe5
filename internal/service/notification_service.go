package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/models"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/pkg/apperror"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/repository"
)

// NotificationRepository описывает взаимодействие с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService ведёт ленту адресных событий пользователя.
// События пишутся хабом при каждой адресной рассылке, чтобы клиент,
// который был офлайн, мог дочитать пропущенное после переподключения.
type NotificationService struct {
	repo NotificationRepository
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// SaveEvent сохраняет адресное событие. Формат payload совпадает с кадром
// WebSocket: {"type": имя события, "data": нагрузка}.
func (s *NotificationService) SaveEvent(ctx context.Context, userID uuid.UUID, event string, data any) error {
	payload, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("notification service: marshal payload %w", err)
	}
	return s.repo.Create(ctx, &models.Notification{
		UserID:  userID,
		Payload: payload,
	})
}

// ListNotifications возвращает страницу уведомлений пользователя.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// CountUnread возвращает число непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkAsRead помечает уведомление прочитанным. Чужие уведомления недоступны.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	n, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkAsRead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return nil, apperror.ErrNotificationNotFound
		}
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

// MarkAllAsRead помечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// DeleteNotification удаляет уведомление пользователя.
func (s *NotificationService) DeleteNotification(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *NotificationService) getOwned(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return nil, apperror.ErrNotificationNotFound
		}
		return nil, err
	}
	if n.UserID != userID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "уведомление принадлежит другому пользователю")
	}
	return n, nil
}
