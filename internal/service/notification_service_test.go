package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/models"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/pkg/apperror"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/repository"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	if args.Error(0) == nil {
		n.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset, unreadOnly)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func TestNotificationService_SaveEvent_PayloadMatchesWSFrame(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		if n.UserID != userID || n.IsRead {
			return false
		}
		var frame struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(n.Payload, &frame); err != nil {
			return false
		}
		return frame.Type == "delivery.created" && len(frame.Data) > 0
	})).Return(nil)

	err := svc.SaveEvent(ctx, userID, "delivery.created", map[string]any{"price": 75})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestNotificationService_MarkAsRead_Success(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	userID := uuid.New()
	n := &models.Notification{ID: uuid.New(), UserID: userID, Payload: []byte(`{}`)}

	repo.On("GetByID", ctx, n.ID).Return(n, nil)
	repo.On("MarkAsRead", ctx, n.ID).Return(nil)

	got, err := svc.MarkAsRead(ctx, userID, n.ID)

	assert.NoError(t, err)
	assert.True(t, got.IsRead)
}

func TestNotificationService_MarkAsRead_Foreign(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	n := &models.Notification{ID: uuid.New(), UserID: uuid.New(), Payload: []byte(`{}`)}
	repo.On("GetByID", ctx, n.ID).Return(n, nil)

	_, err := svc.MarkAsRead(ctx, uuid.New(), n.ID)

	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "MarkAsRead")
}

func TestNotificationService_MarkAsRead_NotFound(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(nil, repository.ErrNotificationNotFound)

	_, err := svc.MarkAsRead(ctx, uuid.New(), id)

	assert.True(t, apperror.IsNotFound(err))
}

func TestNotificationService_Delete_Foreign(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	n := &models.Notification{ID: uuid.New(), UserID: uuid.New(), Payload: []byte(`{}`)}
	repo.On("GetByID", ctx, n.ID).Return(n, nil)

	err := svc.DeleteNotification(ctx, uuid.New(), n.ID)

	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "Delete")
}
