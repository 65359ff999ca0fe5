package ws

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type savedEvent struct {
	userID uuid.UUID
	event  string
}

type recordingSaver struct {
	saved chan savedEvent
}

func (s *recordingSaver) SaveEvent(ctx context.Context, userID uuid.UUID, event string, data any) error {
	s.saved <- savedEvent{userID: userID, event: event}
	return nil
}

func TestHub_BroadcastToUser_SavesNotification(t *testing.T) {
	hub := NewHub(context.Background())
	saver := &recordingSaver{saved: make(chan savedEvent, 1)}
	hub.SetNotificationSaver(saver)

	userID := uuid.New()
	err := hub.BroadcastToUser(userID, "delivery.created", map[string]any{"price": 75})
	assert.NoError(t, err)

	select {
	case got := <-saver.saved:
		assert.Equal(t, userID, got.userID)
		assert.Equal(t, "delivery.created", got.event)
	case <-time.After(time.Second):
		t.Fatal("событие не сохранено в ленту уведомлений")
	}
}

func TestHub_BroadcastToUser_WithoutSaver(t *testing.T) {
	hub := NewHub(context.Background())

	err := hub.BroadcastToUser(uuid.New(), "message.created", nil)

	assert.NoError(t, err)
}
