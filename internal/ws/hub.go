package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/goroutine"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/logger"
)

// NotificationSaver сохраняет адресные события для просмотра после
// переподключения. Сохранение best-effort: ошибка не мешает рассылке.
type NotificationSaver interface {
	SaveEvent(ctx context.Context, userID uuid.UUID, event string, data any) error
}

// Hub управляет всеми WebSocket клиентами и подписками на переписки.
type Hub struct {
	mu            sync.RWMutex
	clients       map[uuid.UUID]map[*Client]struct{}
	conversations map[uuid.UUID]map[*Client]struct{}
	register      chan *Client
	unregister    chan *Client
	broadcast     chan message

	ctx   context.Context
	saver NotificationSaver
}

type message struct {
	userID         uuid.UUID
	conversationID uuid.UUID
	payload        []byte
}

// NewHub создаёт новый хаб. Контекст ограничивает фоновые записи
// уведомлений временем жизни процесса.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:       make(map[uuid.UUID]map[*Client]struct{}),
		conversations: make(map[uuid.UUID]map[*Client]struct{}),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan message, 32),
		ctx:           ctx,
	}
}

// SetNotificationSaver подключает сохранение адресных событий.
func (h *Hub) SetNotificationSaver(saver NotificationSaver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saver = saver
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			if msg.conversationID != uuid.Nil {
				h.sendToConversation(msg.conversationID, msg.payload)
			} else {
				h.sendToUser(msg.userID, msg.payload)
			}
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToUser отправляет событие всем подключениям пользователя
// и параллельно сохраняет его в ленту уведомлений, если подключён saver.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	raw, err := marshalEvent(event, "", data)
	if err != nil {
		return err
	}

	h.mu.RLock()
	saver := h.saver
	h.mu.RUnlock()
	if saver != nil {
		goroutine.SafeGoWithContext(h.ctx, func(ctx context.Context) {
			if err := saver.SaveEvent(ctx, userID, event, data); err != nil {
				logger.Errorf("ws: не удалось сохранить уведомление пользователя %s: %v", userID, err)
			}
		})
	}

	h.broadcast <- message{userID: userID, payload: raw}
	return nil
}

// BroadcastToConversation отправляет событие всем подписчикам переписки.
func (h *Hub) BroadcastToConversation(conversationID uuid.UUID, event string, data any) error {
	raw, err := marshalEvent(event, conversationID.String(), data)
	if err != nil {
		return err
	}
	h.broadcast <- message{conversationID: conversationID, payload: raw}
	return nil
}

// marshalEvent сериализует событие по контракту WebSocket API: поле "type"
// содержит имя события, "channel" — переписку (если есть), "data" — нагрузку.
func marshalEvent(event, channel string, data any) ([]byte, error) {
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	if channel != "" {
		payload["channel"] = channel
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}
	return raw, nil
}

// Subscribe подписывает клиента на события переписки. Право доступа к
// переписке проверяет вызывающий код до подписки.
func (h *Hub) Subscribe(client *Client, conversationID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conversations[conversationID]; !ok {
		h.conversations[conversationID] = make(map[*Client]struct{})
	}
	h.conversations[conversationID][client] = struct{}{}
	client.subscriptions[conversationID] = struct{}{}
}

// Unsubscribe снимает подписку клиента с переписки.
func (h *Hub) Unsubscribe(client *Client, conversationID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropSubscription(client, conversationID)
}

func (h *Hub) dropSubscription(client *Client, conversationID uuid.UUID) {
	if clients, ok := h.conversations[conversationID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.conversations, conversationID)
		}
	}
	delete(client.subscriptions, conversationID)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conversationID := range client.subscriptions {
		h.dropSubscription(client, conversationID)
	}

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) sendToUser(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		h.deliver(client, payload)
	}
}

func (h *Hub) sendToConversation(conversationID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.conversations[conversationID] {
		h.deliver(client, payload)
	}
}

func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		// Очередь клиента переполнена, закрываем соединение асинхронно
		goroutine.SafeGo(client.Close)
	}
}
