package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// AccessChecker проверяет, может ли пользователь подписаться на переписку.
type AccessChecker interface {
	CanAccessConversation(ctx context.Context, userID, conversationID uuid.UUID) (bool, error)
}

// Client представляет одно подключение WebSocket.
type Client struct {
	conn          *websocket.Conn
	hub           *Hub
	userID        uuid.UUID
	send          chan []byte
	access        AccessChecker
	subscriptions map[uuid.UUID]struct{}
}

// clientCommand входящее сообщение от клиента.
type clientCommand struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
}

// NewClient создаёт нового клиента.
func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID, access AccessChecker) *Client {
	return &Client{
		conn:          conn,
		hub:           hub,
		userID:        userID,
		send:          make(chan []byte, 16),
		access:        access,
		subscriptions: make(map[uuid.UUID]struct{}),
	}
}

// Run запускает обработку входящих и исходящих сообщений.
func (c *Client) Run(ctx context.Context) {
	go c.writePumpSafe()
	c.readPump(ctx)
}

// writePumpSafe запускает writePump с обработкой panic
func (c *Client) writePumpSafe() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("WebSocket writePump panic recovered: %v\nStack trace:\n%s\n", r, debug.Stack())
			c.Close()
		}
	}()
	c.writePump()
}

// Close закрывает соединение.
func (c *Client) Close() {
	c.hub.Unregister(c)
	c.conn.Close()
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("WebSocket readPump panic recovered: %v\nStack trace:\n%s\n", r, debug.Stack())
		}
		c.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, raw, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					fmt.Printf("ws: неожиданное закрытие соединения: %v\n", err)
				}
				return
			}
			c.handleCommand(ctx, raw)
		}
	}
}

// handleCommand обрабатывает команды подписки от клиента. Некорректные
// команды молча игнорируются.
func (c *Client) handleCommand(ctx context.Context, raw []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return
	}

	conversationID, err := uuid.Parse(cmd.ConversationID)
	if err != nil {
		return
	}

	switch cmd.Action {
	case "subscribe":
		if c.access != nil {
			ok, err := c.access.CanAccessConversation(ctx, c.userID, conversationID)
			if err != nil || !ok {
				return
			}
		}
		c.hub.Subscribe(c, conversationID)
	case "unsubscribe":
		c.hub.Unsubscribe(c, conversationID)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
