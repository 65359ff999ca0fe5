package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation описывает переписку между покупателем и создателем контента.
// Создаётся всегда через запрос на переписку и становится активной
// только после одобрения создателем.
type Conversation struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	CreatorID     uuid.UUID  `db:"creator_id" json:"creator_id"`
	CustomerID    uuid.UUID  `db:"customer_id" json:"customer_id"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
}

// IsParticipant проверяет, является ли пользователь стороной переписки.
func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	return c.CreatorID == userID || c.CustomerID == userID
}

// MessageRequest описывает заявку покупателя на открытие переписки.
// Связана с беседой один к одному; при отклонении обе записи удаляются.
type MessageRequest struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ConversationID   uuid.UUID `db:"conversation_id" json:"conversation_id"`
	CustomerID       uuid.UUID `db:"customer_id" json:"customer_id"`
	FirstMessageText string    `db:"first_message_text" json:"first_message_text"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Message описывает сообщение в переписке. Лог сообщений только дополняется,
// порядок определяется полем created_at.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Body           string    `db:"body" json:"body"`
	Type           string    `db:"type" json:"type"`
	AttachmentURL  *string   `db:"attachment_url" json:"attachment_url,omitempty"`
	AttachmentType *string   `db:"attachment_type" json:"attachment_type,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
