package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/models"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/repository/common"
)

// Ошибки уровня репозитория.
var (
	ErrConversationNotFound      = errors.New("conversation not found")
	ErrMessageRequestNotFound    = errors.New("message request not found")
	ErrPendingConversationExists = errors.New("pending conversation already exists")
)

// ConversationRepository отвечает за переписки, запросы на переписку и сообщения.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository создаёт новый экземпляр.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetByID возвращает переписку по идентификатору.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	return common.GetByID[models.Conversation](ctx, r.db, "conversations", id, ErrConversationNotFound)
}

// GetRequestByConversation возвращает запрос на переписку по идентификатору беседы.
func (r *ConversationRepository) GetRequestByConversation(ctx context.Context, conversationID uuid.UUID) (*models.MessageRequest, error) {
	var req models.MessageRequest
	query := `
		SELECT id, conversation_id, customer_id, first_message_text, status, created_at
		FROM message_requests
		WHERE conversation_id = $1
	`
	if err := r.db.GetContext(ctx, &req, query, conversationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageRequestNotFound
		}
		return nil, fmt.Errorf("conversation repository: get request %w", err)
	}
	return &req, nil
}

// FindBetween возвращает все переписки пары создатель/покупатель.
func (r *ConversationRepository) FindBetween(ctx context.Context, creatorID, customerID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	query := `
		SELECT id, creator_id, customer_id, status, created_at, last_message_at
		FROM conversations
		WHERE creator_id = $1 AND customer_id = $2
	`
	if err := r.db.SelectContext(ctx, &convs, query, creatorID, customerID); err != nil {
		return nil, fmt.Errorf("conversation repository: find between %w", err)
	}
	return convs, nil
}

// CountMessages возвращает количество сообщений в переписке.
func (r *ConversationRepository) CountMessages(ctx context.Context, conversationID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`
	if err := r.db.GetContext(ctx, &count, query, conversationID); err != nil {
		return 0, fmt.Errorf("conversation repository: count messages %w", err)
	}
	return count, nil
}

// CreateWithRequest сохраняет переписку и запрос на неё в одной транзакции.
// Частичный уникальный индекс uniq_pending_conversation страхует инвариант
// "один ожидающий запрос на пару" на уровне БД: проигравший гонку insert
// возвращает ErrPendingConversationExists.
func (r *ConversationRepository) CreateWithRequest(ctx context.Context, conv *models.Conversation, req *models.MessageRequest) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		convQuery := `
			INSERT INTO conversations (creator_id, customer_id, status)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`
		if err := tx.QueryRowxContext(ctx, convQuery, conv.CreatorID, conv.CustomerID, conv.Status).
			Scan(&conv.ID, &conv.CreatedAt); err != nil {
			if common.IsUniqueViolation(err, "uniq_pending_conversation") {
				return ErrPendingConversationExists
			}
			return fmt.Errorf("conversation repository: insert conversation %w", err)
		}

		req.ConversationID = conv.ID
		reqQuery := `
			INSERT INTO message_requests (conversation_id, customer_id, first_message_text, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`
		if err := tx.QueryRowxContext(ctx, reqQuery, req.ConversationID, req.CustomerID, req.FirstMessageText, req.Status).
			Scan(&req.ID, &req.CreatedAt); err != nil {
			return fmt.Errorf("conversation repository: insert message request %w", err)
		}

		return nil
	})
}

// Accept переводит переписку в активный статус и фиксирует решение по запросу.
// Если передано первое сообщение, оно вставляется той же транзакцией,
// а last_message_at переписки обновляется.
func (r *ConversationRepository) Accept(ctx context.Context, conv *models.Conversation, req *models.MessageRequest, firstMessage *models.Message) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE conversations SET status = $1 WHERE id = $2 AND status = $3`,
			models.ConversationStatusActive, conv.ID, models.ConversationStatusPending,
		)
		if err != nil {
			return fmt.Errorf("conversation repository: activate conversation %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrConversationNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE message_requests SET status = $1 WHERE id = $2`,
			models.MessageRequestStatusAccepted, req.ID,
		); err != nil {
			return fmt.Errorf("conversation repository: accept request %w", err)
		}

		if firstMessage != nil {
			if err := insertMessageTx(ctx, tx, firstMessage); err != nil {
				return err
			}
			conv.LastMessageAt = &firstMessage.CreatedAt
		}

		conv.Status = models.ConversationStatusActive
		req.Status = models.MessageRequestStatusAccepted
		return nil
	})
}

// DeleteWithRequest жёстко удаляет запрос и переписку одной транзакцией.
// Статус запроса перед удалением помечается как declined для единообразия
// возвращаемого объекта; в хранилище следов не остаётся.
func (r *ConversationRepository) DeleteWithRequest(ctx context.Context, conversationID uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM message_requests WHERE conversation_id = $1`, conversationID,
		); err != nil {
			return fmt.Errorf("conversation repository: delete request %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM conversations WHERE id = $1`, conversationID,
		)
		if err != nil {
			return fmt.Errorf("conversation repository: delete conversation %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrConversationNotFound
		}
		return nil
	})
}

// AddMessage вставляет сообщение и обновляет last_message_at одной транзакцией.
func (r *ConversationRepository) AddMessage(ctx context.Context, msg *models.Message) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertMessageTx(ctx, tx, msg)
	})
}

// insertMessageTx вставляет сообщение и двигает указатель last_message_at.
func insertMessageTx(ctx context.Context, tx *sqlx.Tx, msg *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, sender_id, body, type, attachment_url, attachment_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	if err := tx.QueryRowxContext(ctx, query,
		msg.ConversationID, msg.SenderID, msg.Body, msg.Type, msg.AttachmentURL, msg.AttachmentType,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("conversation repository: insert message %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_at = $1 WHERE id = $2`,
		msg.CreatedAt, msg.ConversationID,
	); err != nil {
		return fmt.Errorf("conversation repository: update last_message_at %w", err)
	}

	return nil
}

// ListMessages возвращает сообщения переписки по возрастанию created_at.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	query := `
		SELECT id, conversation_id, sender_id, body, type, attachment_url, attachment_type, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit, offset); err != nil {
		return nil, fmt.Errorf("conversation repository: list messages %w", err)
	}
	return messages, nil
}

// ListForUser возвращает переписки пользователя, свежие сверху:
// сортировка по last_message_at, а для пустых переписок — по created_at.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	var convs []models.Conversation
	query := `
		SELECT id, creator_id, customer_id, status, created_at, last_message_at
		FROM conversations
		WHERE creator_id = $1 OR customer_id = $1
		ORDER BY COALESCE(last_message_at, created_at) DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &convs, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("conversation repository: list for user %w", err)
	}
	return convs, nil
}
