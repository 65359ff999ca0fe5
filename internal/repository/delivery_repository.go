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

// ErrDeliveryNotFound ошибка уровня репозитория.
var ErrDeliveryNotFound = errors.New("delivery not found")

// DeliveryRepository отвечает за выдачи продуктов в переписках.
type DeliveryRepository struct {
	db *sqlx.DB
}

// NewDeliveryRepository создаёт новый экземпляр.
func NewDeliveryRepository(db *sqlx.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// GetByID возвращает выдачу по идентификатору.
func (r *DeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	return common.GetByID[models.Delivery](ctx, r.db, "deliveries", id, ErrDeliveryNotFound)
}

// Create сохраняет новую выдачу.
func (r *DeliveryRepository) Create(ctx context.Context, d *models.Delivery) error {
	query := `
		INSERT INTO deliveries (conversation_id, service_request_id, product_id, price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		d.ConversationID, d.ServiceRequestID, d.ProductID, d.Price, d.Status,
	).Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("delivery repository: create %w", err)
	}
	return nil
}

// CreateWithProduct создаёт непубличный продукт и выдачу одной транзакцией.
// Если любая из вставок не проходит, не сохраняется ничего.
func (r *DeliveryRepository) CreateWithProduct(ctx context.Context, product *models.Product, d *models.Delivery) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		productQuery := `
			INSERT INTO products (creator_id, name, description, price, currency, permalink, is_public)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`
		if err := tx.QueryRowxContext(ctx, productQuery,
			product.CreatorID, product.Name, product.Description, product.Price,
			product.Currency, product.Permalink, product.IsPublic,
		).Scan(&product.ID, &product.CreatedAt); err != nil {
			return fmt.Errorf("delivery repository: insert product %w", err)
		}

		d.ProductID = product.ID
		deliveryQuery := `
			INSERT INTO deliveries (conversation_id, service_request_id, product_id, price, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`
		if err := tx.QueryRowxContext(ctx, deliveryQuery,
			d.ConversationID, d.ServiceRequestID, d.ProductID, d.Price, d.Status,
		).Scan(&d.ID, &d.CreatedAt); err != nil {
			return fmt.Errorf("delivery repository: insert delivery %w", err)
		}

		return nil
	})
}

// MarkPurchasedIfAwaiting атомарно переводит выдачу из awaiting_purchase
// в purchased. Возвращает false, если статус уже изменился.
func (r *DeliveryRepository) MarkPurchasedIfAwaiting(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE deliveries
		SET status = $1
		WHERE id = $2 AND status = $3
	`, models.DeliveryStatusPurchased, id, models.DeliveryStatusAwaitingPurchase)
	if err != nil {
		return false, fmt.Errorf("delivery repository: mark purchased %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delivery repository: mark purchased rows affected %w", err)
	}
	return affected > 0, nil
}

// ExistsPurchasedForServiceRequest проверяет, есть ли купленная выдача,
// ссылающаяся на заявку. Блокирует отклонение уже оплаченной работы.
func (r *DeliveryRepository) ExistsPurchasedForServiceRequest(ctx context.Context, serviceRequestID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM deliveries
			WHERE service_request_id = $1 AND status = $2
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, serviceRequestID, models.DeliveryStatusPurchased); err != nil {
		return false, fmt.Errorf("delivery repository: exists purchased %w", err)
	}
	return exists, nil
}

// ListByConversation возвращает выдачи переписки по возрастанию created_at.
func (r *DeliveryRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	query := `
		SELECT id, conversation_id, service_request_id, product_id, price, status, created_at
		FROM deliveries
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &deliveries, query, conversationID); err != nil {
		return nil, fmt.Errorf("delivery repository: list by conversation %w", err)
	}
	return deliveries, nil
}

// ListCompletedForCreator возвращает купленные выдачи создателя
// через связь с его переписками, свежие сверху.
func (r *DeliveryRepository) ListCompletedForCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	query := `
		SELECT d.id, d.conversation_id, d.service_request_id, d.product_id, d.price, d.status, d.created_at
		FROM deliveries d
		JOIN conversations c ON c.id = d.conversation_id
		WHERE c.creator_id = $1 AND d.status = $2
		ORDER BY d.created_at DESC
		LIMIT $3 OFFSET $4
	`
	if err := r.db.SelectContext(ctx, &deliveries, query, creatorID, models.DeliveryStatusPurchased, limit, offset); err != nil {
		return nil, fmt.Errorf("delivery repository: list completed for creator %w", err)
	}
	return deliveries, nil
}
