package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/models"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/repository/common"
)

// Ошибки уровня репозитория.
var (
	ErrServiceRequestNotFound      = errors.New("service request not found")
	ErrDeadlineChangeNotFound      = errors.New("deadline change not found")
	ErrPendingDeadlineChangeExists = errors.New("pending deadline change already exists")
)

// ServiceRequestRepository отвечает за заявки на индивидуальную работу
// и предложения о переносе дедлайна.
type ServiceRequestRepository struct {
	db *sqlx.DB
}

// NewServiceRequestRepository создаёт новый экземпляр.
func NewServiceRequestRepository(db *sqlx.DB) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db}
}

// GetByID возвращает заявку по идентификатору.
func (r *ServiceRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	return common.GetByID[models.ServiceRequest](ctx, r.db, "service_requests", id, ErrServiceRequestNotFound)
}

// Create сохраняет новую заявку.
func (r *ServiceRequestRepository) Create(ctx context.Context, sr *models.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (conversation_id, customer_id, requirements, proposed_budget, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		sr.ConversationID, sr.CustomerID, sr.Requirements, sr.ProposedBudget, sr.Currency, sr.Status,
	).Scan(&sr.ID, &sr.CreatedAt); err != nil {
		return fmt.Errorf("service request repository: create %w", err)
	}
	return nil
}

// ListByConversation возвращает заявки переписки по возрастанию created_at.
func (r *ServiceRequestRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	var srs []models.ServiceRequest
	query := `
		SELECT id, conversation_id, customer_id, requirements, proposed_budget, currency, status, creator_deadline_at, created_at
		FROM service_requests
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &srs, query, conversationID, limit, offset); err != nil {
		return nil, fmt.Errorf("service request repository: list by conversation %w", err)
	}
	return srs, nil
}

// AcceptIfPending атомарно переводит заявку из pending в accepted_by_creator
// и записывает дедлайн создателя. Возвращает false, если заявка уже не pending:
// сравнение статуса в условии UPDATE исключает гонку двух параллельных принятий.
func (r *ServiceRequestRepository) AcceptIfPending(ctx context.Context, id uuid.UUID, deadline time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE service_requests
		SET status = $1, creator_deadline_at = $2
		WHERE id = $3 AND status = $4
	`, models.ServiceRequestStatusAcceptedByCreator, deadline, id, models.ServiceRequestStatusPending)
	if err != nil {
		return false, fmt.Errorf("service request repository: accept %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("service request repository: accept rows affected %w", err)
	}
	return affected > 0, nil
}

// ConfirmIfAccepted атомарно переводит заявку из accepted_by_creator
// в confirmed_by_customer. Возвращает false при несовпадении статуса.
func (r *ServiceRequestRepository) ConfirmIfAccepted(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE service_requests
		SET status = $1
		WHERE id = $2 AND status = $3
	`, models.ServiceRequestStatusConfirmedByCustomer, id, models.ServiceRequestStatusAcceptedByCreator)
	if err != nil {
		return false, fmt.Errorf("service request repository: confirm %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("service request repository: confirm rows affected %w", err)
	}
	return affected > 0, nil
}

// Delete жёстко удаляет заявку вместе с историей предложений о дедлайне.
func (r *ServiceRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM service_request_deadline_changes WHERE service_request_id = $1`, id,
		); err != nil {
			return fmt.Errorf("service request repository: delete deadline changes %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("service request repository: delete %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrServiceRequestNotFound
		}
		return nil
	})
}

// CreateDeadlineChange сохраняет предложение о переносе дедлайна.
// Частичный уникальный индекс по (service_request_id) WHERE status = 'pending'
// страхует инвариант "не больше одного pending предложения" на уровне БД:
// проигравший гонку insert возвращает ErrPendingDeadlineChangeExists.
func (r *ServiceRequestRepository) CreateDeadlineChange(ctx context.Context, dc *models.DeadlineChange) error {
	query := `
		INSERT INTO service_request_deadline_changes (service_request_id, creator_id, proposed_deadline_at, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		dc.ServiceRequestID, dc.CreatorID, dc.ProposedDeadlineAt, dc.Reason, dc.Status,
	).Scan(&dc.ID, &dc.CreatedAt); err != nil {
		if common.IsUniqueViolation(err, "uniq_pending_deadline_change") {
			return ErrPendingDeadlineChangeExists
		}
		return fmt.Errorf("service request repository: create deadline change %w", err)
	}
	return nil
}

// GetDeadlineChangeByID возвращает предложение по идентификатору.
func (r *ServiceRequestRepository) GetDeadlineChangeByID(ctx context.Context, id uuid.UUID) (*models.DeadlineChange, error) {
	var dc models.DeadlineChange
	query := `
		SELECT id, service_request_id, creator_id, proposed_deadline_at, reason, status, created_at
		FROM service_request_deadline_changes
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &dc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeadlineChangeNotFound
		}
		return nil, fmt.Errorf("service request repository: get deadline change %w", err)
	}
	return &dc, nil
}

// GetPendingDeadlineChange возвращает pending предложение заявки или nil.
func (r *ServiceRequestRepository) GetPendingDeadlineChange(ctx context.Context, serviceRequestID uuid.UUID) (*models.DeadlineChange, error) {
	var dc models.DeadlineChange
	query := `
		SELECT id, service_request_id, creator_id, proposed_deadline_at, reason, status, created_at
		FROM service_request_deadline_changes
		WHERE service_request_id = $1 AND status = $2
	`
	if err := r.db.GetContext(ctx, &dc, query, serviceRequestID, models.DeadlineChangeStatusPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("service request repository: get pending deadline change %w", err)
	}
	return &dc, nil
}

// GetLatestDeadlineChange возвращает самое свежее предложение заявки или nil.
func (r *ServiceRequestRepository) GetLatestDeadlineChange(ctx context.Context, serviceRequestID uuid.UUID) (*models.DeadlineChange, error) {
	var dc models.DeadlineChange
	query := `
		SELECT id, service_request_id, creator_id, proposed_deadline_at, reason, status, created_at
		FROM service_request_deadline_changes
		WHERE service_request_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &dc, query, serviceRequestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("service request repository: get latest deadline change %w", err)
	}
	return &dc, nil
}

// ListDeadlineChanges возвращает историю предложений заявки, свежие сверху.
func (r *ServiceRequestRepository) ListDeadlineChanges(ctx context.Context, serviceRequestID uuid.UUID) ([]models.DeadlineChange, error) {
	var dcs []models.DeadlineChange
	query := `
		SELECT id, service_request_id, creator_id, proposed_deadline_at, reason, status, created_at
		FROM service_request_deadline_changes
		WHERE service_request_id = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &dcs, query, serviceRequestID); err != nil {
		return nil, fmt.Errorf("service request repository: list deadline changes %w", err)
	}
	return dcs, nil
}

// ResolveDeadlineChange атомарно фиксирует решение покупателя по pending
// предложению. При принятии той же транзакцией новый дедлайн копируется
// в заявку. Возвращает false, если предложение уже не pending.
func (r *ServiceRequestRepository) ResolveDeadlineChange(ctx context.Context, changeID uuid.UUID, accept bool) (bool, error) {
	newStatus := models.DeadlineChangeStatusDeclined
	if accept {
		newStatus = models.DeadlineChangeStatusAccepted
	}

	resolved := false
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var change models.DeadlineChange
		updateQuery := `
			UPDATE service_request_deadline_changes
			SET status = $1
			WHERE id = $2 AND status = $3
			RETURNING id, service_request_id, creator_id, proposed_deadline_at, reason, status, created_at
		`
		if err := tx.GetContext(ctx, &change, updateQuery, newStatus, changeID, models.DeadlineChangeStatusPending); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("service request repository: resolve deadline change %w", err)
		}

		if accept {
			if _, err := tx.ExecContext(ctx,
				`UPDATE service_requests SET creator_deadline_at = $1 WHERE id = $2`,
				change.ProposedDeadlineAt, change.ServiceRequestID,
			); err != nil {
				return fmt.Errorf("service request repository: apply deadline %w", err)
			}
		}

		resolved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return resolved, nil
}
