package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceRequest описывает заявку покупателя на индивидуальную работу.
// Переговоры идут по строгой цепочке: pending → accepted_by_creator →
// confirmed_by_customer, без пропуска и отката состояний.
type ServiceRequest struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ConversationID    uuid.UUID  `db:"conversation_id" json:"conversation_id"`
	CustomerID        uuid.UUID  `db:"customer_id" json:"customer_id"`
	Requirements      string     `db:"requirements" json:"requirements"`
	ProposedBudget    *float64   `db:"proposed_budget" json:"proposed_budget,omitempty"`
	Currency          string     `db:"currency" json:"currency"`
	Status            string     `db:"status" json:"status"`
	CreatorDeadlineAt *time.Time `db:"creator_deadline_at" json:"creator_deadline_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// DeadlineChange описывает предложение создателя перенести согласованный
// дедлайн. Для одной заявки может существовать не больше одного
// предложения в статусе pending.
type DeadlineChange struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	ServiceRequestID   uuid.UUID `db:"service_request_id" json:"service_request_id"`
	CreatorID          uuid.UUID `db:"creator_id" json:"creator_id"`
	ProposedDeadlineAt time.Time `db:"proposed_deadline_at" json:"proposed_deadline_at"`
	Reason             *string   `db:"reason" json:"reason,omitempty"`
	Status             string    `db:"status" json:"status"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
