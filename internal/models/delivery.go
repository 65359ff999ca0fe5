package models

import (
	"time"

	"github.com/google/uuid"
)

// Delivery описывает выдачу готового продукта в переписке.
// Если выдача ссылается на заявку, заявка обязана быть подтверждена
// покупателем на момент создания.
type Delivery struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ConversationID   uuid.UUID  `db:"conversation_id" json:"conversation_id"`
	ServiceRequestID *uuid.UUID `db:"service_request_id" json:"service_request_id,omitempty"`
	ProductID        uuid.UUID  `db:"product_id" json:"product_id"`
	Price            float64    `db:"price" json:"price"`
	Status           string     `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// Product описывает продукт из каталога. Непубличные продукты создаются
// прямо из переписки при выдаче индивидуальной работы.
type Product struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CreatorID   uuid.UUID `db:"creator_id" json:"creator_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Price       float64   `db:"price" json:"price"`
	Currency    string    `db:"currency" json:"currency"`
	Permalink   string    `db:"permalink" json:"permalink"`
	IsPublic    bool      `db:"is_public" json:"is_public"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ProductFile описывает файл, входящий в состав продукта.
type ProductFile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	FileURL   string    `db:"file_url" json:"file_url"`
	FileType  string    `db:"file_type" json:"file_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
