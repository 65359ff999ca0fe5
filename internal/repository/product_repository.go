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

// ErrProductNotFound ошибка уровня репозитория.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository отвечает за каталог продуктов.
// Движок переговоров использует его только для чтения и для создания
// непубличных продуктов при выдаче индивидуальной работы.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository создаёт новый экземпляр.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID возвращает продукт по идентификатору.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return common.GetByID[models.Product](ctx, r.db, "products", id, ErrProductNotFound)
}

// PermalinkExists проверяет занятость permalink.
func (r *ProductRepository) PermalinkExists(ctx context.Context, permalink string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE permalink = $1)`
	if err := r.db.GetContext(ctx, &exists, query, permalink); err != nil {
		return false, fmt.Errorf("product repository: permalink exists %w", err)
	}
	return exists, nil
}

// GetFiles возвращает файлы продукта.
func (r *ProductRepository) GetFiles(ctx context.Context, productID uuid.UUID) ([]models.ProductFile, error) {
	var files []models.ProductFile
	query := `
		SELECT id, product_id, file_url, file_type, created_at
		FROM product_files
		WHERE product_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &files, query, productID); err != nil {
		return nil, fmt.Errorf("product repository: get files %w", err)
	}
	return files, nil
}
