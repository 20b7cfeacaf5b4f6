// internal/repository/postgres/product_repository.go
package postgres

import (
	"context"
	"fmt"
)

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) IDByCode(ctx context.Context, code string) (int64, error) {
	var id int64
	if err := r.db.GetContext(ctx, &id, `SELECT id FROM products WHERE code = $1`, code); err != nil {
		return 0, fmt.Errorf("failed to resolve product code %s: %w", code, err)
	}
	return id, nil
}

func (r *productRepository) CodeByID(ctx context.Context, id int64) (string, error) {
	var code string
	if err := r.db.GetContext(ctx, &code, `SELECT code FROM products WHERE id = $1`, id); err != nil {
		return "", fmt.Errorf("failed to resolve product id %d: %w", id, err)
	}
	return code, nil
}
