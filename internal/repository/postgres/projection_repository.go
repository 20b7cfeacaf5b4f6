// internal/repository/postgres/projection_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shelfwatch/backend-go/internal/domain"
)

type projectionRepository struct {
	db *DB
}

func NewProjectionRepository(db *DB) *projectionRepository {
	return &projectionRepository{db: db}
}

func (r *projectionRepository) Projections(ctx context.Context, productCode string) ([]domain.DailyProjection, error) {
	query := `
		SELECT
			d.forecast_date,
			d.day_name,
			d.remaining_stock,
			d.daily_forecast,
			d.status_flag,
			d.eta_date,
			d.incoming_quantity,
			d.required_order_quantity,
			d.reorder_lead_time,
			d.updated_at
		FROM depletion_projections d
		JOIN products p ON d.product_id = p.id
		WHERE p.code = $1
		ORDER BY d.forecast_date ASC
	`

	var projections []domain.DailyProjection
	if err := sqlx.SelectContext(ctx, r.db, &projections, query, productCode); err != nil {
		return nil, fmt.Errorf("failed to get depletion projections: %w", err)
	}

	return projections, nil
}

// MarkForRefresh flags a product so the external report generator regenerates
// its projection horizon on the next pass.
func (r *projectionRepository) MarkForRefresh(ctx context.Context, productCode string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE products
			SET projection_refresh_requested_at = NOW()
			WHERE code = $1
		`
		res, err := tx.ExecContext(ctx, query, productCode)
		if err != nil {
			return fmt.Errorf("failed to mark product for refresh: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("unknown product code %s", productCode)
		}
		return nil
	})
}

func (r *projectionRepository) ActiveProductCodes(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT p.code
		FROM depletion_projections d
		JOIN products p ON d.product_id = p.id
		ORDER BY p.code
	`

	var codes []string
	if err := sqlx.SelectContext(ctx, r.db, &codes, query); err != nil {
		return nil, fmt.Errorf("failed to list active product codes: %w", err)
	}

	return codes, nil
}
