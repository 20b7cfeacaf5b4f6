// internal/repository/postgres/sales_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shelfwatch/backend-go/internal/domain"
)

type salesHistoryRepository struct {
	db *DB
}

func NewSalesHistoryRepository(db *DB) *salesHistoryRepository {
	return &salesHistoryRepository{db: db}
}

func (r *salesHistoryRepository) PastSales(ctx context.Context, productCode string) ([]domain.DailyActual, error) {
	query := `
		SELECT
			a.date,
			a.units_sold,
			a.daily_forecast
		FROM daily_sales_actuals a
		JOIN products p ON a.product_id = p.id
		WHERE p.code = $1
		ORDER BY a.date ASC
	`

	var actuals []domain.DailyActual
	if err := sqlx.SelectContext(ctx, r.db, &actuals, query, productCode); err != nil {
		return nil, fmt.Errorf("failed to get past sales: %w", err)
	}

	return actuals, nil
}
