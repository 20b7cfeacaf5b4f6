// internal/repository/postgres/forecast_period_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shelfwatch/backend-go/internal/domain"
)

type forecastPeriodRepository struct {
	db *DB
}

func NewForecastPeriodRepository(db *DB) *forecastPeriodRepository {
	return &forecastPeriodRepository{db: db}
}

func (r *forecastPeriodRepository) List(ctx context.Context, productID int64) ([]domain.ForecastPeriod, error) {
	query := `
		SELECT
			client_id,
			product_id,
			start_date,
			end_date,
			daily_rate
		FROM forecast_periods
		WHERE product_id = $1
		ORDER BY start_date ASC
	`

	var periods []domain.ForecastPeriod
	if err := sqlx.SelectContext(ctx, r.db, &periods, query, productID); err != nil {
		return nil, fmt.Errorf("failed to list forecast periods: %w", err)
	}

	return periods, nil
}

// Save replaces the full period set for a product. The set is small and the
// validated list is authoritative, so replace-all keeps storage and the
// in-memory set trivially consistent.
func (r *forecastPeriodRepository) Save(ctx context.Context, productID int64, periods []domain.ForecastPeriod) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM forecast_periods WHERE product_id = $1`, productID); err != nil {
			return fmt.Errorf("failed to clear forecast periods: %w", err)
		}

		query := `
			INSERT INTO forecast_periods (
				client_id, product_id, start_date, end_date, daily_rate, updated_at
			) VALUES ($1, $2, $3, $4, $5, NOW())
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range periods {
			if _, err := stmt.ExecContext(ctx, p.ClientID, productID, p.StartDate, p.EndDate, p.DailyRate); err != nil {
				return fmt.Errorf("failed to insert forecast period: %w", err)
			}
		}

		return nil
	})
}
