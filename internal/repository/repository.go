// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/shelfwatch/backend-go/internal/domain"
)

// ProductRepository resolves between the external product code used by the
// report collaborators and the internal id purchase orders are keyed by.
type ProductRepository interface {
	IDByCode(ctx context.Context, code string) (int64, error)
	CodeByID(ctx context.Context, id int64) (string, error)
}

// SalesHistoryRepository reads per-day historical sales for a product.
type SalesHistoryRepository interface {
	PastSales(ctx context.Context, productCode string) ([]domain.DailyActual, error)
}

// ProjectionRepository reads the depletion projections materialized by the
// external report generator, and can ask it to regenerate.
type ProjectionRepository interface {
	Projections(ctx context.Context, productCode string) ([]domain.DailyProjection, error)
	MarkForRefresh(ctx context.Context, productCode string) error
	ActiveProductCodes(ctx context.Context) ([]string, error)
}

// PurchaseOrderRepository reads outstanding purchase-order lines per product.
type PurchaseOrderRepository interface {
	UpcomingOrders(ctx context.Context, productID int64) ([]domain.PurchaseOrderEvent, error)
}

// ForecastPeriodRepository persists forecast periods. Invariant checks happen
// in the forecastperiod package before any call lands here.
type ForecastPeriodRepository interface {
	List(ctx context.Context, productID int64) ([]domain.ForecastPeriod, error)
	Save(ctx context.Context, productID int64, periods []domain.ForecastPeriod) error
}
