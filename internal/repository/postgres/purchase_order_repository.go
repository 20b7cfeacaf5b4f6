// internal/repository/postgres/purchase_order_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shelfwatch/backend-go/internal/domain"
)

type purchaseOrderRepository struct {
	db *DB
}

func NewPurchaseOrderRepository(db *DB) *purchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

// UpcomingOrders returns the outstanding PO lines for a product. Lines with a
// null ETA are included; the merge engine decides what to do with them.
func (r *purchaseOrderRepository) UpcomingOrders(ctx context.Context, productID int64) ([]domain.PurchaseOrderEvent, error) {
	query := `
		SELECT
			po_date,
			eta_date,
			incoming_qty
		FROM purchase_order_events
		WHERE product_id = $1
		  AND fulfilled_at IS NULL
		ORDER BY po_date ASC
	`

	var events []domain.PurchaseOrderEvent
	if err := sqlx.SelectContext(ctx, r.db, &events, query, productID); err != nil {
		return nil, fmt.Errorf("failed to get upcoming purchase orders: %w", err)
	}

	return events, nil
}
