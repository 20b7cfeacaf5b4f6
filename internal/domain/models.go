// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultReorderLeadTimeDays is applied when a product carries no configured
// reorder lead time.
const DefaultReorderLeadTimeDays = 100

// Alert tags surfaced on timeline entries.
const (
	AlertActual     = "Actual"
	AlertForecast   = "Forecast"
	AlertETA        = "ETA"
	AlertPlaceOrder = "Place Order"
	AlertDepletion  = "Depletion Alert"
)

// DailyActual is one historical sales row per product per calendar day.
type DailyActual struct {
	Date          time.Time `json:"date" db:"date"`
	UnitsSold     *int      `json:"units_sold" db:"units_sold"`
	DailyForecast *float64  `json:"daily_forecast" db:"daily_forecast"`
}

// DailyProjection is one forward-looking row per product per forecast day,
// produced by the external report generator and consumed here read-only.
type DailyProjection struct {
	ForecastDate          time.Time  `json:"forecast_date" db:"forecast_date"`
	DayName               string     `json:"day_name" db:"day_name"`
	RemainingStock        *int       `json:"remaining_stock" db:"remaining_stock"`
	DailyForecast         *float64   `json:"daily_forecast" db:"daily_forecast"`
	StatusFlag            *string    `json:"status_flag" db:"status_flag"`
	ETADate               *time.Time `json:"eta_date" db:"eta_date"`
	IncomingQuantity      *int       `json:"incoming_quantity" db:"incoming_quantity"`
	RequiredOrderQuantity *int       `json:"required_order_quantity" db:"required_order_quantity"`
	ReorderLeadTime       *int       `json:"reorder_lead_time" db:"reorder_lead_time"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// PurchaseOrderEvent is one outstanding PO line relevant to a product.
// Multiple events may share the same ETA date.
type PurchaseOrderEvent struct {
	PODate      time.Time  `json:"po_date" db:"po_date"`
	ETADate     *time.Time `json:"eta_date" db:"eta_date"`
	IncomingQty int        `json:"incoming_qty" db:"incoming_qty"`
}

// TimelineEntry is the unified per-day record. It is derived on every input
// change and never persisted.
type TimelineEntry struct {
	Date           time.Time  `json:"date"`
	Day            string     `json:"day"`
	RemainingStock *int       `json:"remaining_stock"`
	UnitsSold      *float64   `json:"units_sold"`
	AlertType      string     `json:"alert_type"`
	IsForecast     bool       `json:"is_forecast"`
	IsEvent        bool       `json:"is_event"`
	Note           string     `json:"note"`
	IsToday        bool       `json:"is_today"`
	ETADate        *time.Time `json:"eta_date"`
	IncomingQty    *int       `json:"incoming_qty"`
	RequiredQty    *int       `json:"required_order_qty"`

	// StatusFlag is carried through the merge so the display alert type can
	// be re-derived; it is not part of the presentation payload.
	StatusFlag *string `json:"-"`
}

// ForecastPeriod is a non-overlapping daily-sales-rate interval consumed by
// the downstream forecast generator. ClientID targets edits/deletes before a
// period is persisted.
type ForecastPeriod struct {
	ClientID  string          `json:"client_id" db:"client_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	StartDate time.Time       `json:"start_date" db:"start_date"`
	EndDate   time.Time       `json:"end_date" db:"end_date"`
	DailyRate decimal.Decimal `json:"daily_rate" db:"daily_rate"`
}

// ReorderTrigger is the derived place-order decision. It goes stale whenever
// the projection set or the lead time changes and is always recomputed whole.
type ReorderTrigger struct {
	PlaceOrderDate time.Time `json:"place_order_date"`
	// RequiredOrderQuantity is nil when the stockout-day projection carries no
	// precomputed quantity; callers must render that as "N/A", never as zero.
	RequiredOrderQuantity *int `json:"required_order_quantity"`
}

// Timeline bundles the merged entries with the trigger that was folded in.
type Timeline struct {
	ProductCode string          `json:"product_code"`
	Entries     []TimelineEntry `json:"entries"`
	Trigger     *ReorderTrigger `json:"trigger,omitempty"`
	ComputedAt  time.Time       `json:"computed_at"`
}

// CivilDate truncates t to midnight UTC so calendar days compare and key
// consistently regardless of the zone the source row carried.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
