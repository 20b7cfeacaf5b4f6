package timeline

import (
	"testing"
	"time"

	"github.com/shelfwatch/backend-go/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestNormalize_ForecastFallback(t *testing.T) {
	actuals := []domain.DailyActual{
		{Date: date(2024, 3, 1), UnitsSold: intPtr(0), DailyForecast: floatPtr(5)},
	}

	records := Normalize(actuals, nil)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.UnitsSold == nil || *r.UnitsSold != 5 {
		t.Errorf("expected units sold 5 from forecast fallback, got %v", r.UnitsSold)
	}
	if r.AlertType != domain.AlertForecast {
		t.Errorf("expected alert type %q, got %q", domain.AlertForecast, r.AlertType)
	}
}

func TestNormalize_ActualRows(t *testing.T) {
	tests := []struct {
		name      string
		actual    domain.DailyActual
		wantSold  *float64
		wantAlert string
	}{
		{
			name:      "positive_sales_stay_actual",
			actual:    domain.DailyActual{Date: date(2024, 3, 1), UnitsSold: intPtr(7)},
			wantSold:  floatPtr(7),
			wantAlert: domain.AlertActual,
		},
		{
			name:      "zero_sales_without_forecast_stay_actual",
			actual:    domain.DailyActual{Date: date(2024, 3, 1), UnitsSold: intPtr(0)},
			wantSold:  floatPtr(0),
			wantAlert: domain.AlertActual,
		},
		{
			name:      "zero_sales_with_zero_forecast_stay_actual",
			actual:    domain.DailyActual{Date: date(2024, 3, 1), UnitsSold: intPtr(0), DailyForecast: floatPtr(0)},
			wantSold:  floatPtr(0),
			wantAlert: domain.AlertActual,
		},
		{
			name:      "nil_sales_keep_nil",
			actual:    domain.DailyActual{Date: date(2024, 3, 1)},
			wantSold:  nil,
			wantAlert: domain.AlertActual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Normalize([]domain.DailyActual{tt.actual}, nil)
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}

			r := records[0]
			if r.AlertType != tt.wantAlert {
				t.Errorf("alert type: expected %q, got %q", tt.wantAlert, r.AlertType)
			}
			switch {
			case tt.wantSold == nil && r.UnitsSold != nil:
				t.Errorf("expected nil units sold, got %v", *r.UnitsSold)
			case tt.wantSold != nil && (r.UnitsSold == nil || *r.UnitsSold != *tt.wantSold):
				t.Errorf("units sold: expected %v, got %v", *tt.wantSold, r.UnitsSold)
			}
		})
	}
}

func TestNormalize_ActualsShadowProjections(t *testing.T) {
	actuals := []domain.DailyActual{
		{Date: date(2024, 3, 1), UnitsSold: intPtr(4)},
	}
	projections := []domain.DailyProjection{
		{ForecastDate: date(2024, 3, 1), RemainingStock: intPtr(90)},
		{ForecastDate: date(2024, 3, 2), RemainingStock: intPtr(80)},
	}

	records := Normalize(actuals, projections)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	for _, r := range records {
		if r.Date.Equal(date(2024, 3, 1)) {
			if r.IsForecast {
				t.Error("actual date should not be marked forecast")
			}
			if r.RemainingStock != nil {
				t.Error("actual record must not carry the projection's remaining stock")
			}
		}
		if r.Date.Equal(date(2024, 3, 2)) && !r.IsForecast {
			t.Error("projection-only date should be marked forecast")
		}
	}
}

func TestNormalize_SkipsZeroDates(t *testing.T) {
	actuals := []domain.DailyActual{
		{UnitsSold: intPtr(3)},
		{Date: date(2024, 3, 1), UnitsSold: intPtr(1)},
	}
	projections := []domain.DailyProjection{
		{RemainingStock: intPtr(10)},
	}

	records := Normalize(actuals, projections)
	if len(records) != 1 {
		t.Fatalf("expected only the dated record, got %d", len(records))
	}
}

func TestNormalize_NormalizesTimezones(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	actuals := []domain.DailyActual{
		{Date: time.Date(2024, 3, 1, 23, 30, 0, 0, loc), UnitsSold: intPtr(2)},
	}

	records := Normalize(actuals, nil)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	want := date(2024, 3, 1)
	if !records[0].Date.Equal(want) {
		t.Errorf("expected civil date %v, got %v", want, records[0].Date)
	}
}
