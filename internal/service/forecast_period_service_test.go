package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shelfwatch/backend-go/internal/domain"
)

type fakePeriods struct {
	stored []domain.ForecastPeriod
	saves  int
	err    error
}

func (f *fakePeriods) List(ctx context.Context, productID int64) ([]domain.ForecastPeriod, error) {
	return f.stored, f.err
}

func (f *fakePeriods) Save(ctx context.Context, productID int64, periods []domain.ForecastPeriod) error {
	f.stored = periods
	f.saves++
	return f.err
}

func testPeriod(id string, startDay, endDay int, rate string) domain.ForecastPeriod {
	return domain.ForecastPeriod{
		ClientID:  id,
		StartDate: date(2024, 1, startDay),
		EndDate:   date(2024, 1, endDay),
		DailyRate: decimal.RequireFromString(rate),
	}
}

func newPeriodService(periods *fakePeriods, projections *fakeProjections) *ForecastPeriodService {
	return NewForecastPeriodService(periods, &fakeProducts{id: 7}, projections, nil)
}

func TestForecastPeriodService_AddAssignsClientID(t *testing.T) {
	periods := &fakePeriods{}
	projections := &fakeProjections{}
	svc := newPeriodService(periods, projections)

	updated, err := svc.Add(context.Background(), 7, testPeriod("", 1, 10, "2.5"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if len(updated) != 1 {
		t.Fatalf("expected 1 period, got %d", len(updated))
	}
	if updated[0].ClientID == "" {
		t.Error("expected a generated client ID")
	}
	if updated[0].ProductID != 7 {
		t.Errorf("expected product ID 7, got %d", updated[0].ProductID)
	}
	if periods.saves != 1 {
		t.Errorf("expected 1 save, got %d", periods.saves)
	}

	// A period mutation invalidates the product's projections.
	if len(projections.refreshed) != 1 {
		t.Errorf("expected a refresh request, got %v", projections.refreshed)
	}
}

func TestForecastPeriodService_RejectedAddDoesNotPersist(t *testing.T) {
	periods := &fakePeriods{stored: []domain.ForecastPeriod{
		testPeriod("a", 1, 10, "2"),
	}}
	svc := newPeriodService(periods, &fakeProjections{})

	_, err := svc.Add(context.Background(), 7, testPeriod("", 5, 15, "3"))
	var overlap *domain.OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected OverlapError, got %v", err)
	}
	if periods.saves != 0 {
		t.Errorf("rejected add must not persist, saw %d saves", periods.saves)
	}
}

func TestForecastPeriodService_EditAndDelete(t *testing.T) {
	periods := &fakePeriods{stored: []domain.ForecastPeriod{
		testPeriod("a", 1, 10, "2"),
		testPeriod("b", 11, 20, "3"),
	}}
	svc := newPeriodService(periods, &fakeProjections{})

	updated, err := svc.Edit(context.Background(), 7, "a", testPeriod("", 2, 9, "4"))
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if !updated[0].DailyRate.Equal(decimal.RequireFromString("4")) {
		t.Errorf("edit did not apply rate: %s", updated[0].DailyRate)
	}

	updated, err = svc.Delete(context.Background(), 7, "b")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(updated) != 1 || updated[0].ClientID != "a" {
		t.Errorf("unexpected periods after delete: %+v", updated)
	}

	if _, err := svc.Delete(context.Background(), 7, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestForecastPeriodService_ProposeNextStart(t *testing.T) {
	periods := &fakePeriods{stored: []domain.ForecastPeriod{
		testPeriod("a", 1, 20, "2"),
	}}
	svc := newPeriodService(periods, &fakeProjections{})

	got, err := svc.ProposeNextStart(context.Background(), 7, date(2024, 1, 5))
	if err != nil {
		t.Fatalf("ProposeNextStart failed: %v", err)
	}
	if want := date(2024, 1, 21); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
