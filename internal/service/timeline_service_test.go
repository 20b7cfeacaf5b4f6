package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/backend-go/internal/storage"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

type fakeProducts struct {
	id  int64
	err error
}

func (f *fakeProducts) IDByCode(ctx context.Context, code string) (int64, error) {
	return f.id, f.err
}

func (f *fakeProducts) CodeByID(ctx context.Context, id int64) (string, error) {
	return "SKU-1", f.err
}

type fakeSales struct {
	mu        sync.Mutex
	actuals   []domain.DailyActual
	err       error
	calls     int
	blockOnce chan struct{} // when set, the first call parks until ctx is cancelled
	started   chan struct{}
}

func (f *fakeSales) PastSales(ctx context.Context, productCode string) ([]domain.DailyActual, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()

	if first && f.blockOnce != nil {
		if f.started != nil {
			close(f.started)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.blockOnce:
		}
	}
	return f.actuals, f.err
}

type fakeProjections struct {
	projections []domain.DailyProjection
	err         error
	refreshed   []string
}

func (f *fakeProjections) Projections(ctx context.Context, productCode string) ([]domain.DailyProjection, error) {
	return f.projections, f.err
}

func (f *fakeProjections) MarkForRefresh(ctx context.Context, productCode string) error {
	f.refreshed = append(f.refreshed, productCode)
	return f.err
}

func (f *fakeProjections) ActiveProductCodes(ctx context.Context) ([]string, error) {
	return nil, nil
}

type fakeOrders struct {
	orders []domain.PurchaseOrderEvent
	err    error
}

func (f *fakeOrders) UpcomingOrders(ctx context.Context, productID int64) ([]domain.PurchaseOrderEvent, error) {
	return f.orders, f.err
}

type fakeStorage struct {
	keys     []string
	payload  []byte
	objects  []storage.ObjectInfo
	prefixes []string
}

func (f *fakeStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.prefixes = append(f.prefixes, prefix)
	return f.objects, nil
}

func (f *fakeStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	f.keys = append(f.keys, key)
	f.payload = data
	return nil
}

type fakeCache struct {
	invalidated []string
	flushes     int
}

func (f *fakeCache) Get(ctx context.Context, productCode string, day time.Time) (*domain.Timeline, bool, error) {
	return nil, false, nil
}

func (f *fakeCache) Set(ctx context.Context, productCode string, day time.Time, timeline *domain.Timeline) error {
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, productCode string) error {
	f.invalidated = append(f.invalidated, productCode)
	return nil
}

func (f *fakeCache) InvalidateAll(ctx context.Context) error {
	f.flushes++
	return nil
}

func newTestService(sales *fakeSales, projections *fakeProjections, orders *fakeOrders, opts ...TimelineServiceOption) *TimelineService {
	return NewTimelineService(&fakeProducts{id: 1}, sales, projections, orders, nil, opts...)
}

func TestTimeline_EndToEnd(t *testing.T) {
	eta := date(2024, 3, 5)
	sales := &fakeSales{actuals: []domain.DailyActual{
		{Date: date(2024, 3, 1), UnitsSold: intPtr(3)},
	}}
	projections := &fakeProjections{projections: []domain.DailyProjection{
		{ForecastDate: date(2024, 3, 2), RemainingStock: intPtr(4)},
		{ForecastDate: date(2024, 3, 3), RemainingStock: intPtr(-2), RequiredOrderQuantity: intPtr(80), ReorderLeadTime: intPtr(2)},
	}}
	orders := &fakeOrders{orders: []domain.PurchaseOrderEvent{
		{PODate: date(2024, 2, 20), ETADate: &eta, IncomingQty: 40},
	}}

	svc := newTestService(sales, projections, orders)

	result, err := svc.Timeline(context.Background(), "SKU-1", date(2024, 3, 2))
	if err != nil {
		t.Fatalf("Timeline failed: %v", err)
	}

	if result.Trigger == nil {
		t.Fatal("expected a reorder trigger")
	}
	if want := date(2024, 3, 1); !result.Trigger.PlaceOrderDate.Equal(want) {
		t.Errorf("expected place-order date %v, got %v", want, result.Trigger.PlaceOrderDate)
	}

	// 3/1 actual, 3/2 forecast, 3/3 stockout, 3/5 ETA stub, plus the
	// place-order marker lands on the existing 3/1 entry.
	if len(result.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(result.Entries))
	}

	first := result.Entries[0]
	if !first.IsEvent || !strings.Contains(first.Note, "Place Order") {
		t.Errorf("expected place-order marker on %v, got note %q", first.Date, first.Note)
	}

	last := result.Entries[len(result.Entries)-1]
	if !last.Date.Equal(eta) || last.IncomingQty == nil || *last.IncomingQty != 40 {
		t.Errorf("expected ETA stub with qty 40, got %+v", last)
	}

	for _, entry := range result.Entries {
		if entry.Date.Equal(date(2024, 3, 2)) && !entry.IsToday {
			t.Error("today's entry not flagged")
		}
	}
}

func TestTimeline_FetchErrorPropagates(t *testing.T) {
	sales := &fakeSales{err: errors.New("report service down")}
	svc := newTestService(sales, &fakeProjections{}, &fakeOrders{})

	if _, err := svc.Timeline(context.Background(), "SKU-1", date(2024, 3, 2)); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestTimeline_SupersededFetchIsDiscarded(t *testing.T) {
	sales := &fakeSales{
		blockOnce: make(chan struct{}),
		started:   make(chan struct{}),
	}
	svc := newTestService(sales, &fakeProjections{}, &fakeOrders{})

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Timeline(context.Background(), "SKU-1", date(2024, 3, 2))
		firstErr <- err
	}()

	<-sales.started

	// A second request for the same product supersedes the blocked one.
	if _, err := svc.Timeline(context.Background(), "SKU-1", date(2024, 3, 2)); err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, domain.ErrSuperseded) {
			t.Errorf("expected ErrSuperseded for the stale fetch, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("superseded fetch never returned")
	}
}

func TestTimeline_IndependentProductsDoNotInterfere(t *testing.T) {
	sales := &fakeSales{}
	svc := newTestService(sales, &fakeProjections{}, &fakeOrders{})

	if _, err := svc.Timeline(context.Background(), "SKU-1", date(2024, 3, 2)); err != nil {
		t.Fatalf("first product failed: %v", err)
	}
	if _, err := svc.Timeline(context.Background(), "SKU-2", date(2024, 3, 2)); err != nil {
		t.Fatalf("second product failed: %v", err)
	}
}

func TestReorder_NoStockoutMeansNil(t *testing.T) {
	projections := &fakeProjections{projections: []domain.DailyProjection{
		{ForecastDate: date(2024, 3, 1), RemainingStock: intPtr(10)},
	}}
	svc := newTestService(&fakeSales{}, projections, &fakeOrders{})

	trigger, err := svc.Reorder(context.Background(), "SKU-1")
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	if trigger != nil {
		t.Errorf("expected nil trigger, got %+v", trigger)
	}
}

func TestRefresh_MarksProductAndInvalidatesCache(t *testing.T) {
	projections := &fakeProjections{}
	c := &fakeCache{}
	svc := NewTimelineService(&fakeProducts{id: 1}, &fakeSales{}, projections, &fakeOrders{}, c)

	if err := svc.Refresh(context.Background(), "SKU-9"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(projections.refreshed) != 1 || projections.refreshed[0] != "SKU-9" {
		t.Errorf("expected SKU-9 marked for refresh, got %v", projections.refreshed)
	}
	if len(c.invalidated) != 1 || c.invalidated[0] != "SKU-9" {
		t.Errorf("expected SKU-9 cache invalidation, got %v", c.invalidated)
	}
}

func TestFlushCache_DropsEverything(t *testing.T) {
	c := &fakeCache{}
	svc := NewTimelineService(&fakeProducts{id: 1}, &fakeSales{}, &fakeProjections{}, &fakeOrders{}, c)

	if err := svc.FlushCache(context.Background()); err != nil {
		t.Fatalf("FlushCache failed: %v", err)
	}
	if c.flushes != 1 {
		t.Errorf("expected 1 full flush, got %d", c.flushes)
	}
}

func TestExportSnapshot_WritesCSV(t *testing.T) {
	store := &fakeStorage{}
	projections := &fakeProjections{projections: []domain.DailyProjection{
		{ForecastDate: date(2024, 3, 2), RemainingStock: intPtr(-1)},
	}}
	svc := newTestService(&fakeSales{}, projections, &fakeOrders{},
		WithSnapshotStorage(store, "timelines"))

	key, err := svc.ExportSnapshot(context.Background(), "SKU-1", date(2024, 3, 2))
	if err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}

	if key != "timelines/SKU-1/2024-03-02.csv" {
		t.Errorf("unexpected object key %q", key)
	}
	if len(store.keys) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(store.keys))
	}

	body := string(store.payload)
	if !strings.Contains(body, "Date,Day,Remaining Stock") {
		t.Errorf("missing CSV header: %q", body)
	}
	// The stockout row carries no precomputed quantity; it must render as
	// N/A, never as zero.
	if !strings.Contains(body, "N/A") {
		t.Errorf("expected N/A for missing quantities: %q", body)
	}
}

func TestListSnapshots_ScopedToProduct(t *testing.T) {
	store := &fakeStorage{objects: []storage.ObjectInfo{
		{Key: "timelines/SKU-1/2024-03-01.csv", Size: 120},
		{Key: "timelines/SKU-1/2024-03-02.csv", Size: 134},
	}}
	svc := newTestService(&fakeSales{}, &fakeProjections{}, &fakeOrders{},
		WithSnapshotStorage(store, "timelines"))

	objects, err := svc.ListSnapshots(context.Background(), "SKU-1")
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}

	if len(objects) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(objects))
	}
	if len(store.prefixes) != 1 || store.prefixes[0] != "timelines/SKU-1/" {
		t.Errorf("expected a product-scoped prefix, got %v", store.prefixes)
	}
}

func TestListSnapshots_WithoutStorage(t *testing.T) {
	svc := newTestService(&fakeSales{}, &fakeProjections{}, &fakeOrders{})

	if _, err := svc.ListSnapshots(context.Background(), "SKU-1"); err == nil {
		t.Fatal("expected an error when storage is not configured")
	}
}
