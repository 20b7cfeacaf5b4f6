// internal/service/timeline_service.go
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shelfwatch/backend-go/internal/cache"
	"github.com/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/backend-go/internal/repository"
	"github.com/shelfwatch/backend-go/internal/storage"
	"github.com/shelfwatch/backend-go/internal/timeline"
	"golang.org/x/sync/errgroup"
)

// TimelineService fetches the three per-day inputs, runs one synchronous
// merge pass and returns the annotated calendar. The merge itself is pure;
// all state here is the per-product in-flight bookkeeping that guarantees a
// stale fetch can never overwrite a newer one.
type TimelineService struct {
	products    repository.ProductRepository
	sales       repository.SalesHistoryRepository
	projections repository.ProjectionRepository
	orders      repository.PurchaseOrderRepository
	cache       cache.TimelineCache

	snapshots      storage.ObjectStorage
	snapshotPrefix string

	defaultLeadTimeDays int

	mu       sync.Mutex
	inflight map[string]*fetchToken
}

type fetchToken struct {
	cancel context.CancelFunc
}

type TimelineServiceOption func(*TimelineService)

// WithSnapshotStorage enables CSV snapshot export to an object store.
func WithSnapshotStorage(store storage.ObjectStorage, prefix string) TimelineServiceOption {
	return func(s *TimelineService) {
		s.snapshots = store
		s.snapshotPrefix = prefix
	}
}

// WithDefaultLeadTime overrides the fallback reorder lead time in days.
func WithDefaultLeadTime(days int) TimelineServiceOption {
	return func(s *TimelineService) {
		s.defaultLeadTimeDays = days
	}
}

func NewTimelineService(
	products repository.ProductRepository,
	sales repository.SalesHistoryRepository,
	projections repository.ProjectionRepository,
	orders repository.PurchaseOrderRepository,
	cacheImpl cache.TimelineCache,
	opts ...TimelineServiceOption,
) *TimelineService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopTimelineCache()
	}
	s := &TimelineService{
		products:    products,
		sales:       sales,
		projections: projections,
		orders:      orders,
		cache:       cacheImpl,
		inflight:    make(map[string]*fetchToken),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Timeline returns the merged, annotated calendar for a product as of today.
//
// The three inputs are fetched in parallel. If a newer request for the same
// product starts while this one is still fetching, this fetch is cancelled
// and the call returns domain.ErrSuperseded; callers keep whatever timeline
// they were already displaying.
func (s *TimelineService) Timeline(ctx context.Context, productCode string, today time.Time) (*domain.Timeline, error) {
	if cached, ok, err := s.cache.Get(ctx, productCode, today); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("product", productCode).Msg("timeline: cache get failed")
	}

	fetchCtx, token := s.begin(ctx, productCode)
	defer s.finish(productCode, token)

	var (
		actuals     []domain.DailyActual
		projections []domain.DailyProjection
		orders      []domain.PurchaseOrderEvent
	)

	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		actuals, err = s.sales.PastSales(gctx, productCode)
		return err
	})
	g.Go(func() error {
		var err error
		projections, err = s.projections.Projections(gctx, productCode)
		return err
	})
	g.Go(func() error {
		productID, err := s.products.IDByCode(gctx, productCode)
		if err != nil {
			return err
		}
		orders, err = s.orders.UpcomingOrders(gctx, productID)
		return err
	})

	if err := g.Wait(); err != nil {
		if fetchCtx.Err() == context.Canceled && ctx.Err() == nil {
			return nil, domain.ErrSuperseded
		}
		return nil, fmt.Errorf("failed to fetch timeline inputs for %s: %w", productCode, err)
	}

	result := s.compute(productCode, actuals, projections, orders, today)

	if err := s.cache.Set(ctx, productCode, today, result); err != nil {
		log.Warn().Err(err).Str("product", productCode).Msg("timeline: cache set failed")
	}

	return result, nil
}

func (s *TimelineService) compute(
	productCode string,
	actuals []domain.DailyActual,
	projections []domain.DailyProjection,
	orders []domain.PurchaseOrderEvent,
	today time.Time,
) *domain.Timeline {
	leadTime := timeline.LeadTimeDays(projections, s.defaultLeadTimeDays)
	trigger := timeline.ComputeTrigger(projections, leadTime)

	records := timeline.Normalize(actuals, projections)
	entries := timeline.Merge(records, orders, trigger)
	entries = timeline.Annotate(entries, today)

	return &domain.Timeline{
		ProductCode: productCode,
		Entries:     entries,
		Trigger:     trigger,
		ComputedAt:  time.Now().UTC(),
	}
}

// Reorder returns only the current trigger for a product; nil means no
// reorder is required right now.
func (s *TimelineService) Reorder(ctx context.Context, productCode string) (*domain.ReorderTrigger, error) {
	projections, err := s.projections.Projections(ctx, productCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projections for %s: %w", productCode, err)
	}

	leadTime := timeline.LeadTimeDays(projections, s.defaultLeadTimeDays)
	return timeline.ComputeTrigger(projections, leadTime), nil
}

// Refresh asks the upstream generator to regenerate the product's projections
// and drops any cached timelines so the next read recomputes.
func (s *TimelineService) Refresh(ctx context.Context, productCode string) error {
	if err := s.projections.MarkForRefresh(ctx, productCode); err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, productCode); err != nil {
		log.Warn().Err(err).Str("product", productCode).Msg("timeline: cache invalidate failed")
	}
	return nil
}

// ExportSnapshot computes the timeline and writes it as a CSV object, keyed
// by product and day. Returns the object key.
func (s *TimelineService) ExportSnapshot(ctx context.Context, productCode string, today time.Time) (string, error) {
	if s.snapshots == nil {
		return "", fmt.Errorf("snapshot storage is not configured")
	}

	result, err := s.Timeline(ctx, productCode, today)
	if err != nil {
		return "", err
	}

	data, err := marshalTimelineCSV(result.Entries)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s/%s.csv", s.snapshotPrefix, productCode, domain.CivilDate(today).Format("2006-01-02"))
	if err := s.snapshots.UploadObject(ctx, key, data); err != nil {
		return "", fmt.Errorf("failed to upload timeline snapshot: %w", err)
	}

	return key, nil
}

// ListSnapshots returns the snapshot objects previously exported for a
// product, oldest key first as the store returns them.
func (s *TimelineService) ListSnapshots(ctx context.Context, productCode string) ([]storage.ObjectInfo, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("snapshot storage is not configured")
	}

	prefix := fmt.Sprintf("%s/%s/", s.snapshotPrefix, productCode)
	objects, err := s.snapshots.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline snapshots: %w", err)
	}
	return objects, nil
}

// FlushCache drops every cached timeline. Products gone from the projection
// set are never refreshed individually, so a full flush is the only way their
// stale entries leave the cache.
func (s *TimelineService) FlushCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

func (s *TimelineService) begin(ctx context.Context, productCode string) (context.Context, *fetchToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.inflight[productCode]; ok {
		prev.cancel()
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	token := &fetchToken{cancel: cancel}
	s.inflight[productCode] = token
	return fetchCtx, token
}

func (s *TimelineService) finish(productCode string, token *fetchToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[productCode] == token {
		delete(s.inflight, productCode)
	}
	token.cancel()
}

func marshalTimelineCSV(entries []domain.TimelineEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Date", "Day", "Remaining Stock", "Units Sold", "Alert", "Note", "ETA", "Incoming Qty", "Required Order Qty"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		record := []string{
			entry.Date.Format("2006-01-02"),
			entry.Day,
			formatIntPtr(entry.RemainingStock),
			formatFloatPtr(entry.UnitsSold),
			entry.AlertType,
			entry.Note,
			formatDatePtr(entry.ETADate),
			formatIntPtr(entry.IncomingQty),
			formatIntPtr(entry.RequiredQty),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatIntPtr(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatDatePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02")
}
