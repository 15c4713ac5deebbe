package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/yniverz/erp-rent/internal/availability"
	"github.com/yniverz/erp-rent/internal/catalog"
	"github.com/yniverz/erp-rent/internal/observability"
	"github.com/yniverz/erp-rent/internal/quotes"
)

type stubCatalog struct {
	items map[int64]catalog.Item
}

func (s *stubCatalog) WithTx(ctx context.Context, fn func(context.Context, catalog.Repository) error) error {
	return fn(ctx, s)
}

func (s *stubCatalog) Get(_ context.Context, id int64) (catalog.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return item, nil
}

func (s *stubCatalog) List(context.Context, catalog.ListItemsRequest) ([]catalog.Item, int, error) {
	var out []catalog.Item
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, len(out), nil
}

func (s *stubCatalog) Create(context.Context, catalog.Item) (int64, error) { return 0, nil }
func (s *stubCatalog) Update(context.Context, int64, catalog.Item) error   { return nil }
func (s *stubCatalog) Delete(context.Context, int64) error                 { return nil }
func (s *stubCatalog) AddRevenue(context.Context, int64, float64) error    { return nil }
func (s *stubCatalog) ReplaceComponents(context.Context, int64, []catalog.Component) error {
	return nil
}
func (s *stubCatalog) GetComponents(context.Context, int64) ([]catalog.Component, error) {
	return nil, nil
}

type stubQuotes struct {
	blocking []quotes.Quote
}

func (s *stubQuotes) WithTx(ctx context.Context, fn func(context.Context, quotes.Repository) error) error {
	return fn(ctx, s)
}
func (s *stubQuotes) Get(context.Context, int64) (quotes.Quote, error) {
	return quotes.Quote{}, quotes.ErrNotFound
}
func (s *stubQuotes) List(context.Context, quotes.ListQuotesRequest) ([]quotes.Quote, int, error) {
	return nil, 0, nil
}
func (s *stubQuotes) Create(context.Context, quotes.Quote) (int64, error) { return 0, nil }
func (s *stubQuotes) UpdateHeader(context.Context, int64, quotes.Quote) error {
	return nil
}
func (s *stubQuotes) UpdateStatus(context.Context, int64, quotes.Status, *time.Time, *time.Time) error {
	return nil
}
func (s *stubQuotes) Delete(context.Context, int64) error { return nil }
func (s *stubQuotes) GetLine(context.Context, int64) (quotes.Line, error) {
	return quotes.Line{}, quotes.ErrNotFound
}
func (s *stubQuotes) FindItemLine(context.Context, int64, int64) (quotes.Line, error) {
	return quotes.Line{}, quotes.ErrNotFound
}
func (s *stubQuotes) InsertLine(context.Context, quotes.Line) (int64, error) { return 0, nil }
func (s *stubQuotes) UpdateLine(context.Context, int64, int, float64) error  { return nil }
func (s *stubQuotes) DeleteLine(context.Context, int64) error                { return nil }
func (s *stubQuotes) ListBlockingRaw(context.Context) ([]quotes.Quote, error) {
	return s.blocking, nil
}

func auditDate(day int) *time.Time {
	t := time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestAvailabilityAuditFlagsOverbookedItems(t *testing.T) {
	itemID := int64(1)
	cat := &stubCatalog{items: map[int64]catalog.Item{
		itemID: {ID: itemID, Name: "Speaker", Kind: catalog.ItemKindSimple, TotalQuantity: 4},
	}}
	qs := &stubQuotes{blocking: []quotes.Quote{
		{
			ID: 1, Status: quotes.StatusFinalized,
			StartDate: auditDate(1), EndDate: auditDate(5),
			Lines: []quotes.Line{{ItemID: &itemID, Quantity: 3}},
		},
		{
			ID: 2, Status: quotes.StatusFinalized,
			StartDate: auditDate(3), EndDate: auditDate(7),
			Lines: []quotes.Line{{ItemID: &itemID, Quantity: 3}},
		},
	}}

	engine := availability.NewEngine(catalog.NewEngineStore(cat), quotes.NewEngineStore(qs, cat))
	job := NewAvailabilityAuditJob(engine, cat, qs, nil, observability.New())
	job.clock = func() time.Time { return time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC) }

	task, err := NewAvailabilityAuditTask(AvailabilityAuditPayload{HorizonDays: 90})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	overbooked, ranges, err := job.audit(context.Background(), 90)
	require.NoError(t, err)
	require.Equal(t, 2, ranges)
	require.Len(t, overbooked, 1)
	require.Equal(t, "Speaker", overbooked[itemID])
}

func TestAvailabilityAuditCleanCalendar(t *testing.T) {
	itemID := int64(1)
	cat := &stubCatalog{items: map[int64]catalog.Item{
		itemID: {ID: itemID, Name: "Speaker", Kind: catalog.ItemKindSimple, TotalQuantity: 4},
	}}
	qs := &stubQuotes{blocking: []quotes.Quote{
		{
			ID: 1, Status: quotes.StatusFinalized,
			StartDate: auditDate(1), EndDate: auditDate(5),
			Lines: []quotes.Line{{ItemID: &itemID, Quantity: 4}},
		},
	}}

	engine := availability.NewEngine(catalog.NewEngineStore(cat), quotes.NewEngineStore(qs, cat))
	job := NewAvailabilityAuditJob(engine, cat, qs, nil, observability.New())
	job.clock = func() time.Time { return time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC) }

	overbooked, ranges, err := job.audit(context.Background(), 90)
	require.NoError(t, err)
	require.Equal(t, 1, ranges)
	require.Empty(t, overbooked)
}

func TestAvailabilityAuditSkipsRangesBeyondHorizon(t *testing.T) {
	itemID := int64(1)
	cat := &stubCatalog{items: map[int64]catalog.Item{
		itemID: {ID: itemID, Name: "Speaker", Kind: catalog.ItemKindSimple, TotalQuantity: 1},
	}}
	far := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	farEnd := far.AddDate(0, 0, 4)
	qs := &stubQuotes{blocking: []quotes.Quote{
		{
			ID: 1, Status: quotes.StatusFinalized,
			StartDate: &far, EndDate: &farEnd,
			Lines: []quotes.Line{{ItemID: &itemID, Quantity: 5}},
		},
	}}

	engine := availability.NewEngine(catalog.NewEngineStore(cat), quotes.NewEngineStore(qs, cat))
	job := NewAvailabilityAuditJob(engine, cat, qs, nil, observability.New())
	job.clock = func() time.Time { return time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC) }

	overbooked, ranges, err := job.audit(context.Background(), 30)
	require.NoError(t, err)
	require.Zero(t, ranges)
	require.Empty(t, overbooked)
}

func TestInquiryNotifyTaskRoundTrip(t *testing.T) {
	task, err := NewInquiryNotifyTask(InquiryNotifyPayload{
		To:        "owner@example.com",
		Reference: "ref-1",
		Items:     []string{"2x Speaker"},
	})
	require.NoError(t, err)
	require.Equal(t, TaskTypeInquiryNotify, task.Type())
	require.NoError(t, HandleInquiryNotifyTask(context.Background(), task))

	// Garbage payloads are dropped, not retried.
	err = HandleInquiryNotifyTask(context.Background(), asynq.NewTask(TaskTypeInquiryNotify, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
