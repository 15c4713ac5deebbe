package availability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	items    map[int64]Item
	bookings []Booking
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[int64]Item)}
}

func (s *memoryStore) addItem(item Item) {
	if item.Kind == "" {
		item.Kind = ItemKindSimple
	}
	s.items[item.ID] = item
}

func (s *memoryStore) addBooking(quoteID int64, startDay, endDay int, lines ...BookingLine) {
	rng, _ := NewDateRange(day(startDay), day(endDay))
	s.bookings = append(s.bookings, Booking{QuoteID: quoteID, Range: rng, Lines: lines})
}

func (s *memoryStore) GetItem(ctx context.Context, id int64) (Item, error) {
	item, ok := s.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

func (s *memoryStore) ListBlocking(ctx context.Context) ([]Booking, error) {
	out := make([]Booking, len(s.bookings))
	copy(out, s.bookings)
	return out, nil
}

func TestAvailableNoBookings(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, Name: "Chair", TotalQuantity: 12})
	engine := NewEngine(store, store)

	res, err := engine.Available(context.Background(), 1, day(1), day(5), Options{})
	require.NoError(t, err)
	require.Equal(t, Result{Total: 12, Booked: 0, Free: 12}, res)
}

func TestAvailableProductScenario(t *testing.T) {
	// Item with 4 units; quote A (finalized, Jan 1-5) books 2.
	store := newMemoryStore()
	store.addItem(Item{ID: 1, Name: "Speaker", TotalQuantity: 4})
	store.addBooking(100, 1, 5, BookingLine{ItemID: 1, Quantity: 2})
	engine := NewEngine(store, store)
	ctx := context.Background()

	res, err := engine.Available(ctx, 1, day(3), day(7), Options{})
	require.NoError(t, err)
	require.Equal(t, Result{Total: 4, Booked: 2, Free: 2}, res)

	res, err = engine.Available(ctx, 1, day(6), day(10), Options{})
	require.NoError(t, err)
	require.Equal(t, Result{Total: 4, Booked: 0, Free: 4}, res)
}

func TestAvailableInvalidRange(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, TotalQuantity: 4})
	engine := NewEngine(store, store)

	_, err := engine.Available(context.Background(), 1, day(9), day(2), Options{})
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestAvailableUnknownItem(t *testing.T) {
	engine := NewEngine(newMemoryStore(), newMemoryStore())

	_, err := engine.Available(context.Background(), 42, day(1), day(2), Options{})
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestAvailableSelfExclusion(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, TotalQuantity: 4})
	store.addBooking(7, 1, 5, BookingLine{ItemID: 1, Quantity: 3})
	engine := NewEngine(store, store)
	ctx := context.Background()

	// Editing quote 7: its own booking must not block itself.
	exclude := int64(7)
	res, err := engine.Available(ctx, 1, day(1), day(5), Options{ExcludeQuoteID: &exclude})
	require.NoError(t, err)
	require.Equal(t, Result{Total: 4, Booked: 0, Free: 4}, res)

	// Without exclusion the booking counts.
	res, err = engine.Available(ctx, 1, day(1), day(5), Options{})
	require.NoError(t, err)
	require.Equal(t, Result{Total: 4, Booked: 3, Free: 1}, res)
}

func TestAvailableUnknownExcludeIsNoop(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, TotalQuantity: 4})
	store.addBooking(100, 1, 5, BookingLine{ItemID: 1, Quantity: 2})
	engine := NewEngine(store, store)

	// The excluded quote may not be persisted yet; nothing to exclude.
	exclude := int64(999)
	res, err := engine.Available(context.Background(), 1, day(1), day(5), Options{ExcludeQuoteID: &exclude})
	require.NoError(t, err)
	require.Equal(t, Result{Total: 4, Booked: 2, Free: 2}, res)
}

func TestAvailableOverbookedFloorsAtZero(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, TotalQuantity: 4})
	store.addBooking(100, 1, 5, BookingLine{ItemID: 1, Quantity: 6})
	engine := NewEngine(store, store)

	res, err := engine.Available(context.Background(), 1, day(2), day(4), Options{})
	require.NoError(t, err)
	require.Equal(t, Result{Total: 4, Booked: 6, Free: 0, Overbooked: true}, res)
}

func TestAvailableSumsAcrossQuotesAndLines(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, TotalQuantity: 10})
	store.addItem(Item{ID: 2, TotalQuantity: 5})
	store.addBooking(100, 1, 5, BookingLine{ItemID: 1, Quantity: 2}, BookingLine{ItemID: 2, Quantity: 1})
	store.addBooking(101, 4, 8, BookingLine{ItemID: 1, Quantity: 3})
	store.addBooking(102, 20, 25, BookingLine{ItemID: 1, Quantity: 4}) // no overlap
	engine := NewEngine(store, store)

	res, err := engine.Available(context.Background(), 1, day(5), day(6), Options{})
	require.NoError(t, err)
	require.Equal(t, Result{Total: 10, Booked: 5, Free: 5}, res)
}

func TestAvailableAllMatchesSingleCalls(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, TotalQuantity: 10})
	store.addItem(Item{ID: 2, TotalQuantity: 3})
	store.addBooking(100, 1, 5, BookingLine{ItemID: 1, Quantity: 4}, BookingLine{ItemID: 2, Quantity: 3})
	engine := NewEngine(store, store)
	ctx := context.Background()

	results, errs, err := engine.AvailableAll(ctx, []int64{1, 2, 99}, day(2), day(3), Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Unknown item fails alone, others still render.
	require.ErrorIs(t, errs[99], ErrItemNotFound)

	for _, id := range []int64{1, 2} {
		single, err := engine.Available(ctx, id, day(2), day(3), Options{})
		require.NoError(t, err)
		require.Equal(t, single, results[id])
	}
}

func TestPackageResolution(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, Name: "Speaker", TotalQuantity: 8})
	store.addItem(Item{ID: 2, Name: "Stand", TotalQuantity: 5})
	store.addItem(Item{ID: 3, Name: "PA Set", Kind: ItemKindPackage, Components: []Component{
		{ItemID: 1, QtyPerUnit: 2},
		{ItemID: 2, QtyPerUnit: 1},
	}})
	engine := NewEngine(store, store)
	ctx := context.Background()

	// floor(8/2)=4 speakers-wise, floor(5/1)=5 stands-wise -> 4 sets.
	res, err := engine.Available(ctx, 3, day(1), day(2), Options{})
	require.NoError(t, err)
	require.Equal(t, 4, res.Total)
	require.Equal(t, 4, res.Free)

	// Booking 3 speakers leaves floor(5/2)=2 sets.
	store.addBooking(100, 1, 3, BookingLine{ItemID: 1, Quantity: 3})
	res, err = engine.Available(ctx, 3, day(1), day(2), Options{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Free)
	require.Equal(t, 2, res.Booked)
}

func TestPackageOfPackages(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, TotalQuantity: 6})
	store.addItem(Item{ID: 2, Kind: ItemKindPackage, Components: []Component{{ItemID: 1, QtyPerUnit: 2}}})
	store.addItem(Item{ID: 3, Kind: ItemKindPackage, Components: []Component{{ItemID: 2, QtyPerUnit: 3}}})
	engine := NewEngine(store, store)

	res, err := engine.Available(context.Background(), 3, day(1), day(1), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Free)
}

func TestPackageCycleGuard(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, Kind: ItemKindPackage, Components: []Component{{ItemID: 2, QtyPerUnit: 1}}})
	store.addItem(Item{ID: 2, Kind: ItemKindPackage, Components: []Component{{ItemID: 1, QtyPerUnit: 1}}})
	engine := NewEngine(store, store)

	_, err := engine.Available(context.Background(), 1, day(1), day(1), Options{})
	require.ErrorIs(t, err, ErrPackageDepth)
}

func TestCheckQuoteWarnsOnShortfall(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, Name: "Chair", TotalQuantity: 10})
	store.addItem(Item{ID: 2, Name: "Table", TotalQuantity: 2})
	store.addBooking(100, 1, 5, BookingLine{ItemID: 1, Quantity: 8})
	engine := NewEngine(store, store)

	shortfalls, err := engine.CheckQuote(context.Background(), QuoteCheck{
		QuoteID: 200,
		Start:   day(3),
		End:     day(6),
		Lines: []BookingLine{
			{ItemID: 1, Quantity: 4}, // only 2 free
			{ItemID: 2, Quantity: 2}, // exactly enough
		},
	})
	require.NoError(t, err)
	require.Len(t, shortfalls, 1)
	require.Equal(t, Shortfall{ItemID: 1, ItemName: "Chair", Requested: 4, Free: 2}, shortfalls[0])
}

func TestCheckQuoteExcludesItself(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, Name: "Chair", TotalQuantity: 4})
	// The quote being finalized already has persisted lines.
	store.addBooking(200, 1, 5, BookingLine{ItemID: 1, Quantity: 4})
	engine := NewEngine(store, store)

	shortfalls, err := engine.CheckQuote(context.Background(), QuoteCheck{
		QuoteID: 200,
		Start:   day(1),
		End:     day(5),
		Lines:   []BookingLine{{ItemID: 1, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Empty(t, shortfalls)
}

func TestCheckQuoteAggregatesExpandedLines(t *testing.T) {
	store := newMemoryStore()
	store.addItem(Item{ID: 1, Name: "Speaker", TotalQuantity: 5})
	engine := NewEngine(store, store)

	// Two package expansions landed on the same component item.
	shortfalls, err := engine.CheckQuote(context.Background(), QuoteCheck{
		QuoteID: 1,
		Start:   day(1),
		End:     day(2),
		Lines: []BookingLine{
			{ItemID: 1, Quantity: 3},
			{ItemID: 1, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, shortfalls, 1)
	require.Equal(t, 6, shortfalls[0].Requested)
	require.Equal(t, 5, shortfalls[0].Free)
}
