package availability

import (
	"context"
	"time"
)

// maxPackageDepth bounds recursive package resolution.
const maxPackageDepth = 8

// ItemStore abstracts item lookup for the engine.
type ItemStore interface {
	GetItem(ctx context.Context, id int64) (Item, error)
}

// QuoteStore abstracts booking lookup. ListBlocking returns every quote that
// currently blocks inventory: status finalized or paid, both dates set,
// catalog lines only.
type QuoteStore interface {
	ListBlocking(ctx context.Context) ([]Booking, error)
}

// Options tunes a single availability query.
type Options struct {
	// ExcludeQuoteID omits one quote from the booked tally, used when editing
	// that quote so it does not block itself. An id that matches no booking
	// is a no-op.
	ExcludeQuoteID *int64
}

// Engine computes availability. It is a pure query component: two calls with
// identical inputs against an unchanged store return identical results and
// nothing is mutated.
type Engine struct {
	items  ItemStore
	quotes QuoteStore
}

// NewEngine builds an Engine.
func NewEngine(items ItemStore, quotes QuoteStore) *Engine {
	return &Engine{items: items, quotes: quotes}
}

// Available reports total stock, booked quantity and remaining free units for
// one item over the candidate range.
func (e *Engine) Available(ctx context.Context, itemID int64, start, end time.Time, opts Options) (Result, error) {
	rng, err := NewDateRange(start, end)
	if err != nil {
		return Result{}, err
	}
	item, err := e.items.GetItem(ctx, itemID)
	if err != nil {
		return Result{}, err
	}
	bookings, err := e.quotes.ListBlocking(ctx)
	if err != nil {
		return Result{}, err
	}
	return e.resolve(ctx, item, rng, bookings, opts, 0)
}

// AvailableAll computes availability for several items against a single fetch
// of the booking set, bounding the work to O(quotes) regardless of how many
// items a page renders. A failure on one item is reported in errs for that
// item only; the remaining results are still returned.
func (e *Engine) AvailableAll(ctx context.Context, itemIDs []int64, start, end time.Time, opts Options) (map[int64]Result, map[int64]error, error) {
	rng, err := NewDateRange(start, end)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := e.quotes.ListBlocking(ctx)
	if err != nil {
		return nil, nil, err
	}

	results := make(map[int64]Result, len(itemIDs))
	errs := make(map[int64]error)
	for _, id := range itemIDs {
		item, err := e.items.GetItem(ctx, id)
		if err != nil {
			errs[id] = err
			continue
		}
		res, err := e.resolve(ctx, item, rng, bookings, opts, 0)
		if err != nil {
			errs[id] = err
			continue
		}
		results[id] = res
	}
	return results, errs, nil
}

// QuoteCheck is the finalize-time input: the quote's own id, dates and
// catalog lines.
type QuoteCheck struct {
	QuoteID int64
	Start   time.Time
	End     time.Time
	Lines   []BookingLine
}

// CheckQuote computes, for every catalog line of a quote about to be
// finalized, whether the requested quantity exceeds what is free over the
// quote's own range. The quote excludes itself since it is not yet counted as
// finalized at check time. Shortfalls are warnings: the caller surfaces them
// but finalization proceeds regardless.
func (e *Engine) CheckQuote(ctx context.Context, check QuoteCheck) ([]Shortfall, error) {
	rng, err := NewDateRange(check.Start, check.End)
	if err != nil {
		return nil, err
	}
	bookings, err := e.quotes.ListBlocking(ctx)
	if err != nil {
		return nil, err
	}
	opts := Options{ExcludeQuoteID: &check.QuoteID}

	// A package expands into several lines for the same component; sum per
	// item before comparing against free stock.
	requested := make(map[int64]int)
	order := make([]int64, 0, len(check.Lines))
	for _, line := range check.Lines {
		if _, seen := requested[line.ItemID]; !seen {
			order = append(order, line.ItemID)
		}
		requested[line.ItemID] += line.Quantity
	}

	var shortfalls []Shortfall
	for _, itemID := range order {
		item, err := e.items.GetItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		res, err := e.resolve(ctx, item, rng, bookings, opts, 0)
		if err != nil {
			return nil, err
		}
		if requested[itemID] > res.Free {
			shortfalls = append(shortfalls, Shortfall{
				ItemID:    itemID,
				ItemName:  item.Name,
				Requested: requested[itemID],
				Free:      res.Free,
			})
		}
	}
	return shortfalls, nil
}

func (e *Engine) resolve(ctx context.Context, item Item, rng DateRange, bookings []Booking, opts Options, depth int) (Result, error) {
	if item.Kind == ItemKindPackage {
		return e.resolvePackage(ctx, item, rng, bookings, opts, depth)
	}

	booked := 0
	for _, b := range bookings {
		if opts.ExcludeQuoteID != nil && b.QuoteID == *opts.ExcludeQuoteID {
			continue
		}
		if !rng.Overlaps(b.Range) {
			continue
		}
		for _, line := range b.Lines {
			if line.ItemID == item.ID {
				booked += line.Quantity
			}
		}
	}

	res := Result{Total: item.TotalQuantity, Booked: booked}
	res.Free = res.Total - res.Booked
	if res.Free < 0 {
		res.Free = 0
		res.Overbooked = true
	}
	return res, nil
}

// resolvePackage derives a package's availability from its components: the
// number of assemblable package units is the minimum over components of
// floor(componentFree / qtyPerUnit).
func (e *Engine) resolvePackage(ctx context.Context, item Item, rng DateRange, bookings []Booking, opts Options, depth int) (Result, error) {
	if depth >= maxPackageDepth {
		return Result{}, ErrPackageDepth
	}
	if len(item.Components) == 0 {
		return Result{}, nil
	}

	var res Result
	for i, comp := range item.Components {
		if comp.QtyPerUnit <= 0 {
			return Result{}, nil
		}
		compItem, err := e.items.GetItem(ctx, comp.ItemID)
		if err != nil {
			return Result{}, err
		}
		compRes, err := e.resolve(ctx, compItem, rng, bookings, opts, depth+1)
		if err != nil {
			return Result{}, err
		}
		free := compRes.Free / comp.QtyPerUnit
		total := compRes.Total / comp.QtyPerUnit
		if i == 0 || free < res.Free {
			res.Free = free
		}
		if i == 0 || total < res.Total {
			res.Total = total
		}
		if compRes.Overbooked {
			res.Overbooked = true
		}
	}
	res.Booked = res.Total - res.Free
	if res.Booked < 0 {
		res.Booked = 0
	}
	return res, nil
}
