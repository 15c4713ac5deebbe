package quotes

import (
	"context"
	"fmt"

	"github.com/yniverz/erp-rent/internal/availability"
	"github.com/yniverz/erp-rent/internal/catalog"
)

// EngineStore adapts the quote repository to the availability engine's
// QuoteStore port. Package lines are stored against the package item and
// expanded into their component consumption here, so the engine's booked
// tally always sees the stock that actually leaves the shelf.
type EngineStore struct {
	repo    Repository
	catalog catalog.Repository
}

// NewEngineStore builds the adapter.
func NewEngineStore(repo Repository, catalogRepo catalog.Repository) EngineStore {
	return EngineStore{repo: repo, catalog: catalogRepo}
}

func (s EngineStore) ListBlocking(ctx context.Context) ([]availability.Booking, error) {
	quotes, err := s.repo.ListBlockingRaw(ctx)
	if err != nil {
		return nil, err
	}

	bookings := make([]availability.Booking, 0, len(quotes))
	for _, q := range quotes {
		rng, err := availability.NewDateRange(*q.StartDate, *q.EndDate)
		if err != nil {
			// A blocking quote with inverted dates is a data integrity issue;
			// skip it rather than poisoning every availability query.
			continue
		}
		lines, err := ExpandBookingLines(ctx, s.catalog, q.Lines)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, availability.Booking{
			QuoteID: q.ID,
			Range:   rng,
			Lines:   lines,
		})
	}
	return bookings, nil
}

// ExpandBookingLines converts quote lines into engine booking lines,
// expanding package items into their component consumption. Custom lines are
// dropped. Nested packages expand recursively.
func ExpandBookingLines(ctx context.Context, catalogRepo catalog.Repository, lines []Line) ([]availability.BookingLine, error) {
	var out []availability.BookingLine
	for _, line := range lines {
		if line.IsCustom || line.ItemID == nil {
			continue
		}
		expanded, err := expandItem(ctx, catalogRepo, *line.ItemID, line.Quantity, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

const maxExpandDepth = 8

func expandItem(ctx context.Context, catalogRepo catalog.Repository, itemID int64, qty, depth int) ([]availability.BookingLine, error) {
	if depth >= maxExpandDepth {
		return nil, fmt.Errorf("quotes: package nesting too deep for item %d", itemID)
	}
	item, err := catalogRepo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Kind != catalog.ItemKindPackage {
		return []availability.BookingLine{{ItemID: itemID, Quantity: qty}}, nil
	}

	var out []availability.BookingLine
	for _, comp := range item.Components {
		expanded, err := expandItem(ctx, catalogRepo, comp.ItemID, qty*comp.QtyPerUnit, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}
