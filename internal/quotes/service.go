package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yniverz/erp-rent/internal/availability"
	"github.com/yniverz/erp-rent/internal/catalog"
)

var (
	// ErrInvalidStatus indicates an invalid lifecycle transition.
	ErrInvalidStatus = errors.New("quotes: invalid status transition")
	// ErrDatesRequired indicates an operation that needs both rental dates.
	ErrDatesRequired = errors.New("quotes: start and end date must be set")
	// ErrRentalStep indicates a quantity that is not a multiple of the item's
	// rental step.
	ErrRentalStep = errors.New("quotes: quantity must be a multiple of the rental step")
	// ErrInsufficientStock indicates an add-time quantity above what is free.
	// Unlike finalize-time shortfalls this is a hard validation error.
	ErrInsufficientStock = errors.New("quotes: not enough units available")
)

// Service coordinates the quote lifecycle.
type Service struct {
	repo    Repository
	catalog catalog.Repository
	engine  *availability.Engine
	logger  *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, catalogRepo catalog.Repository, engine *availability.Engine, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalogRepo, engine: engine, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (Quote, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateQuoteRequest) (Quote, error) {
	start, end, err := parseDatePair(req.StartDate, req.EndDate)
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{
		CustomerName:    req.CustomerName,
		RecipientLines:  req.RecipientLines,
		DiscountPercent: req.DiscountPercent,
		Status:          StatusDraft,
		StartDate:       start,
		EndDate:         end,
		Notes:           req.Notes,
	}
	id, err := s.repo.Create(ctx, quote)
	if err != nil {
		return Quote{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateQuoteRequest) (Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}
	if existing.Status != StatusDraft {
		return Quote{}, fmt.Errorf("%w: only draft quotes can be edited", ErrInvalidStatus)
	}

	if req.CustomerName != nil {
		existing.CustomerName = *req.CustomerName
	}
	if req.RecipientLines != nil {
		existing.RecipientLines = *req.RecipientLines
	}
	if req.DiscountPercent != nil {
		existing.DiscountPercent = *req.DiscountPercent
	}
	if req.RentalDaysOverride != nil {
		if *req.RentalDaysOverride >= 1 {
			existing.RentalDaysOverride = req.RentalDaysOverride
		} else {
			existing.RentalDaysOverride = nil
		}
	}
	if req.Notes != nil {
		existing.Notes = *req.Notes
	}

	startStr, endStr := "", ""
	if req.StartDate != nil {
		startStr = *req.StartDate
	} else if existing.StartDate != nil {
		startStr = existing.StartDate.Format("2006-01-02")
	}
	if req.EndDate != nil {
		endStr = *req.EndDate
	} else if existing.EndDate != nil {
		endStr = existing.EndDate.Format("2006-01-02")
	}
	start, end, err := parseDatePair(startStr, endStr)
	if err != nil {
		return Quote{}, err
	}
	existing.StartDate = start
	existing.EndDate = end

	if err := s.repo.UpdateHeader(ctx, id, existing); err != nil {
		return Quote{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	// Quotes may be deleted in any state; a finalized quote's contribution to
	// availability disappears with it. A paid quote has already booked its
	// revenue onto the items, so that is backed out first.
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if quote.Status == StatusPaid {
		if err := s.applyRevenue(ctx, quote, -1); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

// UpsertLine sets the quantity and price of a catalog item on a draft quote.
// Quantity zero removes the line. Adding is gated on availability: the quote
// excludes itself so an edit can keep its own units.
func (s *Service) UpsertLine(ctx context.Context, quoteID int64, req UpsertLineRequest) (Quote, error) {
	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}
	if quote.Status != StatusDraft {
		return Quote{}, fmt.Errorf("%w: only draft quotes can be edited", ErrInvalidStatus)
	}
	if !quote.HasDates() {
		return Quote{}, ErrDatesRequired
	}

	item, err := s.catalog.Get(ctx, req.ItemID)
	if err != nil {
		return Quote{}, fmt.Errorf("get item: %w", err)
	}

	existing, err := s.repo.FindItemLine(ctx, quoteID, req.ItemID)
	haveLine := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Quote{}, err
	}

	if req.Quantity == 0 {
		if haveLine {
			if err := s.repo.DeleteLine(ctx, existing.ID); err != nil {
				return Quote{}, err
			}
		}
		return s.repo.Get(ctx, quoteID)
	}

	if item.RentalStep > 1 && req.Quantity%item.RentalStep != 0 {
		return Quote{}, fmt.Errorf("%w: %s requires multiples of %d", ErrRentalStep, item.Name, item.RentalStep)
	}

	res, err := s.engine.Available(ctx, req.ItemID, *quote.StartDate, *quote.EndDate,
		availability.Options{ExcludeQuoteID: &quoteID})
	if err != nil {
		return Quote{}, err
	}
	if req.Quantity > res.Free {
		return Quote{}, fmt.Errorf("%w: %s has %d free of %d total", ErrInsufficientStock,
			item.Name, res.Free, res.Total)
	}

	price := item.DefaultRentalPricePerDay
	if req.RentalPricePerDay != nil {
		price = *req.RentalPricePerDay
	}

	if haveLine {
		if err := s.repo.UpdateLine(ctx, existing.ID, req.Quantity, price); err != nil {
			return Quote{}, err
		}
	} else {
		itemID := req.ItemID
		_, err := s.repo.InsertLine(ctx, Line{
			QuoteID:           quoteID,
			ItemID:            &itemID,
			Quantity:          req.Quantity,
			RentalPricePerDay: price,
		})
		if err != nil {
			return Quote{}, err
		}
	}
	return s.repo.Get(ctx, quoteID)
}

// AddCustomLine appends a free-form position, e.g. labour time. Custom lines
// never consume stock so no availability check applies.
func (s *Service) AddCustomLine(ctx context.Context, quoteID int64, req CustomLineRequest) (Quote, error) {
	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}
	if quote.Status != StatusDraft {
		return Quote{}, fmt.Errorf("%w: only draft quotes can be edited", ErrInvalidStatus)
	}

	name := req.Name
	_, err = s.repo.InsertLine(ctx, Line{
		QuoteID:           quoteID,
		Quantity:          req.Quantity,
		RentalPricePerDay: req.RentalPricePerDay,
		CustomName:        &name,
		IsCustom:          true,
	})
	if err != nil {
		return Quote{}, err
	}
	return s.repo.Get(ctx, quoteID)
}

func (s *Service) RemoveLine(ctx context.Context, quoteID, lineID int64) (Quote, error) {
	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}
	if quote.Status != StatusDraft {
		return Quote{}, fmt.Errorf("%w: only draft quotes can be edited", ErrInvalidStatus)
	}

	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return Quote{}, err
	}
	if line.QuoteID != quoteID {
		return Quote{}, ErrNotFound
	}
	if err := s.repo.DeleteLine(ctx, lineID); err != nil {
		return Quote{}, err
	}
	return s.repo.Get(ctx, quoteID)
}

// Finalize locks a draft quote and starts counting it against availability.
// Shortfalls are returned as warnings, never as a block: manual overrides and
// extra sourcing are business reality, so the operator stays in control.
func (s *Service) Finalize(ctx context.Context, id int64) (Quote, []availability.Shortfall, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quote{}, nil, fmt.Errorf("get quote: %w", err)
	}
	if quote.Status != StatusDraft {
		return Quote{}, nil, fmt.Errorf("%w: can only finalize draft quotes", ErrInvalidStatus)
	}
	if !quote.HasDates() {
		return Quote{}, nil, ErrDatesRequired
	}

	bookingLines, err := ExpandBookingLines(ctx, s.catalog, quote.Lines)
	if err != nil {
		return Quote{}, nil, err
	}
	// The quote excludes itself: it is not counted as finalized at check time.
	shortfalls, err := s.engine.CheckQuote(ctx, availability.QuoteCheck{
		QuoteID: quote.ID,
		Start:   *quote.StartDate,
		End:     *quote.EndDate,
		Lines:   bookingLines,
	})
	if err != nil {
		return Quote{}, nil, err
	}
	if len(shortfalls) > 0 && s.logger != nil {
		s.logger.Warn("finalizing over capacity",
			slog.Int64("quote_id", quote.ID),
			slog.Int("shortfalls", len(shortfalls)))
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, StatusFinalized, &now, nil); err != nil {
		return Quote{}, nil, err
	}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quote{}, nil, err
	}
	return updated, shortfalls, nil
}

// Unfinalize reverts a finalized quote to draft, immediately releasing its
// units for other quotes.
func (s *Service) Unfinalize(ctx context.Context, id int64) (Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}
	if quote.Status != StatusFinalized {
		return Quote{}, fmt.Errorf("%w: can only unfinalize finalized quotes", ErrInvalidStatus)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusDraft, nil, nil); err != nil {
		return Quote{}, err
	}
	return s.repo.Get(ctx, id)
}

// MarkPaid transitions finalized to paid and books the earned revenue onto
// each catalog item.
func (s *Service) MarkPaid(ctx context.Context, id int64) (Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}
	if quote.Status != StatusFinalized {
		return Quote{}, fmt.Errorf("%w: can only mark finalized quotes as paid", ErrInvalidStatus)
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, StatusPaid, quote.FinalizedAt, &now); err != nil {
		return Quote{}, err
	}
	if err := s.applyRevenue(ctx, quote, 1); err != nil {
		return Quote{}, err
	}
	return s.repo.Get(ctx, id)
}

// Unpay reverts paid to finalized and backs the revenue out again.
func (s *Service) Unpay(ctx context.Context, id int64) (Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}
	if quote.Status != StatusPaid {
		return Quote{}, fmt.Errorf("%w: can only unpay paid quotes", ErrInvalidStatus)
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusFinalized, quote.FinalizedAt, nil); err != nil {
		return Quote{}, err
	}
	if err := s.applyRevenue(ctx, quote, -1); err != nil {
		return Quote{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) applyRevenue(ctx context.Context, quote Quote, sign float64) error {
	days := quote.BillingDays()
	discount := 1 - quote.DiscountPercent/100
	for _, line := range quote.Lines {
		if line.IsCustom || line.ItemID == nil {
			continue
		}
		delta := sign * LineTotal(line.Quantity, line.RentalPricePerDay, days) * discount
		if err := s.catalog.AddRevenue(ctx, *line.ItemID, delta); err != nil {
			return fmt.Errorf("book revenue for item %d: %w", *line.ItemID, err)
		}
	}
	return nil
}

func parseDatePair(startStr, endStr string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startStr != "" {
		t, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return nil, nil, fmt.Errorf("quotes: invalid start date: %w", err)
		}
		start = &t
	}
	if endStr != "" {
		t, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return nil, nil, fmt.Errorf("quotes: invalid end date: %w", err)
		}
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, availability.ErrInvalidDateRange
	}
	return start, end, nil
}
