package quotes

import (
	"time"

	"github.com/yniverz/erp-rent/internal/availability"
)

// Status is the quote lifecycle state. Only finalized and paid quotes consume
// inventory availability; drafts never block other quotes.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
	StatusPaid      Status = "paid"
)

// Blocking reports whether this status consumes inventory.
func (s Status) Blocking() bool {
	return s == StatusFinalized || s == StatusPaid
}

// Quote is a customer rental order.
type Quote struct {
	ID             int64      `json:"id"`
	CustomerName   string     `json:"customer_name"`
	RecipientLines string     `json:"recipient_lines,omitempty"`
	DiscountPercent float64   `json:"discount_percent"`
	Status         Status     `json:"status"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	// RentalDaysOverride affects billing only; availability always follows
	// the actual dates.
	RentalDaysOverride *int       `json:"rental_days_override,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	FinalizedAt        *time.Time `json:"finalized_at,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	Lines              []Line     `json:"lines,omitempty"`
}

// Line is one position on a quote: either a catalog item or a free-form
// custom position (which never consumes stock).
type Line struct {
	ID                int64   `json:"id"`
	QuoteID           int64   `json:"quote_id"`
	ItemID            *int64  `json:"item_id,omitempty"`
	ItemName          string  `json:"item_name,omitempty"`
	Quantity          int     `json:"quantity"`
	RentalPricePerDay float64 `json:"rental_price_per_day"`
	CustomName        *string `json:"custom_name,omitempty"`
	IsCustom          bool    `json:"is_custom"`
}

// DisplayName returns the label rendered on documents.
func (l Line) DisplayName() string {
	if l.IsCustom {
		if l.CustomName != nil && *l.CustomName != "" {
			return *l.CustomName
		}
		return "Custom Item"
	}
	return l.ItemName
}

// HasDates reports whether both rental dates are set. Lines can only be added
// and availability only computed once they are.
func (q Quote) HasDates() bool {
	return q.StartDate != nil && q.EndDate != nil
}

// RentalDays derives the inclusive rental duration from the dates: same start
// and end is one day, never zero or negative. Without dates it falls back to
// the billing override, else 1.
func (q Quote) RentalDays() int {
	if q.HasDates() {
		return availability.RentalDays(*q.StartDate, *q.EndDate)
	}
	if q.RentalDaysOverride != nil && *q.RentalDaysOverride >= 1 {
		return *q.RentalDaysOverride
	}
	return 1
}

// BillingDays is the day count used for pricing: the override when set,
// otherwise the derived rental days.
func (q Quote) BillingDays() int {
	if q.RentalDaysOverride != nil && *q.RentalDaysOverride >= 1 {
		return *q.RentalDaysOverride
	}
	return q.RentalDays()
}
