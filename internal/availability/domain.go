// Package availability computes date-range inventory availability for rental
// items. Given an item's total stock and the set of finalized or paid quotes,
// it answers how many units are free for a candidate rental period.
package availability

import (
	"errors"
	"time"
)

var (
	// ErrInvalidDateRange indicates the candidate range ends before it starts.
	ErrInvalidDateRange = errors.New("availability: end date before start date")
	// ErrItemNotFound indicates the queried item does not exist.
	ErrItemNotFound = errors.New("availability: item not found")
	// ErrPackageDepth indicates package components nest deeper than supported.
	ErrPackageDepth = errors.New("availability: package nesting too deep")
)

// ItemKind distinguishes plain stock items from composed packages.
type ItemKind string

const (
	ItemKindSimple  ItemKind = "SIMPLE"
	ItemKindPackage ItemKind = "PACKAGE"
)

// Component is one building block of a package item.
type Component struct {
	ItemID     int64
	QtyPerUnit int
}

// Item is the engine's view of an inventory item. TotalQuantity is only
// meaningful for simple items; a package derives everything from its
// components.
type Item struct {
	ID            int64
	Name          string
	Kind          ItemKind
	TotalQuantity int
	Components    []Component
}

// BookingLine is a catalog-backed quote line. Custom (free-form) lines never
// appear here because they do not consume stock.
type BookingLine struct {
	ItemID   int64
	Quantity int
}

// Booking is a snapshot of one inventory-blocking quote: a finalized or paid
// quote with both rental dates set.
type Booking struct {
	QuoteID int64
	Range   DateRange
	Lines   []BookingLine
}

// DateRange is an inclusive range of calendar days. Both endpoints are rental
// days, so Start == End is a one-day rental.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalises both dates to UTC midnight and validates ordering.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: midnight(start), End: midnight(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

// Overlaps reports whether two inclusive ranges share at least one calendar
// day: aStart <= bEnd && bStart <= aEnd. A quote starting exactly on the
// candidate's end date counts as overlapping.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

// Days returns the number of billable rental days, always >= 1.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// RentalDays computes inclusive rental days for a start/end pair without
// constructing a range. Same start and end yields 1.
func RentalDays(start, end time.Time) int {
	return int(midnight(end).Sub(midnight(start)).Hours()/24) + 1
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Result is the availability answer for one item over one range.
type Result struct {
	Total  int `json:"total"`
	Booked int `json:"booked"`
	Free   int `json:"free"`
	// Overbooked flags booked > total. Data integrity warning only; Free is
	// already floored at zero and callers surface the flag separately.
	Overbooked bool `json:"overbooked"`
}

// Shortfall describes one quote line requesting more units than are free at
// finalize time.
type Shortfall struct {
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	Requested int    `json:"requested"`
	Free      int    `json:"free"`
}
