package catalog

import "time"

// ItemKind distinguishes plain stock items from packages composed of other
// items.
type ItemKind string

const (
	ItemKindSimple  ItemKind = "SIMPLE"
	ItemKindPackage ItemKind = "PACKAGE"
)

// Item represents a rentable inventory item.
type Item struct {
	ID                       int64       `json:"id"`
	Name                     string      `json:"name"`
	Kind                     ItemKind    `json:"kind"`
	TotalQuantity            int         `json:"total_quantity"`
	SetSize                  int         `json:"set_size"`
	RentalStep               int         `json:"rental_step"`
	UnitPurchaseCost         float64     `json:"unit_purchase_cost"`
	DefaultRentalPricePerDay float64     `json:"default_rental_price_per_day"`
	TotalRevenue             float64     `json:"total_revenue"`
	CreatedAt                time.Time   `json:"created_at"`
	Components               []Component `json:"components,omitempty"`
}

// Component is one building block of a package item: QtyPerUnit units of the
// referenced item per rented package.
type Component struct {
	ItemID     int64  `json:"item_id"`
	ItemName   string `json:"item_name,omitempty"`
	QtyPerUnit int    `json:"qty_per_unit"`
}

// TotalPurchaseCost is the total amount spent purchasing all units.
func (i Item) TotalPurchaseCost() float64 {
	return float64(i.TotalQuantity) * i.UnitPurchaseCost
}

// IsPaidOff reports whether accumulated revenue covers the purchase cost.
func (i Item) IsPaidOff() bool {
	return i.TotalRevenue >= i.TotalPurchaseCost()
}

// RemainingToPayoff is the revenue still missing until payoff, floored at 0.
func (i Item) RemainingToPayoff() float64 {
	remaining := i.TotalPurchaseCost() - i.TotalRevenue
	if remaining < 0 {
		return 0
	}
	return remaining
}
