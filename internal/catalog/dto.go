package catalog

// CreateItemRequest carries a new item. Components are only accepted for
// PACKAGE items.
type CreateItemRequest struct {
	Name                     string             `json:"name" validate:"required,max=200"`
	Kind                     ItemKind           `json:"kind" validate:"omitempty,oneof=SIMPLE PACKAGE"`
	TotalQuantity            int                `json:"total_quantity" validate:"gte=0"`
	SetSize                  int                `json:"set_size" validate:"gte=0"`
	RentalStep               int                `json:"rental_step" validate:"gte=0"`
	UnitPurchaseCost         float64            `json:"unit_purchase_cost" validate:"gte=0"`
	DefaultRentalPricePerDay float64            `json:"default_rental_price_per_day" validate:"gte=0"`
	Components               []ComponentRequest `json:"components,omitempty" validate:"omitempty,dive"`
}

// ComponentRequest references one component of a package.
type ComponentRequest struct {
	ItemID     int64 `json:"item_id" validate:"required,gt=0"`
	QtyPerUnit int   `json:"qty_per_unit" validate:"required,gt=0"`
}

// UpdateItemRequest carries partial item updates.
type UpdateItemRequest struct {
	Name                     *string             `json:"name,omitempty" validate:"omitempty,max=200"`
	TotalQuantity            *int                `json:"total_quantity,omitempty" validate:"omitempty,gte=0"`
	SetSize                  *int                `json:"set_size,omitempty" validate:"omitempty,gte=1"`
	RentalStep               *int                `json:"rental_step,omitempty" validate:"omitempty,gte=1"`
	UnitPurchaseCost         *float64            `json:"unit_purchase_cost,omitempty" validate:"omitempty,gte=0"`
	DefaultRentalPricePerDay *float64            `json:"default_rental_price_per_day,omitempty" validate:"omitempty,gte=0"`
	Components               *[]ComponentRequest `json:"components,omitempty" validate:"omitempty,dive"`
}

// ListItemsRequest filters and paginates the item list.
type ListItemsRequest struct {
	Search string `json:"search"`
	Kind   string `json:"kind" validate:"omitempty,oneof=SIMPLE PACKAGE"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}
