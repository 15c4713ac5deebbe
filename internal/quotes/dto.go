package quotes

// Dates travel as "2006-01-02" strings; the service parses and validates
// ordering.

type CreateQuoteRequest struct {
	CustomerName    string  `json:"customer_name" validate:"required,max=200"`
	RecipientLines  string  `json:"recipient_lines" validate:"max=2000"`
	StartDate       string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate         string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
	Notes           string  `json:"notes"`
}

type UpdateQuoteRequest struct {
	CustomerName       *string  `json:"customer_name,omitempty" validate:"omitempty,max=200"`
	RecipientLines     *string  `json:"recipient_lines,omitempty" validate:"omitempty,max=2000"`
	StartDate          *string  `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate            *string  `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DiscountPercent    *float64 `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	// Zero clears the override.
	RentalDaysOverride *int     `json:"rental_days_override,omitempty" validate:"omitempty,gte=0"`
	Notes              *string  `json:"notes,omitempty"`
}

// UpsertLineRequest sets the quantity and price of a catalog item on a quote.
// Quantity 0 removes the item's line.
type UpsertLineRequest struct {
	ItemID            int64    `json:"item_id" validate:"required,gt=0"`
	Quantity          int      `json:"quantity" validate:"gte=0"`
	RentalPricePerDay *float64 `json:"rental_price_per_day,omitempty" validate:"omitempty,gte=0"`
}

// CustomLineRequest adds a free-form position (e.g. "Time"). Custom lines
// never consume stock.
type CustomLineRequest struct {
	Name              string  `json:"name" validate:"required,max=200"`
	Quantity          int     `json:"quantity" validate:"required,gt=0"`
	RentalPricePerDay float64 `json:"rental_price_per_day" validate:"required,gt=0"`
}

type ListQuotesRequest struct {
	Status   *Status `json:"status,omitempty"`
	Customer string  `json:"customer,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
