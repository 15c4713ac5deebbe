// Package inquiries handles rental requests coming in from the public
// storefront listing. An inquiry is not a quote: it only captures the
// customer's interest and is turned into a quote manually.
package inquiries

import "time"

// Status is the inquiry triage state.
type Status string

const (
	StatusNew     Status = "new"
	StatusHandled Status = "handled"
)

// Inquiry is one storefront rental request.
type Inquiry struct {
	ID int64 `json:"id"`
	// Reference is the opaque public identifier handed to the customer.
	Reference    string        `json:"reference"`
	CustomerName string        `json:"customer_name"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	Message      string        `json:"message,omitempty"`
	StartDate    *time.Time    `json:"start_date,omitempty"`
	EndDate      *time.Time    `json:"end_date,omitempty"`
	Status       Status        `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	Lines        []InquiryLine `json:"lines,omitempty"`
}

// InquiryLine is one requested item. Name and price are snapshotted at
// create time so the inquiry stays readable even after the catalog changes
// or the item is deleted.
type InquiryLine struct {
	ID            int64    `json:"id"`
	InquiryID     int64    `json:"inquiry_id"`
	ItemID        *int64   `json:"item_id,omitempty"`
	Quantity      int      `json:"quantity"`
	NameSnapshot  string   `json:"name_snapshot"`
	PriceSnapshot *float64 `json:"price_snapshot,omitempty"`
}
