package inquiries

// CreateInquiryRequest is the public storefront form.
type CreateInquiryRequest struct {
	CustomerName string `json:"customer_name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"max=50"`
	Message      string `json:"message" validate:"max=4000"`
	StartDate    string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`

	Lines []InquiryLineRequest `json:"lines" validate:"max=100,dive"`
}

// InquiryLineRequest is one wanted item on the storefront form.
type InquiryLineRequest struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"omitempty,gte=1,lte=10000"`
}

// ListInquiriesRequest filters the admin inbox.
type ListInquiriesRequest struct {
	Status *Status `json:"status,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}
