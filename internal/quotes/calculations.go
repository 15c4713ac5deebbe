package quotes

import "github.com/yniverz/erp-rent/internal/settings"

// LineTotal prices one line over the given number of billing days.
func LineTotal(quantity int, pricePerDay float64, days int) float64 {
	return float64(quantity) * pricePerDay * float64(days)
}

// Subtotal sums all line totals before discount.
func (q Quote) Subtotal() float64 {
	days := q.BillingDays()
	var sum float64
	for _, line := range q.Lines {
		sum += LineTotal(line.Quantity, line.RentalPricePerDay, days)
	}
	return sum
}

// DiscountAmount applies the quote-level discount percentage.
func (q Quote) DiscountAmount() float64 {
	return q.Subtotal() * (q.DiscountPercent / 100)
}

// Total is the net total after discount.
func (q Quote) Total() float64 {
	return q.Subtotal() - q.DiscountAmount()
}

// Totals is the fully priced quote including tax, computed against an
// explicit settings value rather than ambient configuration.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	Net            float64 `json:"net"`
	VATRate        float64 `json:"vat_rate"`
	VATAmount      float64 `json:"vat_amount"`
	GrandTotal     float64 `json:"grand_total"`
	BillingDays    int     `json:"billing_days"`
}

// ComputeTotals prices the quote under the given site settings. In
// kleinunternehmer mode no VAT is charged.
func ComputeTotals(q Quote, st settings.Settings) Totals {
	t := Totals{
		Subtotal:       q.Subtotal(),
		DiscountAmount: q.DiscountAmount(),
		BillingDays:    q.BillingDays(),
	}
	t.Net = t.Subtotal - t.DiscountAmount
	if st.TaxMode == settings.TaxModeRegular {
		t.VATRate = st.VATRate
		t.VATAmount = t.Net * (st.VATRate / 100)
	}
	t.GrandTotal = t.Net + t.VATAmount
	return t
}
