package quotes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yniverz/erp-rent/internal/settings"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestLineTotal(t *testing.T) {
	require.Equal(t, 150.0, LineTotal(3, 10, 5))
	require.Equal(t, 0.0, LineTotal(0, 10, 5))
}

func TestSubtotalUsesBillingDays(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	q := Quote{
		StartDate: datePtr(start),
		EndDate:   datePtr(end),
		Lines: []Line{
			{Quantity: 2, RentalPricePerDay: 25},
		},
	}
	// June 1 to June 3 inclusive is three days.
	require.Equal(t, 3, q.BillingDays())
	require.Equal(t, 150.0, q.Subtotal())

	// The override changes billing, not the dates.
	override := 1
	q.RentalDaysOverride = &override
	require.Equal(t, 1, q.BillingDays())
	require.Equal(t, 3, q.RentalDays())
	require.Equal(t, 50.0, q.Subtotal())
}

func TestDiscount(t *testing.T) {
	q := Quote{
		DiscountPercent: 10,
		Lines:           []Line{{Quantity: 1, RentalPricePerDay: 100}},
	}
	require.Equal(t, 100.0, q.Subtotal())
	require.Equal(t, 10.0, q.DiscountAmount())
	require.Equal(t, 90.0, q.Total())
}

func TestComputeTotalsKleinunternehmer(t *testing.T) {
	q := Quote{Lines: []Line{{Quantity: 1, RentalPricePerDay: 100}}}
	st := settings.Settings{TaxMode: settings.TaxModeKleinunternehmer, VATRate: 19}

	totals := ComputeTotals(q, st)
	require.Equal(t, 100.0, totals.Net)
	require.Zero(t, totals.VATRate)
	require.Zero(t, totals.VATAmount)
	require.Equal(t, 100.0, totals.GrandTotal)
}

func TestComputeTotalsRegularTax(t *testing.T) {
	q := Quote{
		DiscountPercent: 10,
		Lines:           []Line{{Quantity: 1, RentalPricePerDay: 100}},
	}
	st := settings.Settings{TaxMode: settings.TaxModeRegular, VATRate: 19}

	totals := ComputeTotals(q, st)
	require.Equal(t, 90.0, totals.Net)
	require.Equal(t, 19.0, totals.VATRate)
	require.InDelta(t, 17.1, totals.VATAmount, 1e-9)
	require.InDelta(t, 107.1, totals.GrandTotal, 1e-9)
}

func TestRentalDaysFallback(t *testing.T) {
	q := Quote{}
	require.Equal(t, 1, q.RentalDays())
	require.Equal(t, 1, q.BillingDays())

	override := 4
	q.RentalDaysOverride = &override
	require.Equal(t, 4, q.RentalDays())
}

func TestDisplayName(t *testing.T) {
	name := "Aufbau"
	require.Equal(t, "Aufbau", Line{IsCustom: true, CustomName: &name}.DisplayName())
	require.Equal(t, "Custom Item", Line{IsCustom: true}.DisplayName())
	require.Equal(t, "Speaker", Line{ItemName: "Speaker"}.DisplayName())
}
