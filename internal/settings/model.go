// Package settings holds the single-tenant site configuration (company
// identity, tax mode, notification address). It is always fetched and passed
// as an explicit value to the components that need it, never held as process
// global state.
package settings

// TaxMode selects how VAT is applied to quote totals.
type TaxMode string

const (
	// TaxModeKleinunternehmer charges no VAT (German small-business rule).
	TaxModeKleinunternehmer TaxMode = "kleinunternehmer"
	// TaxModeRegular charges VAT at VATRate.
	TaxModeRegular TaxMode = "regular"
)

// Settings is the site configuration row.
type Settings struct {
	BusinessName      string  `json:"business_name"`
	CompanyLines      string  `json:"company_lines,omitempty"`
	TaxMode           TaxMode `json:"tax_mode"`
	VATRate           float64 `json:"vat_rate"`
	NotificationEmail string  `json:"notification_email,omitempty"`
}

// Default returns the settings used before any row exists.
func Default() Settings {
	return Settings{
		BusinessName: "Mein Verleih",
		TaxMode:      TaxModeKleinunternehmer,
		VATRate:      19,
	}
}
