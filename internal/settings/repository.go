package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, st Settings) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed settings repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Get loads the single settings row, falling back to defaults when the table
// is still empty.
func (r *repository) Get(ctx context.Context) (Settings, error) {
	var st Settings
	var mode string
	err := r.pool.QueryRow(ctx, `
		SELECT business_name, company_lines, tax_mode, vat_rate, notification_email
		FROM site_settings
		ORDER BY id ASC
		LIMIT 1
	`).Scan(&st.BusinessName, &st.CompanyLines, &mode, &st.VATRate, &st.NotificationEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Default(), nil
		}
		return Settings{}, err
	}
	st.TaxMode = TaxMode(mode)
	return st, nil
}

func (r *repository) Save(ctx context.Context, st Settings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO site_settings (id, business_name, company_lines, tax_mode, vat_rate, notification_email)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET business_name = $1, company_lines = $2, tax_mode = $3, vat_rate = $4, notification_email = $5
	`, st.BusinessName, st.CompanyLines, string(st.TaxMode), st.VATRate, st.NotificationEmail)
	return err
}
