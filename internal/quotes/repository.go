package quotes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yniverz/erp-rent/internal/platform/db"
)

var (
	// ErrNotFound indicates the quote or line does not exist.
	ErrNotFound = errors.New("quotes: record not found")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	Create(ctx context.Context, quote Quote) (int64, error)
	UpdateHeader(ctx context.Context, id int64, quote Quote) error
	UpdateStatus(ctx context.Context, id int64, status Status, finalizedAt, paidAt *time.Time) error
	Delete(ctx context.Context, id int64) error
	GetLine(ctx context.Context, lineID int64) (Line, error)
	FindItemLine(ctx context.Context, quoteID, itemID int64) (Line, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	UpdateLine(ctx context.Context, lineID int64, quantity int, pricePerDay float64) error
	DeleteLine(ctx context.Context, lineID int64) error
	// ListBlockingRaw returns all finalized or paid quotes that have both
	// rental dates set, with their catalog lines. Drafts and custom lines are
	// filtered out in SQL so they can never reach the booked tally.
	ListBlockingRaw(ctx context.Context) ([]Quote, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed quote repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quoteColumns = `id, customer_name, recipient_lines, discount_percent, status,
	start_date, end_date, rental_days_override, notes, finalized_at, paid_at, created_at`

func (r *repository) Get(ctx context.Context, id int64) (Quote, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, err
	}
	lines, err := r.linesFor(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	quote.Lines = lines
	return quote, nil
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM quotes WHERE 1=1`
	args := []any{}
	argCount := 0

	if req.Status != nil {
		argCount++
		clause := ` AND status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(*req.Status))
	}
	if req.Customer != "" {
		argCount++
		clause := ` AND customer_name ILIKE $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, "%"+req.Customer+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if req.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, req.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

func (r *repository) Create(ctx context.Context, q Quote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotes (customer_name, recipient_lines, discount_percent, status,
			start_date, end_date, rental_days_override, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id
	`, q.CustomerName, q.RecipientLines, q.DiscountPercent, string(q.Status),
		dateArg(q.StartDate), dateArg(q.EndDate), q.RentalDaysOverride, q.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("quotes: create: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, id int64, q Quote) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes SET customer_name = $1, recipient_lines = $2, discount_percent = $3,
			start_date = $4, end_date = $5, rental_days_override = $6, notes = $7
		WHERE id = $8
	`, q.CustomerName, q.RecipientLines, q.DiscountPercent,
		dateArg(q.StartDate), dateArg(q.EndDate), q.RentalDaysOverride, q.Notes, id)
	if err != nil {
		return fmt.Errorf("quotes: update header: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status, finalizedAt, paidAt *time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes SET status = $1, finalized_at = $2, paid_at = $3 WHERE id = $4
	`, string(status), finalizedAt, paidAt, id)
	if err != nil {
		return fmt.Errorf("quotes: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("quotes: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const lineColumns = `ql.id, ql.quote_id, ql.item_id, COALESCE(i.name, ''),
	ql.quantity, ql.rental_price_per_day, ql.custom_name, ql.is_custom`

const lineJoin = `FROM quote_lines ql LEFT JOIN items i ON i.id = ql.item_id`

func (r *repository) GetLine(ctx context.Context, lineID int64) (Line, error) {
	row := r.db.QueryRow(ctx, `SELECT `+lineColumns+` `+lineJoin+` WHERE ql.id = $1`, lineID)
	line, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, ErrNotFound
		}
		return Line{}, err
	}
	return line, nil
}

// FindItemLine locates the non-custom line for an item on a quote.
func (r *repository) FindItemLine(ctx context.Context, quoteID, itemID int64) (Line, error) {
	row := r.db.QueryRow(ctx, `SELECT `+lineColumns+` `+lineJoin+`
		WHERE ql.quote_id = $1 AND ql.item_id = $2 AND NOT ql.is_custom`, quoteID, itemID)
	line, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, ErrNotFound
		}
		return Line{}, err
	}
	return line, nil
}

func (r *repository) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quote_lines (quote_id, item_id, quantity, rental_price_per_day, custom_name, is_custom)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, line.QuoteID, line.ItemID, line.Quantity, line.RentalPricePerDay, line.CustomName, line.IsCustom).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("quotes: insert line: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateLine(ctx context.Context, lineID int64, quantity int, pricePerDay float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quote_lines SET quantity = $1, rental_price_per_day = $2 WHERE id = $3
	`, quantity, pricePerDay, lineID)
	if err != nil {
		return fmt.Errorf("quotes: update line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteLine(ctx context.Context, lineID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quote_lines WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("quotes: delete line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListBlockingRaw(ctx context.Context) ([]Quote, error) {
	rows, err := r.db.Query(ctx, `SELECT `+quoteColumns+` FROM quotes
		WHERE status IN ('finalized', 'paid')
		  AND start_date IS NOT NULL AND end_date IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []Quote
	byID := make(map[int64]int)
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		byID[quote.ID] = len(quotes)
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, nil
	}

	lineRows, err := r.db.Query(ctx, `SELECT `+lineColumns+` `+lineJoin+`
		JOIN quotes q ON q.id = ql.quote_id
		WHERE q.status IN ('finalized', 'paid')
		  AND q.start_date IS NOT NULL AND q.end_date IS NOT NULL
		  AND NOT ql.is_custom`)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	for lineRows.Next() {
		line, err := scanLine(lineRows)
		if err != nil {
			return nil, err
		}
		if idx, ok := byID[line.QuoteID]; ok {
			quotes[idx].Lines = append(quotes[idx].Lines, line)
		}
	}
	return quotes, lineRows.Err()
}

func (r *repository) linesFor(ctx context.Context, quoteID int64) ([]Line, error) {
	rows, err := r.db.Query(ctx, `SELECT `+lineColumns+` `+lineJoin+`
		WHERE ql.quote_id = $1 ORDER BY ql.id ASC`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	var status string
	var startDate, endDate pgtype.Date
	var finalizedAt, paidAt, createdAt pgtype.Timestamptz
	var override pgtype.Int4
	err := row.Scan(&q.ID, &q.CustomerName, &q.RecipientLines, &q.DiscountPercent, &status,
		&startDate, &endDate, &override, &q.Notes, &finalizedAt, &paidAt, &createdAt)
	if err != nil {
		return Quote{}, err
	}
	q.Status = Status(status)
	if startDate.Valid {
		t := startDate.Time
		q.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		q.EndDate = &t
	}
	if override.Valid {
		v := int(override.Int32)
		q.RentalDaysOverride = &v
	}
	if finalizedAt.Valid {
		t := finalizedAt.Time
		q.FinalizedAt = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		q.PaidAt = &t
	}
	if createdAt.Valid {
		q.CreatedAt = createdAt.Time
	}
	return q, nil
}

func scanLine(row pgx.Row) (Line, error) {
	var l Line
	var itemID pgtype.Int8
	var customName pgtype.Text
	err := row.Scan(&l.ID, &l.QuoteID, &itemID, &l.ItemName,
		&l.Quantity, &l.RentalPricePerDay, &customName, &l.IsCustom)
	if err != nil {
		return Line{}, err
	}
	if itemID.Valid {
		v := itemID.Int64
		l.ItemID = &v
	}
	if customName.Valid {
		v := customName.String
		l.CustomName = &v
	}
	return l, nil
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return pgtype.Date{Time: *t, Valid: true}
}
