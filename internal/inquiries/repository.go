package inquiries

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yniverz/erp-rent/internal/platform/db"
)

// ErrNotFound indicates the inquiry does not exist.
var ErrNotFound = errors.New("inquiries: record not found")

type Repository interface {
	Get(ctx context.Context, id int64) (Inquiry, error)
	GetByReference(ctx context.Context, reference string) (Inquiry, error)
	List(ctx context.Context, req ListInquiriesRequest) ([]Inquiry, int, error)
	Create(ctx context.Context, inquiry Inquiry) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed inquiry repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const inquiryColumns = `id, reference, customer_name, email, phone,
	message, start_date, end_date, status, created_at`

func (r *repository) Get(ctx context.Context, id int64) (Inquiry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+inquiryColumns+` FROM inquiries WHERE id = $1`, id)
	inq, err := scanInquiry(row)
	if err != nil {
		return Inquiry{}, err
	}
	return r.attachLines(ctx, inq)
}

func (r *repository) GetByReference(ctx context.Context, reference string) (Inquiry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+inquiryColumns+` FROM inquiries WHERE reference = $1`, reference)
	inq, err := scanInquiry(row)
	if err != nil {
		return Inquiry{}, err
	}
	return r.attachLines(ctx, inq)
}

func (r *repository) List(ctx context.Context, req ListInquiriesRequest) ([]Inquiry, int, error) {
	query := `SELECT ` + inquiryColumns + ` FROM inquiries WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM inquiries WHERE 1=1`
	args := []any{}
	argCount := 0

	if req.Status != nil {
		argCount++
		clause := ` AND status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(*req.Status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
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

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var inquiries []Inquiry
	for rows.Next() {
		inquiry, err := scanInquiry(rows)
		if err != nil {
			return nil, 0, err
		}
		inquiries = append(inquiries, inquiry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachLinesBulk(ctx, inquiries); err != nil {
		return nil, 0, err
	}
	return inquiries, total, nil
}

func (r *repository) Create(ctx context.Context, inq Inquiry) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO inquiries (reference, customer_name, email, phone, message,
				start_date, end_date, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			RETURNING id
		`, inq.Reference, inq.CustomerName, inq.Email, inq.Phone, inq.Message,
			dateArg(inq.StartDate), dateArg(inq.EndDate), string(inq.Status)).Scan(&id)
		if err != nil {
			return err
		}
		for _, line := range inq.Lines {
			_, err := tx.Exec(ctx, `
				INSERT INTO inquiry_lines (inquiry_id, item_id, quantity, name_snapshot, price_snapshot)
				VALUES ($1, $2, $3, $4, $5)
			`, id, line.ItemID, line.Quantity, line.NameSnapshot, line.PriceSnapshot)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("inquiries: create: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE inquiries SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("inquiries: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inquiries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("inquiries: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) attachLines(ctx context.Context, inq Inquiry) (Inquiry, error) {
	inquiries := []Inquiry{inq}
	if err := r.attachLinesBulk(ctx, inquiries); err != nil {
		return Inquiry{}, err
	}
	return inquiries[0], nil
}

// attachLinesBulk loads the lines for all inquiries in a single query.
func (r *repository) attachLinesBulk(ctx context.Context, inquiries []Inquiry) error {
	if len(inquiries) == 0 {
		return nil
	}
	ids := make([]int64, len(inquiries))
	index := make(map[int64]int, len(inquiries))
	for i, inq := range inquiries {
		ids[i] = inq.ID
		index[inq.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, inquiry_id, item_id, quantity, name_snapshot, price_snapshot
		FROM inquiry_lines
		WHERE inquiry_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return fmt.Errorf("inquiries: load lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line InquiryLine
		var itemID pgtype.Int8
		var price pgtype.Float8
		if err := rows.Scan(&line.ID, &line.InquiryID, &itemID, &line.Quantity,
			&line.NameSnapshot, &price); err != nil {
			return err
		}
		if itemID.Valid {
			v := itemID.Int64
			line.ItemID = &v
		}
		if price.Valid {
			v := price.Float64
			line.PriceSnapshot = &v
		}
		if i, ok := index[line.InquiryID]; ok {
			inquiries[i].Lines = append(inquiries[i].Lines, line)
		}
	}
	return rows.Err()
}

func scanInquiry(row pgx.Row) (Inquiry, error) {
	var inq Inquiry
	var status string
	var startDate, endDate pgtype.Date
	var createdAt pgtype.Timestamptz
	err := row.Scan(&inq.ID, &inq.Reference, &inq.CustomerName, &inq.Email, &inq.Phone,
		&inq.Message, &startDate, &endDate, &status, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Inquiry{}, ErrNotFound
		}
		return Inquiry{}, err
	}
	inq.Status = Status(status)
	if startDate.Valid {
		t := startDate.Time
		inq.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		inq.EndDate = &t
	}
	if createdAt.Valid {
		inq.CreatedAt = createdAt.Time
	}
	return inq, nil
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return pgtype.Date{Time: *t, Valid: true}
}
