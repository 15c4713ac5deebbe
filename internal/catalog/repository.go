package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yniverz/erp-rent/internal/platform/db"
)

// ErrNotFound indicates the item does not exist.
var ErrNotFound = errors.New("catalog: item not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (Item, error)
	List(ctx context.Context, req ListItemsRequest) ([]Item, int, error)
	Create(ctx context.Context, item Item) (int64, error)
	Update(ctx context.Context, id int64, item Item) error
	Delete(ctx context.Context, id int64) error
	AddRevenue(ctx context.Context, id int64, delta float64) error
	ReplaceComponents(ctx context.Context, itemID int64, components []Component) error
	GetComponents(ctx context.Context, itemID int64) ([]Component, error)
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

// NewRepository builds the PostgreSQL-backed item repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const itemColumns = `id, name, kind, total_quantity, set_size, rental_step,
	unit_purchase_cost, default_rental_price_per_day, total_revenue, created_at`

func (r *repository) Get(ctx context.Context, id int64) (Item, error) {
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	if item.Kind == ItemKindPackage {
		components, err := r.GetComponents(ctx, id)
		if err != nil {
			return Item{}, err
		}
		item.Components = components
	}
	return item, nil
}

func (r *repository) List(ctx context.Context, req ListItemsRequest) ([]Item, int, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM items WHERE 1=1`
	args := []any{}
	argCount := 0

	if req.Search != "" {
		argCount++
		clause := ` AND name ILIKE $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, "%"+req.Search+"%")
	}
	if req.Kind != "" {
		argCount++
		clause := ` AND kind = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, req.Kind)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC, id ASC`
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

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range items {
		if items[i].Kind != ItemKindPackage {
			continue
		}
		components, err := r.GetComponents(ctx, items[i].ID)
		if err != nil {
			return nil, 0, err
		}
		items[i].Components = components
	}
	return items, total, nil
}

func (r *repository) Create(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO items (name, kind, total_quantity, set_size, rental_step,
			unit_purchase_cost, default_rental_price_per_day, total_revenue, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id
	`, item.Name, string(item.Kind), item.TotalQuantity, item.SetSize, item.RentalStep,
		item.UnitPurchaseCost, item.DefaultRentalPricePerDay, item.TotalRevenue).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("catalog: create item: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, item Item) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE items SET name = $1, total_quantity = $2, set_size = $3, rental_step = $4,
			unit_purchase_cost = $5, default_rental_price_per_day = $6
		WHERE id = $7
	`, item.Name, item.TotalQuantity, item.SetSize, item.RentalStep,
		item.UnitPurchaseCost, item.DefaultRentalPricePerDay, id)
	if err != nil {
		return fmt.Errorf("catalog: update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) AddRevenue(ctx context.Context, id int64, delta float64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE items SET total_revenue = total_revenue + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("catalog: add revenue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceComponents(ctx context.Context, itemID int64, components []Component) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM item_components WHERE package_id = $1`, itemID); err != nil {
		return fmt.Errorf("catalog: clear components: %w", err)
	}
	for _, c := range components {
		_, err := r.db.Exec(ctx, `
			INSERT INTO item_components (package_id, component_id, qty_per_unit)
			VALUES ($1, $2, $3)
		`, itemID, c.ItemID, c.QtyPerUnit)
		if err != nil {
			return fmt.Errorf("catalog: insert component: %w", err)
		}
	}
	return nil
}

func (r *repository) GetComponents(ctx context.Context, itemID int64) ([]Component, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ic.component_id, i.name, ic.qty_per_unit
		FROM item_components ic
		JOIN items i ON i.id = ic.component_id
		WHERE ic.package_id = $1
		ORDER BY i.name ASC
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []Component
	for rows.Next() {
		var c Component
		if err := rows.Scan(&c.ItemID, &c.ItemName, &c.QtyPerUnit); err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	var kind string
	var createdAt pgtype.Timestamptz
	err := row.Scan(&item.ID, &item.Name, &kind, &item.TotalQuantity, &item.SetSize,
		&item.RentalStep, &item.UnitPurchaseCost, &item.DefaultRentalPricePerDay,
		&item.TotalRevenue, &createdAt)
	if err != nil {
		return Item{}, err
	}
	item.Kind = ItemKind(kind)
	if createdAt.Valid {
		item.CreatedAt = createdAt.Time
	}
	return item, nil
}
