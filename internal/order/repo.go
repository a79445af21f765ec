package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MikeMC777/storefront/internal/db"
	"github.com/MikeMC777/storefront/internal/money"
)

var (
	ErrNotFound = errors.New("order not found")
)

type Writer interface {
	CreateOrder(ctx context.Context, userID, addressID int64, status Status, createdAt time.Time) (int64, error)
	AddOrderLine(ctx context.Context, orderID, productID int64, quantity int, unitPrice money.Money) error
}

type Reader interface {
	GetByID(ctx context.Context, id int64) (*Order, []Item, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Order, error)
	GetItems(ctx context.Context, orderID int64) ([]Item, error)
}

type PGRepo struct{ db db.DBTX }

func NewPGRepo(q db.DBTX) *PGRepo { return &PGRepo{db: q} }

func (r *PGRepo) CreateOrder(ctx context.Context, userID, addressID int64, status Status, createdAt time.Time) (int64, error) {
	var id int64
	if err := r.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, address_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, addressID, int16(status), createdAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

// AddOrderLine stores unitPrice as given; the caller resolves it.
func (r *PGRepo) AddOrderLine(ctx context.Context, orderID, productID int64, quantity int, unitPrice money.Money) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, currency)
		VALUES ($1, $2, $3, $4::numeric, $5)
	`, orderID, productID, quantity, unitPrice.AmountString(), unitPrice.Currency.String()); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Order, []Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, address_id, status, created_at
		FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &o, items, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, address_id, status, created_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetItems returns ErrNotFound when the order itself does not exist.
func (r *PGRepo) GetItems(ctx context.Context, orderID int64) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return r.items(ctx, orderID)
}

func (r *PGRepo) items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT order_id, product_id, quantity, unit_price::text, currency
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it          Item
			price, curr string
		)
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &price, &curr); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = money.Parse(price, curr); err != nil {
			return nil, fmt.Errorf("order item %d/%d price: %w", it.OrderID, it.ProductID, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
