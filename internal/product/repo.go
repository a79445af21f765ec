// Package product provides the catalog read model and the authoritative
// current price of each product.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MikeMC777/storefront/internal/db"
	"github.com/MikeMC777/storefront/internal/money"
)

var (
	ErrNotFound = errors.New("product not found")
)

type Query struct {
	Q      string
	Limit  int
	Offset int
}

// Normalize applies the paging defaults used by List.
func (q Query) Normalize() Query {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Q = strings.TrimSpace(q.Q)
	return q
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	UpdatePrice(ctx context.Context, id int64, price money.Money) error
}

type PGRepo struct{ db db.DBTX }

func NewPGRepo(q db.DBTX) *PGRepo { return &PGRepo{db: q} }

const selectProduct = `
	SELECT p.id, p.name, p.description, p.price::text, p.currency,
	       COALESCE(i.quantity, 0), COALESCE(img.url, ''), p.created_at, p.updated_at
	FROM products p
	LEFT JOIN inventory i ON i.product_id = p.id
	LEFT JOIN LATERAL (
		SELECT url FROM product_images pi
		WHERE pi.product_id = p.id
		ORDER BY pi.position
		LIMIT 1
	) img ON TRUE
`

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, selectProduct+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q = q.Normalize()
	rows, err := r.db.Query(ctx, selectProduct+`
		WHERE ($1 = '' OR p.name ILIKE '%'||$1||'%' OR p.description ILIKE '%'||$1||'%')
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`, q.Q, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CurrentPrice takes a share lock on the product row, so a concurrent price
// change waits until the caller's transaction ends.
func (r *PGRepo) CurrentPrice(ctx context.Context, id int64) (money.Money, error) {
	var amount, curr string
	err := r.db.QueryRow(ctx, `
		SELECT price::text, currency FROM products WHERE id = $1 FOR SHARE
	`, id).Scan(&amount, &curr)
	if errors.Is(err, pgx.ErrNoRows) {
		return money.Money{}, ErrNotFound
	}
	if err != nil {
		return money.Money{}, fmt.Errorf("select price: %w", err)
	}
	return money.Parse(amount, curr)
}

func (r *PGRepo) UpdatePrice(ctx context.Context, id int64, price money.Money) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET price = $2::numeric, currency = $3, updated_at = NOW()
		WHERE id = $1
	`, id, price.AmountString(), price.Currency.String())
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p           Product
		price, curr string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &curr, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	m, err := money.Parse(price, curr)
	if err != nil {
		return Product{}, fmt.Errorf("product %d price: %w", p.ID, err)
	}
	p.Price = m
	return p, nil
}
