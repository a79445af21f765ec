// Package cart stores each user's desired quantity per product.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeMC777/storefront/internal/db"
	"github.com/MikeMC777/storefront/internal/money"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidUser     = errors.New("userID is empty")
)

type Store interface {
	Upsert(ctx context.Context, userID, productID int64, delta int) (int, error)
	Clear(ctx context.Context, userID, productID int64) (bool, error)
	Remove(ctx context.Context, userID, productID int64) (bool, error)
	List(ctx context.Context, userID int64) ([]Line, error)
}

type PGStore struct{ db db.DBTX }

func NewPGStore(q db.DBTX) *PGStore { return &PGStore{db: q} }

// Upsert adds delta to the (user, product) row, creating it when absent, and
// returns the resulting quantity. Stock is not checked here.
func (s *PGStore) Upsert(ctx context.Context, userID, productID int64, delta int) (int, error) {
	if userID <= 0 {
		return 0, ErrInvalidUser
	}
	if delta <= 0 {
		return 0, ErrInvalidQuantity
	}

	var qty int
	err := s.db.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity
	`, userID, productID, delta).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("upsert cart item: %w", err)
	}
	return qty, nil
}

// Clear zeroes the row and keeps it. Clearing an absent or already zero row
// is a no-op; the bool reports whether a row matched.
func (s *PGStore) Clear(ctx context.Context, userID, productID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE cart_items SET quantity = 0, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("clear cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns every row of the user's cart, zero quantities included, in
// the order the products were first added.
func (s *PGStore) List(ctx context.Context, userID int64) ([]Line, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}

	rows, err := s.db.Query(ctx, `
		SELECT ci.product_id, ci.quantity, ci.created_at,
		       p.name, p.price::text, p.currency, COALESCE(img.url, '')
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN LATERAL (
			SELECT url FROM product_images pi
			WHERE pi.product_id = p.id
			ORDER BY pi.position
			LIMIT 1
		) img ON TRUE
		WHERE ci.user_id = $1
		ORDER BY ci.created_at, ci.product_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var (
			l           Line
			price, curr string
		)
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.CreatedAt, &l.Name, &price, &curr, &l.ImageURL); err != nil {
			return nil, err
		}
		l.UserID = userID
		if l.Price, err = money.Parse(price, curr); err != nil {
			return nil, fmt.Errorf("product %d price: %w", l.ProductID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
