// Package inventory keeps the available quantity per product.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MikeMC777/storefront/internal/db"
)

var (
	ErrNotFound          = errors.New("product not in inventory")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

type Ledger interface {
	GetAvailable(ctx context.Context, productID int64) (int, error)
	Decrement(ctx context.Context, productID int64, amount int) error
	Levels(ctx context.Context, productIDs []int64) (map[int64]int, error)
}

type PGLedger struct{ db db.DBTX }

func NewPGLedger(q db.DBTX) *PGLedger { return &PGLedger{db: q} }

// GetAvailable locks the inventory row until the surrounding transaction
// ends, so the value stays valid for a following Decrement.
func (l *PGLedger) GetAvailable(ctx context.Context, productID int64) (int, error) {
	var qty int
	err := l.db.QueryRow(ctx, `
		SELECT quantity FROM inventory WHERE product_id = $1 FOR UPDATE
	`, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select inventory: %w", err)
	}
	return qty, nil
}

// Decrement subtracts amount only if enough stock remains; the check and the
// write are a single statement.
func (l *PGLedger) Decrement(ctx context.Context, productID int64, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tag, err := l.db.Exec(ctx, `
		UPDATE inventory
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE product_id = $1 AND quantity >= $2
	`, productID, amount)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := l.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM inventory WHERE product_id = $1)
	`, productID).Scan(&exists); err != nil {
		return fmt.Errorf("select inventory: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInsufficientStock
}

// Levels returns the quantity of every listed product that has a record.
func (l *PGLedger) Levels(ctx context.Context, productIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	rows, err := l.db.Query(ctx, `
		SELECT product_id, quantity FROM inventory WHERE product_id = ANY($1)
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("select inventory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			qty int
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		out[id] = qty
	}
	return out, rows.Err()
}
