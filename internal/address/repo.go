package address

import (
	"context"
	"fmt"
	"time"

	"github.com/MikeMC777/storefront/internal/db"
)

type Address struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Street     string    `json:"street"`
	Number     string    `json:"number,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
}

type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Address, error)
}

type PGRepo struct{ db db.DBTX }

func NewPGRepo(q db.DBTX) *PGRepo { return &PGRepo{db: q} }

// ListByUser skips soft-deleted addresses.
func (r *PGRepo) ListByUser(ctx context.Context, userID int64) ([]Address, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, street, number, city, state, postal_code, created_at
		FROM addresses
		WHERE user_id = $1 AND NOT deleted
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select addresses: %w", err)
	}
	defer rows.Close()

	out := []Address{}
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Street, &a.Number, &a.City, &a.State, &a.PostalCode, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
