package checkout

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/db"
	"github.com/MikeMC777/storefront/internal/inventory"
	"github.com/MikeMC777/storefront/internal/money"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
)

// Ledger is the part of inventory.Ledger placement needs.
type Ledger interface {
	GetAvailable(ctx context.Context, productID int64) (int, error)
	Decrement(ctx context.Context, productID int64, amount int) error
}

type PriceReader interface {
	CurrentPrice(ctx context.Context, productID int64) (money.Money, error)
}

type CartClearer interface {
	Clear(ctx context.Context, userID, productID int64) (bool, error)
}

// Session gives access to the components bound to one unit of work. Every
// write made through it is committed or discarded together.
type Session interface {
	Inventory() Ledger
	Catalog() PriceReader
	Orders() order.Writer
	Cart() CartClearer
}

// UnitOfWork runs fn in a fresh session. A nil return commits, anything
// else (including a panic) rolls back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Session) error) error
}

type PGUnitOfWork struct {
	db db.Beginner
}

func NewPGUnitOfWork(b db.Beginner) *PGUnitOfWork { return &PGUnitOfWork{db: b} }

func (u *PGUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s Session) error) error {
	_, err := db.WithTx(ctx, u.db, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, fn(ctx, newPGSession(tx))
	})
	return err
}

type pgSession struct {
	ledger  *inventory.PGLedger
	catalog *product.PGRepo
	orders  *order.PGRepo
	cart    *cart.PGStore
}

func newPGSession(tx pgx.Tx) *pgSession {
	return &pgSession{
		ledger:  inventory.NewPGLedger(tx),
		catalog: product.NewPGRepo(tx),
		orders:  order.NewPGRepo(tx),
		cart:    cart.NewPGStore(tx),
	}
}

func (s *pgSession) Inventory() Ledger { return s.ledger }
func (s *pgSession) Catalog() PriceReader { return s.catalog }
func (s *pgSession) Orders() order.Writer { return s.orders }
func (s *pgSession) Cart() CartClearer { return s.cart }
