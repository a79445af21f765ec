package order

import (
	"time"

	"github.com/MikeMC777/storefront/internal/money"
)

type Status int16

const (
	StatusPlaced Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusPlaced:
		return "placed"
	default:
		return "unknown"
	}
}

type Order struct {
	ID        int64
	UserID    int64
	AddressID int64
	Status    Status
	CreatedAt time.Time
}

// Item is an order line. UnitPrice is a copy of the product price at the
// moment the order was placed.
type Item struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice money.Money
}

func (it Item) Subtotal() money.Money {
	return it.UnitPrice.Mul(it.Quantity)
}
