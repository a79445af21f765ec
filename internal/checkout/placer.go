// Package checkout turns a list of requested lines into a placed order.
// All reads and writes of one placement run in a single unit of work, so
// a failure on any line leaves inventory, orders and carts untouched.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MikeMC777/storefront/internal/inventory"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
)

type Line struct {
	ProductID int64
	Quantity  int
}

type Request struct {
	UserID    int64
	AddressID int64
	Lines     []Line
}

// Validate checks the request shape without touching storage.
func (r Request) Validate() error {
	if r.UserID <= 0 {
		return &InvalidInputError{Reason: "user_id must be positive"}
	}
	if r.AddressID <= 0 {
		return &InvalidInputError{Reason: "address_id must be positive"}
	}
	if len(r.Lines) == 0 {
		return &InvalidInputError{Reason: "at least one line is required"}
	}
	seen := make(map[int64]struct{}, len(r.Lines))
	for i, l := range r.Lines {
		if l.ProductID <= 0 {
			return &InvalidInputError{Reason: fmt.Sprintf("lines[%d]: product_id must be positive", i)}
		}
		if l.Quantity <= 0 {
			return &InvalidInputError{Reason: fmt.Sprintf("lines[%d]: quantity must be positive", i)}
		}
		if _, dup := seen[l.ProductID]; dup {
			return &InvalidInputError{Reason: fmt.Sprintf("lines[%d]: product %d listed twice", i, l.ProductID)}
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

type Placer struct {
	uow     UnitOfWork
	timeout time.Duration
	now     func() time.Time
}

// NewPlacer builds a Placer; a zero timeout leaves the caller's deadline
// as the only bound.
func NewPlacer(uow UnitOfWork, timeout time.Duration) *Placer {
	return &Placer{
		uow:     uow,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Place creates the order header, then for each line in the given order
// checks stock, copies the current price into an order line, decrements
// inventory and zeroes the user's cart line. The first failing line aborts
// the whole placement.
func (p *Placer) Place(ctx context.Context, req Request) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var orderID int64
	err := p.uow.Do(ctx, func(ctx context.Context, s Session) error {
		id, err := s.Orders().CreateOrder(ctx, req.UserID, req.AddressID, order.StatusPlaced, p.now())
		if err != nil {
			return &StorageError{Op: "create order", Err: err}
		}
		for _, l := range req.Lines {
			if err := placeLine(ctx, s, id, req.UserID, l); err != nil {
				return err
			}
		}
		orderID = id
		return nil
	})
	if err != nil {
		return 0, classify(err)
	}
	return orderID, nil
}

func placeLine(ctx context.Context, s Session, orderID, userID int64, l Line) error {
	available, err := s.Inventory().GetAvailable(ctx, l.ProductID)
	if errors.Is(err, inventory.ErrNotFound) {
		return &NotFoundError{ProductID: l.ProductID}
	}
	if err != nil {
		return &StorageError{Op: "get available", Err: err}
	}
	if available < l.Quantity {
		return &InsufficientStockError{ProductID: l.ProductID, Requested: l.Quantity, Available: available}
	}

	price, err := s.Catalog().CurrentPrice(ctx, l.ProductID)
	if errors.Is(err, product.ErrNotFound) {
		return &NotFoundError{ProductID: l.ProductID}
	}
	if err != nil {
		return &StorageError{Op: "current price", Err: err}
	}

	if err := s.Orders().AddOrderLine(ctx, orderID, l.ProductID, l.Quantity, price); err != nil {
		return &StorageError{Op: "add order line", Err: err}
	}

	switch err := s.Inventory().Decrement(ctx, l.ProductID, l.Quantity); {
	case errors.Is(err, inventory.ErrInsufficientStock):
		return &InsufficientStockError{ProductID: l.ProductID, Requested: l.Quantity, Available: available}
	case errors.Is(err, inventory.ErrNotFound):
		return &NotFoundError{ProductID: l.ProductID}
	case err != nil:
		return &StorageError{Op: "decrement", Err: err}
	}

	if _, err := s.Cart().Clear(ctx, userID, l.ProductID); err != nil {
		return &StorageError{Op: "clear cart", Err: err}
	}
	return nil
}

// classify keeps typed failures and reports anything else, such as a
// failed begin or commit, as a storage failure.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrStorage):
		return err
	}
	return &StorageError{Op: "place order", Err: err}
}
