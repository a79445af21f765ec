package order

import (
	"time"

	"golang.org/x/text/currency"

	"github.com/MikeMC777/storefront/internal/money"
)

// PlaceOrderLine payload of one requested line.
// swagger:model PlaceOrderLine
type PlaceOrderLine struct {
	ProductID int64 `json:"product_id" example:"5"`
	Quantity  int   `json:"quantity"   example:"4"`
}

// PlaceOrderRequest payload of order placement.
// swagger:model PlaceOrderRequest
type PlaceOrderRequest struct {
	UserID    int64            `json:"user_id"    example:"1"`
	AddressID int64            `json:"address_id" example:"3"`
	Lines     []PlaceOrderLine `json:"lines"`
}

// PlaceOrderResponse identity of the placed order.
// swagger:model PlaceOrderResponse
type PlaceOrderResponse struct {
	OrderID int64 `json:"order_id" example:"42"`
}

// StockError body of a 409 answer.
// swagger:model StockError
type StockError struct {
	Error     string `json:"error"`
	ProductID int64  `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// ItemView order line as returned by the API.
// swagger:model ItemView
type ItemView struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price" example:"19.90"`
	Currency  string `json:"currency"   example:"BRL"`
}

// OrderView order header with its lines and total.
// swagger:model OrderView
type OrderView struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	AddressID int64      `json:"address_id"`
	Status    string     `json:"status"`
	Total     string     `json:"total,omitempty"`
	Currency  string     `json:"currency,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []ItemView `json:"items,omitempty"`
}

// ListResponse page of a user's orders, newest first.
// swagger:model ListResponse
type ListResponse struct {
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
	Items  []OrderView `json:"items"`
}

func NewItemView(it Item) ItemView {
	return ItemView{
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice.AmountString(),
		Currency:  it.UnitPrice.Currency.String(),
	}
}

// NewOrderView renders o; the total is only set when items are given.
func NewOrderView(o Order, items []Item, fallback currency.Unit) (OrderView, error) {
	v := OrderView{
		ID:        o.ID,
		UserID:    o.UserID,
		AddressID: o.AddressID,
		Status:    o.Status.String(),
		CreatedAt: o.CreatedAt,
	}
	if items == nil {
		return v, nil
	}

	subtotals := make([]money.Money, 0, len(items))
	v.Items = make([]ItemView, 0, len(items))
	for _, it := range items {
		subtotals = append(subtotals, it.Subtotal())
		v.Items = append(v.Items, NewItemView(it))
	}
	total, err := money.Sum(fallback, subtotals...)
	if err != nil {
		return OrderView{}, err
	}
	v.Total = total.AmountString()
	v.Currency = total.Currency.String()
	return v, nil
}
