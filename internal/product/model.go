package product

import (
	"time"

	"github.com/MikeMC777/storefront/internal/money"
)

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       money.Money
	Stock       int
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// View is the JSON shape of a product. The price stays a string to avoid
// rounding (NUMERIC in Postgres).
// swagger:model
type View struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	Currency    string    `json:"currency"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewView(p Product) View {
	return View{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.AmountString(),
		Currency:    p.Price.Currency.String(),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// FromView reverses NewView; used when reading cached entries.
func FromView(v View) (Product, error) {
	price, err := money.Parse(v.Price, v.Currency)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Price:       price,
		Stock:       v.Stock,
		ImageURL:    v.ImageURL,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}, nil
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	// search query applied
	Q string `json:"q,omitempty"`
	// limit applied
	Limit int `json:"limit"`
	// offset applied
	Offset int `json:"offset"`
	// items found
	Items []View `json:"items"`
}

// UpdatePriceRequest payload of a price change.
// swagger:model UpdatePriceRequest
type UpdatePriceRequest struct {
	Price    string `json:"price"    example:"24.90"`
	Currency string `json:"currency" example:"BRL"`
}
