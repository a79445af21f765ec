package cart

// AddRequest payload of POST /cart.
// swagger:model AddRequest
type AddRequest struct {
	UserID    int64 `json:"user_id"    example:"1"`
	ProductID int64 `json:"product_id" example:"5"`
	Quantity  int   `json:"quantity"   example:"2"`
}

// AddResponse quantity now in the cart for that product.
// swagger:model AddResponse
type AddResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ClearRequest payload of PUT /cart/clear.
// swagger:model ClearRequest
type ClearRequest struct {
	UserID    int64 `json:"user_id"    example:"1"`
	ProductID int64 `json:"product_id" example:"5"`
}

// LineView cart line as returned by GET /cart. Available is the stock at
// read time and may change before the order is placed.
// swagger:model LineView
type LineView struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"    example:"19.90"`
	Currency  string `json:"currency" example:"BRL"`
	ImageURL  string `json:"image_url,omitempty"`
	Available int    `json:"available"`
}

func NewLineView(l Line, available int) LineView {
	return LineView{
		ProductID: l.ProductID,
		Name:      l.Name,
		Quantity:  l.Quantity,
		Price:     l.Price.AmountString(),
		Currency:  l.Price.Currency.String(),
		ImageURL:  l.ImageURL,
		Available: available,
	}
}
