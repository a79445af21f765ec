package cart

import (
	"time"

	"github.com/MikeMC777/storefront/internal/money"
)

// Line is one cart row joined with the product's display data.
type Line struct {
	UserID    int64
	ProductID int64
	Quantity  int
	Name      string
	Price     money.Money
	ImageURL  string
	CreatedAt time.Time
}

// Visible drops zero-quantity lines left behind by placed orders.
func Visible(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			out = append(out, l)
		}
	}
	return out
}
