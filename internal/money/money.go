package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var ErrCurrencyMismatch = errors.New("currency mismatch")

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// Parse builds a Money from a NUMERIC text value and an ISO 4217 code.
func Parse(amount, code string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("amount[%s] is not valid: %w", amount, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Money{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return Money{Amount: d, Currency: unit}, nil
}

func (m Money) Mul(qty int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(qty))), Currency: m.Currency}
}

func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

// AmountString is the fixed two-decimal form stored in NUMERIC(12,2) columns.
func (m Money) AmountString() string {
	return m.Amount.StringFixed(2)
}

func (m Money) String() string {
	return m.Currency.String() + " " + m.AmountString()
}

// Sum adds the amounts; an empty slice yields zero in the given fallback currency.
func Sum(fallback currency.Unit, items ...Money) (Money, error) {
	total := Money{Amount: decimal.Zero, Currency: fallback}
	for i, it := range items {
		if i == 0 {
			total.Currency = it.Currency
		}
		var err error
		total, err = total.Add(it)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
