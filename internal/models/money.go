package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a signed amount in a currency code.
type Money struct {
	Amount   decimal.Decimal `json:"amount" yaml:"amount"`
	Currency string          `json:"currency" yaml:"currency"`
}

// NewMoney creates a Money value.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// SameCurrency reports whether both values use the same currency code.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

// Rate returns |m| / |base|, the exchange rate that converts base into m,
// rounded to 8 places. A zero base has no rate.
func (m Money) Rate(base Money) (decimal.Decimal, error) {
	if base.Amount.IsZero() {
		return decimal.Zero, fmt.Errorf("cannot derive rate from zero %s amount", base.Currency)
	}
	return m.Amount.Abs().DivRound(base.Amount.Abs(), 8), nil
}

// TransferRate is the exchange rate recorded on a transfer from source to
// dest: set only when the currencies differ and a rate can be derived.
func TransferRate(source, dest Money) decimal.NullDecimal {
	if source.SameCurrency(dest) {
		return decimal.NullDecimal{}
	}
	r, err := dest.Rate(source)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(r)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}
