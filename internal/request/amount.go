// Package request holds the decoding rules shared by the HTTP handlers.
package request

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Amount is a money or quantity field of a request body. Unlike decimal.Decimal it only
// accepts JSON numbers, so "1000" is rejected.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return errors.New("amount must be a JSON number")
	}
	return a.Decimal.UnmarshalJSON(b)
}

// Ptr returns the decimal behind an optional amount, or nil.
func (a *Amount) Ptr() *decimal.Decimal {
	if a == nil {
		return nil
	}
	d := a.Decimal
	return &d
}
