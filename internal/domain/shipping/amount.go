package shipping

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary field as the storefront sends it: a quoted string
// ("199.00"), a bare number, null or missing. Values that do not parse are
// treated as absent rather than rejected.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount returns a present amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

// AmountFromString parses s, returning an absent amount when it does not parse.
func AmountFromString(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return NewAmount(d)
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = Amount{}
			return nil
		}
		*a = AmountFromString(s)
		return nil
	}
	*a = AmountFromString(string(data))
	return nil
}

// MarshalJSON implements json.Marshaler
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Value.String()), nil
}

// Or returns the amount's value, or fallback when absent.
func (a Amount) Or(fallback decimal.Decimal) decimal.Decimal {
	if !a.Valid {
		return fallback
	}
	return a.Value
}
