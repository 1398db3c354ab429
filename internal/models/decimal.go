package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// LooseDecimal decodes numbers and numeric strings; anything else decodes to zero.
// Hand-typed and model-generated trade fields go through it.
type LooseDecimal struct {
	Value decimal.Decimal
	Valid bool
}

// ParseLooseDecimal coerces a string, stripping currency symbols and thousands separators
func ParseLooseDecimal(s string) LooseDecimal {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return LooseDecimal{}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return LooseDecimal{}
	}
	return LooseDecimal{Value: d, Valid: true}
}

// UnmarshalJSON never fails
func (l *LooseDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = LooseDecimal{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*l = LooseDecimal{}
			return nil
		}
		*l = ParseLooseDecimal(s)
		return nil
	}
	*l = ParseLooseDecimal(string(data))
	return nil
}

// MarshalJSON writes null for invalid values
func (l LooseDecimal) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return []byte("null"), nil
	}
	return l.Value.MarshalJSON()
}

// OrZero returns the decimal or zero when invalid
func (l LooseDecimal) OrZero() decimal.Decimal {
	if !l.Valid {
		return decimal.Zero
	}
	return l.Value
}
