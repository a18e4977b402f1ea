package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DropsPerXRP is the number of drops in one XRP.
const DropsPerXRP = 1_000_000

// Amount is a settlement value: either native XRP denominated in drops, or a
// token issued by a third-party account. On the wire a bare string is drops
// and an object is an issued amount.
type Amount struct {
	// Drops is set for native amounts. Always non-negative.
	Drops int64

	// Value, Currency and Issuer are set for issued amounts. Currency may be
	// a 40-character hex-encoded 160-bit code.
	Value    string
	Currency string
	Issuer   string

	issued bool
}

// NativeAmount builds an XRP amount from drops.
func NativeAmount(drops int64) Amount {
	return Amount{Drops: drops}
}

// IssuedAmount builds a token amount.
func IssuedAmount(value, currency, issuer string) Amount {
	return Amount{Value: value, Currency: currency, Issuer: issuer, issued: true}
}

// IsNative reports whether the amount is denominated in XRP.
func (a Amount) IsNative() bool {
	return !a.issued
}

// XRP returns the amount in whole XRP units.
func (a Amount) XRP() float64 {
	return float64(a.Drops) / DropsPerXRP
}

type issuedAmountJSON struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
}

// UnmarshalJSON decodes both wire shapes.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var drops string
		if err := json.Unmarshal(data, &drops); err != nil {
			return err
		}
		v, err := strconv.ParseInt(drops, 10, 64)
		if err != nil {
			return fmt.Errorf("parse drops %q: %w", drops, err)
		}
		if v < 0 {
			return fmt.Errorf("negative drops %d", v)
		}
		*a = NativeAmount(v)
		return nil
	}

	var obj issuedAmountJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*a = IssuedAmount(obj.Value, obj.Currency, obj.Issuer)
	return nil
}

// MarshalJSON encodes the wire shape matching the amount's kind.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.IsNative() {
		return json.Marshal(strconv.FormatInt(a.Drops, 10))
	}
	return json.Marshal(issuedAmountJSON{Value: a.Value, Currency: a.Currency, Issuer: a.Issuer})
}
