// internal/models/amount.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
)

// ErrAmountOverflow is returned when 256-bit arithmetic would wrap.
var ErrAmountOverflow = errors.New("amount overflow")

// Amount is an unsigned 256-bit quantity of value. It is stored and
// serialized as a base-10 string.
type Amount struct {
	v uint256.Int
}

func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// MaxAmount is 2^256-1.
func MaxAmount() Amount {
	var a Amount
	a.v.SetAllOne()
	return a
}

func ParseAmount(s string) (Amount, error) {
	var a Amount
	if s == "" {
		return a, errors.New("empty amount")
	}
	if err := a.v.SetFromDecimal(s); err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return a, nil
}

func (a Amount) IsZero() bool { return a.v.IsZero() }

func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

func (a Amount) Lt(b Amount) bool { return a.v.Lt(&b.v) }

func (a Amount) Eq(b Amount) bool { return a.v.Eq(&b.v) }

func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, ErrAmountOverflow
	}
	return out, nil
}

// Sub returns a-b. The caller must make sure b <= a.
func (a Amount) Sub(b Amount) (Amount, error) {
	var out Amount
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, ErrAmountOverflow
	}
	return out, nil
}

// MulDiv returns floor(a*b/d) using a 512-bit intermediate product.
func (a Amount) MulDiv(b, d Amount) (Amount, error) {
	if d.IsZero() {
		return Amount{}, errors.New("division by zero")
	}
	var out Amount
	if _, overflow := out.v.MulDivOverflow(&a.v, &b.v, &d.v); overflow {
		return Amount{}, ErrAmountOverflow
	}
	return out, nil
}

// Uint64 reports the value when it fits in 64 bits.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

func (a Amount) String() string { return a.v.Dec() }

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// accept bare JSON numbers too
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a decimal string: %w", err)
		}
		s = n.String()
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.scanString(v)
	case []byte:
		return a.scanString(string(v))
	case int64:
		if v < 0 {
			return fmt.Errorf("negative amount %d", v)
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", value)
	}
}

func (a *Amount) scanString(s string) error {
	if s == "" {
		*a = Amount{}
		return nil
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		*a = NewAmount(n)
		return nil
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// GormDataType keeps amounts in a text column on every dialect so large
// values never lose precision.
func (Amount) GormDataType() string {
	return "varchar(80)"
}
