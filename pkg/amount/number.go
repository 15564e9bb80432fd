package amount

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Number is an amount decoded from either a JSON number or a numeric string.
// Decimal columns are sometimes serialized as strings by the backend.
type Number float64

// Float64 returns n as a float64.
func (n Number) Float64() float64 {
	return float64(n)
}

// String implements fmt.Stringer using Format.
func (n Number) String() string {
	return Format(float64(n))
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, ok := Parse(s)
		if !ok {
			return fmt.Errorf("amount: invalid numeric string %q", s)
		}
		*n = Number(v)
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*n = Number(v)
	return nil
}
