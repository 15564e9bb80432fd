package timestamp

import (
	"bytes"
	"encoding/json"
	"time"
)

// layouts accepted on decode. The backend emits ISO-8601 without a zone
// designator, which encoding/json's time.Time rejects.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Time is a server-assigned creation timestamp. Zone-less values are read
// as UTC. A value in any other format is kept verbatim in Raw and shown
// as-is.
type Time struct {
	time.Time
	Raw string
}

// UnmarshalJSON implements json.Unmarshaler. It never fails: the backend
// owns the format.
func (t *Time) UnmarshalJSON(data []byte) error {
	*t = Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Raw = string(data)
		return nil
	}
	t.Raw = raw
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Decoded values are written back
// exactly as received.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.Raw != "" {
		return json.Marshal(t.Raw)
	}
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// Display renders the timestamp in local time for tables, the raw text when
// it could not be parsed, or "" when unset.
func (t Time) Display() string {
	if t.IsZero() {
		return t.Raw
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
