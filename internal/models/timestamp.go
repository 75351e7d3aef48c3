package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// layouts accepted when reading a hand-edited or legacy status file
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// Timestamp is a time that decodes leniently and always encodes as RFC 3339.
// Empty, null or unparseable values decode to the zero time instead of failing
// the surrounding document.
type Timestamp struct {
	time.Time
}

// At wraps t.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// MarshalJSON implements json.Marshaler. The zero time encodes as "".
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}

	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// unix seconds
		if secs, err := strconv.ParseFloat(string(data), 64); err == nil && secs > 0 {
			t.Time = time.Unix(int64(secs), 0).UTC()
		}
		return nil
	}

	t.Time = ParseTimestamp(s)
	return nil
}

// ParseTimestamp parses s in any accepted layout. Layouts without a zone are
// read in local time. Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts
		}
	}

	return time.Time{}
}
