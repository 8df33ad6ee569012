package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// timestampLayouts are tried in order. The API emits naive ISO-8601 values
// (no offset) for columns written with a UTC clock, so layouts without a zone
// are parsed as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp is an instant as received from the wire.
// It keeps the raw text so that values which fail to parse survive a
// decode/encode cycle untouched; such values report Valid() == false.
type Timestamp struct {
	raw   string
	t     time.Time
	valid bool
}

// ParseTimestamp parses s without failing. Unparseable input yields an
// invalid Timestamp that still remembers s.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{raw: s, t: t.UTC(), valid: true}
		}
	}
	return Timestamp{raw: s}
}

// ParseTimestampIn parses a value typed by a person. Values without a zone
// are wall-clock time in loc (nil means UTC). The result keeps no raw text,
// so it goes to the API as an RFC 3339 UTC instant. Unparseable input yields
// an invalid Timestamp for validation to report.
func ParseTimestampIn(s string, loc *time.Location) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Timestamp{t: t.UTC(), valid: true}
		}
	}
	return Timestamp{raw: s}
}

// ParseTimestampStrict parses s and reports ErrInvalidTimestamp on failure.
// Used for user input, where a typo should be rejected rather than ignored.
func ParseTimestampStrict(s string) (Timestamp, error) {
	ts := ParseTimestamp(s)
	if !ts.Valid() {
		return Timestamp{}, ErrInvalidTimestamp
	}
	return ts, nil
}

// TimestampOf wraps an already-known instant.
func TimestampOf(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC(), valid: true}
}

// Valid reports whether the timestamp holds a parsed instant.
func (ts Timestamp) Valid() bool {
	return ts.valid
}

// IsZero reports whether nothing was supplied at all.
func (ts Timestamp) IsZero() bool {
	return !ts.valid && ts.raw == ""
}

// Time returns the instant in UTC, or the zero time when invalid.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// Raw returns the text the timestamp was parsed from.
func (ts Timestamp) Raw() string {
	return ts.raw
}

// Before reports whether ts is a valid instant strictly before t.
func (ts Timestamp) Before(t time.Time) bool {
	return ts.valid && ts.t.Before(t)
}

// String returns the original text, or RFC 3339 for timestamps built from a time.Time.
func (ts Timestamp) String() string {
	if ts.raw != "" {
		return ts.raw
	}
	if ts.valid {
		return ts.t.Format(time.RFC3339Nano)
	}
	return ""
}

// MarshalJSON writes null for an empty timestamp and a JSON string otherwise.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// UnmarshalJSON never fails: strings are parsed leniently and any other JSON
// value is kept as raw text on an invalid timestamp.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*ts = Timestamp{raw: string(data)}
		return nil
	}
	*ts = ParseTimestamp(s)
	return nil
}
