package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Number decodes any JSON value, yielding 0 for null, non-numeric or
// negative input. Numeric strings are accepted.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var f float64
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f = parsed
	} else if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}
	if f > 0 {
		*n = Number(f)
	}
	return nil
}

func (n Number) Float() float64 { return float64(n) }

func (n Number) Int() int { return int(n) }

// SignedNumber is Number without the non-negative clamp, for raw scores.
type SignedNumber float64

func (n *SignedNumber) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = SignedNumber(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = SignedNumber(f)
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes ISO-8601 strings or epoch milliseconds; anything else
// leaves the zero time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] != '"' {
		var ms float64
		if err := json.Unmarshal(b, &ms); err == nil && ms > 0 {
			t.Time = time.UnixMilli(int64(ms)).UTC()
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return nil
}

// Text decodes strings, numbers and booleans into their textual form.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*t = Text(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		return nil
	}
	*t = Text(b)
	return nil
}

// Flag decodes booleans, "true"/"false" strings and 0/1 numbers.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = false
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "true", `"true"`, "1", `"1"`:
		*f = true
	}
	return nil
}
