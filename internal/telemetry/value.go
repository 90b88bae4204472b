package telemetry

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Value is a snapshot cell that is either numeric or plain text. The
// snapshot format declares no types, so columns outside the fixed schema
// are sniffed per value, the way the dashboard always treated them.
type Value struct {
	Number float64
	Text   string
	IsNum  bool
}

// SniffValue parses raw into a numeric Value when it looks like a number,
// otherwise a text Value. Empty strings are text.
func SniffValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return Value{Number: n, IsNum: true}
		}
	}
	return Value{Text: raw}
}

// String returns the value in its original textual form.
func (v Value) String() string {
	if v.IsNum {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// MarshalJSON encodes numeric values as JSON numbers and text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsNum {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}
