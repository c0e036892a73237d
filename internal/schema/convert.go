package schema

// convert.go turns raw record values into comparable Go values.
//
// Records are opaque maps: values arrive as whatever the Resource produced
// (JSON numbers as float64, SQL integers as int64, dates as strings or
// time.Time). These helpers are lenient and report ok=false rather than
// failing, so a single bad cell never breaks a table.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DisplayDateLayout is the table rendering format for dates (DD.MM.YYYY).
const DisplayDateLayout = "02.01.2006"

// StorageDateLayout is the canonical date format written by forms.
const StorageDateLayout = "2006-01-02"

// dateLayouts are tried in order; unambiguous layouts come first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	StorageDateLayout,
	"2006/01/02",
	DisplayDateLayout,
	"2.1.2006",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate interprets v as a point in time.
// Strings are tried against the known layouts; numbers are Unix milliseconds.
func ParseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, !val.IsZero()
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return *val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case bool:
		return time.Time{}, false
	default:
		ms, ok := ToFloat(v)
		if !ok || ms == 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
}

// ToFloat interprets v as a number.
func ToFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ToString renders v without transformation; nil becomes "".
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(StorageDateLayout)
	default:
		return fmt.Sprint(val)
	}
}

// isBlank reports whether v is an empty/falsy value for rendering purposes.
func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	case time.Time:
		return val.IsZero()
	}
	if f, ok := ToFloat(v); ok {
		return f == 0
	}
	return false
}
