package filter

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// zoned layouts carry their own offset
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	time.RFC1123Z,
	time.RFC1123,
}

// local layouts are interpreted in the caller's location
var localLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"20060102",
}

// minEpochMillis is the smallest number read as Unix milliseconds. Anything
// shorter than 11 digits is more likely a year or a compact date.
const minEpochMillis = 1e10

// ParseDate extracts a time from a loosely typed value. Strings are tried
// against the common API layouts, numbers of at least 11 digits are Unix
// milliseconds. It reports false for nil, empty, zero and unparseable values.
func ParseDate(value any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}

	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseDateString(v, loc)
	case json.Number:
		if ms, err := v.Float64(); err == nil {
			return fromMillis(ms)
		}
		return parseDateString(v.String(), loc)
	case float64:
		return fromMillis(v)
	case int64:
		return fromMillis(float64(v))
	case int:
		return fromMillis(float64(v))
	default:
		return time.Time{}, false
	}
}

func parseDateString(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if isDigits(s) {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromMillis(float64(ms))
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func fromMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < minEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}

// RecordDate returns the first non-empty value among keys in a loosely shaped
// record, or nil when none is present.
func RecordDate(fields map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := fields[key]; ok && v != nil {
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}
