package normalize

import (
	"strconv"
	"strings"
	"time"

	"cot-dashboard/internal/domain"

	"github.com/tidwall/gjson"
)

var (
	dateKeys      = []string{"reportDate", "report_date", "report_date_as_yyyy_mm_dd", "date", "Date"}
	priceDateKeys = []string{"date", "Date", "timestamp"}
	commodityKeys = []string{"commodity_name", "commodityName", "commodity"}
)

// lookup returns the first synonym that is present, non-null and not an
// empty string.
func lookup(fields map[string]gjson.Result, keys ...string) (gjson.Result, bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v.Type == gjson.Null {
			continue
		}
		if v.Type == gjson.String && strings.TrimSpace(v.Str) == "" {
			continue
		}
		return v, true
	}
	return gjson.Result{}, false
}

// toFloat coerces a JSON number or numeric string.
func toFloat(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func optionalFloat(fields map[string]gjson.Result, keys ...string) *float64 {
	v, ok := lookup(fields, keys...)
	if !ok {
		return nil
	}
	n, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &n
}

// rawDate keeps string dates verbatim and renders epoch numbers as dates.
func rawDate(v gjson.Result) string {
	if v.Type == gjson.Number {
		return epochDate(v.Num)
	}
	return strings.TrimSpace(v.String())
}

// canonicalDate renders any supported date representation as YYYY-MM-DD.
// Unparsable strings are returned unchanged.
func canonicalDate(v gjson.Result) string {
	if v.Type == gjson.Number {
		return epochDate(v.Num)
	}
	s := strings.TrimSpace(v.String())
	if t, ok := ParseDate(s); ok {
		return t.Format(domain.DateLayout)
	}
	return s
}

// Epoch values below this are seconds, not milliseconds.
const epochMillisThreshold = 1e11

func epochDate(n float64) string {
	ms := int64(n)
	if n < epochMillisThreshold {
		ms = int64(n * 1000)
	}
	return time.UnixMilli(ms).UTC().Format(domain.DateLayout)
}

var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
	"Jan 2, 2006",
	"01/02/2006",
}

// ParseDate parses the date formats the backend has been seen to emit. The
// result is in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
