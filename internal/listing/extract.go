package listing

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FirstNonEmpty returns the first value that is neither nil nor the empty
// string, or nil when every candidate is empty. It resolves aliased fields:
// candidates are passed in preference order.
func FirstNonEmpty(values ...any) any {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		return v
	}
	return nil
}

// numeric returns the textual form of a number or numeric string, with
// thousands separators removed. Booleans and containers are not numeric.
func numeric(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", ""))
		return s, s != ""
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	default:
		return "", false
	}
}

// ToFloat converts a number or numeric string ("1,234.5") to float64.
// Empty, unparsable and non-finite input yields no value.
func ToFloat(v any) (float64, bool) {
	s, ok := numeric(v)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToInt converts a number or numeric string ("450,000") to int64,
// truncating any fractional part. Invalid input yields no value.
func ToInt(v any) (int64, bool) {
	s, ok := numeric(v)
	if !ok {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, ok := ToFloat(s)
	if !ok || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1_000_000_000_000

// maxEpochSeconds is 9999-12-31T23:59:59Z.
const maxEpochSeconds = 253402300799

var (
	dateRE     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	datetimeRE = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})[T ](\d{1,2}):(\d{1,2})(?::(\d{1,2})(?:[.,](\d{1,9}))?)?\s*(Z|[+-]\d{2}(?::?\d{2})?)?$`)
)

// ParseListingTimestamp parses a listing date. Numbers are Unix epochs, in
// milliseconds above 10^12 and in seconds otherwise. Strings are ISO dates
// or date-times; values without a zone are read in loc. Anything else,
// including invalid dates, yields no value.
func ParseListingTimestamp(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch x := v.(type) {
	case nil, bool:
		return time.Time{}, false
	case string:
		return parseTimestampString(strings.TrimSpace(x), loc)
	}

	if s, ok := numeric(v); ok {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochTime(i)
		}
	}

	n, ok := ToFloat(v)
	if !ok {
		return time.Time{}, false
	}
	if n > epochMillisThreshold {
		n /= 1000
	}
	if math.Abs(n) > maxEpochSeconds {
		return time.Time{}, false
	}
	sec, frac := math.Modf(n)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), true
}

// epochTime converts an integral epoch exactly.
func epochTime(n int64) (time.Time, bool) {
	if n > epochMillisThreshold {
		if n/1000 > maxEpochSeconds {
			return time.Time{}, false
		}
		return time.UnixMilli(n).UTC(), true
	}
	if n > maxEpochSeconds || n < -maxEpochSeconds {
		return time.Time{}, false
	}
	return time.Unix(n, 0).UTC(), true
}

func parseTimestampString(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	if m := datetimeRE.FindStringSubmatch(s); m != nil {
		zone := loc
		if m[8] != "" {
			z, ok := parseZone(m[8])
			if !ok {
				return time.Time{}, false
			}
			zone = z
		}
		nsec := 0
		if m[7] != "" {
			frac := (m[7] + "000000000")[:9]
			nsec, _ = strconv.Atoi(frac)
		}
		return civilTime(atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5]), atoi(m[6]), nsec, zone)
	}

	if m := dateRE.FindStringSubmatch(s); m != nil {
		return civilTime(atoi(m[1]), atoi(m[2]), atoi(m[3]), 0, 0, 0, 0, loc)
	}

	return time.Time{}, false
}

// ParseDate parses a calendar date string (YYYY-MM-DD). Non-strings,
// date-times and invalid calendar dates yield no value.
func ParseDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	m := dateRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}
	return civilTime(atoi(m[1]), atoi(m[2]), atoi(m[3]), 0, 0, 0, 0, time.UTC)
}

// civilTime builds a time and rejects components that time.Date would
// silently normalize (Feb 30, 25:00, ...).
func civilTime(year, month, day, hour, minute, sec, nsec int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, nsec, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// parseZone parses "Z", "+hh", "+hhmm" and "+hh:mm".
func parseZone(s string) (*time.Location, bool) {
	if s == "Z" {
		return time.UTC, true
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	hours := atoi(digits[:2])
	minutes := 0
	if len(digits) == 4 {
		minutes = atoi(digits[2:])
	}
	if hours > 23 || minutes > 59 {
		return nil, false
	}
	offset := sign * (hours*3600 + minutes*60)
	if offset == 0 {
		return time.UTC, true
	}
	return time.FixedZone("", offset), true
}

// atoi parses digits already validated by a regexp; empty means zero.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// text renders a scalar as a string; nil, booleans and containers are "".
func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}
