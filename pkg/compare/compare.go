package compare

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

// Values is the three-way comparison behind every column sort: negative when
// a sorts before b ascending, zero when equal, positive otherwise. Rules in
// order: nulls after everything, then epoch comparison when both sides are
// dates, then numeric comparison when both sides are strictly numeric, then
// case-insensitive natural string comparison. Values that fail a
// classification fall through silently, they never error.
//
// The null rule is a hard invariant. Callers flipping the sign for
// descending sorts must skip the flip when either side is null, otherwise
// empty cells float to the top of descending views.
func Values(a, b any) int {
	aNull, bNull := IsNull(a), IsNull(b)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return 1
	case bNull:
		return -1
	}

	if aDate, ok := DateValue(a); ok {
		if bDate, ok := DateValue(b); ok {
			return cmp.Compare(aDate.UnixMilli(), bDate.UnixMilli())
		}
	}

	if aNum, ok := NumericValue(a); ok {
		if bNum, ok := NumericValue(b); ok {
			return cmp.Compare(aNum, bNum)
		}
	}

	return Natural(types.FieldString(a), types.FieldString(b))
}

func IsNull(value any) bool {
	return value == nil
}

// Matches YYYY-MM-DD with an optional THH:MM:SS[.mmm][Z|±HH:MM] tail. The
// strict shape keeps bare numeric strings like "2024" out of date territory.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2}(\.\d{1,3})?(Z|[+-]\d{2}:\d{2})?)?$`)

// time.Parse accepts an unannounced fractional second after the seconds
// field, so three layouts cover the whole pattern above.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DateValue classifies a value as a date. Only time.Time values and strings
// matching the strict ISO-8601 pattern qualify.
func DateValue(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		if !isoDatePattern.MatchString(v) {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

var numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// NumericValue classifies a value as a number. Strings qualify only when
// the trimmed form matches ^-?\d+(\.\d+)?$; the empty string stays a string
// and never coerces to zero.
func NumericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if !numericPattern.MatchString(trimmed) {
			return 0, false
		}
		if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
