package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrMalformedDuration signals that a timeline had no usable quantity and the
// default for its unit was used instead.
var ErrMalformedDuration = errors.New("MALFORMED_DURATION")

type Unit int

const (
	Days Unit = iota
	Weeks
	BusinessDays
)

func (u Unit) String() string {
	switch u {
	case Weeks:
		return "weeks"
	case BusinessDays:
		return "business_days"
	default:
		return "days"
	}
}

// Default quantities used when a timeline carries no digits.
const (
	DefaultBusinessDays = 10
	DefaultWeeks        = 1
	DefaultDays         = 7
)

// Duration is a delivery lead time.
type Duration struct {
	Unit  Unit
	Count int
}

func (d Duration) String() string {
	return fmt.Sprintf("%d %s", d.Count, d.Unit)
}

// Parse reads free text such as "10 bds", "2 wks", "2 weeks" or "5 days". Every digit
// in the text is concatenated into the quantity, so "2 to 4 days" is 24 days.
// The returned Duration is always usable; a non-nil error wraps
// ErrMalformedDuration and means the unit's default quantity was applied.
func Parse(text string) (Duration, error) {
	lower := strings.ToLower(strings.TrimSpace(text))

	d := Duration{Unit: Days, Count: DefaultDays}
	switch {
	case strings.Contains(lower, "bd") || strings.Contains(lower, "business"):
		d = Duration{Unit: BusinessDays, Count: DefaultBusinessDays}
	case strings.Contains(lower, "wk") || strings.Contains(lower, "week"):
		d = Duration{Unit: Weeks, Count: DefaultWeeks}
	}

	var digits strings.Builder
	for _, r := range lower {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return d, fmt.Errorf("%w: no quantity in %q, using %s", ErrMalformedDuration, text, d)
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil || n > maxCount {
		return d, fmt.Errorf("%w: quantity %q out of range, using %s", ErrMalformedDuration, digits.String(), d)
	}
	d.Count = n
	return d, nil
}

// maxCount keeps date arithmetic well inside time.Time's range.
const maxCount = 100000
