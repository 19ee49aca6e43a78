// Package dates computes letter and delivery dates in the lender's time zone.
package dates

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"engagement-letters/internal/models"
)

const (
	DefaultTimezone = "America/Los_Angeles"

	// Layout renders M/D/YYYY without leading zeros.
	Layout = "1/2/2006"

	NotApplicable = "N/A"
)

// Engine computes {current_date, delivery_date} pairs. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	loc   *time.Location
	local *time.Location
	now   func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocalZone sets the zone whose midnight anchors week-based timelines.
// Defaults to time.Local.
func WithLocalZone(loc *time.Location) Option {
	return func(e *Engine) { e.local = loc }
}

// New builds an Engine for the named IANA zone; an empty name means
// America/Los_Angeles.
func New(timezone string, opts ...Option) (*Engine, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	e := &Engine{loc: loc, local: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Today is the current date in the engine's zone.
func (e *Engine) Today() string {
	return e.now().In(e.loc).Format(Layout)
}

// Compute returns today's date and the delivery date d after it.
func (e *Engine) Compute(d Duration) models.Dates {
	now := e.now()
	current := now.In(e.loc)

	var delivery time.Time
	switch d.Unit {
	case BusinessDays:
		delivery = addBusinessDays(current, d.Count)
	case Weeks:
		// Weeks count from midnight of today's local date, not from the
		// Pacific date, so the two can disagree near midnight.
		l := now.In(e.local)
		anchor := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, e.local)
		delivery = anchor.AddDate(0, 0, 7*d.Count)
	default:
		delivery = current.AddDate(0, 0, d.Count)
	}

	return models.Dates{
		CurrentDate:  current.Format(Layout),
		DeliveryDate: delivery.Format(Layout),
	}
}

// ComputeFor parses timeline and computes dates for a letter type. Secondary
// reviews have no delivery date and ignore the timeline. A non-nil error wraps
// ErrMalformedDuration; the returned dates are valid regardless.
func (e *Engine) ComputeFor(letterType models.LetterType, timeline string) (models.Dates, Duration, error) {
	if letterType.IsSecondary() {
		return models.Dates{CurrentDate: e.Today(), DeliveryDate: NotApplicable}, Duration{}, nil
	}

	d, err := Parse(timeline)
	return e.Compute(d), d, err
}

// addBusinessDays returns the n-th weekday strictly after t.
func addBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return t
}
