package models

import (
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the calendar-day format used for transaction dates, delivery dates and
// purchase dates. Dates in this format compare correctly as strings.
const DateLayout = "2006-01-02"

// ParseDate checks that s is a calendar day in DateLayout.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DateIn returns the calendar day of t in loc.
func DateIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// DateRange is an inclusive range of calendar days; an empty bound is open.
type DateRange struct {
	Start string
	End   string
}

// Validate checks both bounds and their order.
func (r DateRange) Validate() error {
	if r.Start != "" {
		if _, err := ParseDate(r.Start); err != nil {
			return err
		}
	}
	if r.End != "" {
		if _, err := ParseDate(r.End); err != nil {
			return err
		}
	}
	if r.Start != "" && r.End != "" && r.Start > r.End {
		return errors.New("startDate must not be after endDate")
	}
	return nil
}

func (r DateRange) Contains(date string) bool {
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}
