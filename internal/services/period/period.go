// Package period splits the time since a merchant's oldest pending order into
// the billing periods a disbursement run settles.
package period

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"disburse/internal/models"
)

var ErrUnsupportedFrequency = errors.New("unsupported disbursement frequency")

// Frequency is how often a merchant is paid out.
type Frequency string

const (
	Daily  Frequency = models.FrequencyDaily
	Weekly Frequency = models.FrequencyWeekly
)

const day = 24 * time.Hour

// ParseFrequency normalises a stored frequency value.
func ParseFrequency(raw string) (Frequency, error) {
	switch f := Frequency(strings.ToUpper(strings.TrimSpace(raw))); f {
	case Daily, Weekly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFrequency, raw)
	}
}

// Period is an inclusive [Start, End] range. Start is midnight UTC of the
// first day, End is the last nanosecond of the last day.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t is within [Start, End].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// DisbursedOn is the calendar date a disbursement for this period carries.
func (p Period) DisbursedOn() time.Time {
	return StartOfDay(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.Format(time.DateOnly) + ", " + p.End.Format(time.DateOnly) + "]"
}

// Periods returns the closed periods for freq beginning on the day of start,
// as seen at now. The sequence is lazy, finite and can be ranged over more
// than once.
//
// DAILY yields one period per day from start through yesterday.
// WEEKLY yields fixed 7 day strides from start while the stride begins before
// Monday of the current week and has fully ended before today. Strides are not
// re-aligned to week boundaries, so a stride still open today is left for a
// later run.
func Periods(freq Frequency, start, now time.Time) (iter.Seq[Period], error) {
	first := StartOfDay(start)
	today := StartOfDay(now)

	switch freq {
	case Daily:
		return stride(first, 1, func(s time.Time) bool { return s.Before(today) }), nil
	case Weekly:
		weekStart := StartOfWeek(today)
		return stride(first, 7, func(s time.Time) bool {
			return s.Before(weekStart) && !s.AddDate(0, 0, 7).After(today)
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, string(freq))
	}
}

func stride(first time.Time, days int, open func(time.Time) bool) iter.Seq[Period] {
	return func(yield func(Period) bool) {
		for s := first; open(s); s = s.AddDate(0, 0, days) {
			p := Period{Start: s, End: EndOfDay(s.AddDate(0, 0, days-1))}
			if !yield(p) {
				return
			}
		}
	}
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's day in UTC.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(day - time.Nanosecond)
}

// StartOfWeek returns midnight UTC of the Monday of t's week.
func StartOfWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthRange returns the first and last day (both at midnight) of t's month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.UTC().Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// PreviousMonthRange returns MonthRange for the month before t's month.
func PreviousMonthRange(t time.Time) (time.Time, time.Time) {
	first, _ := MonthRange(t)
	return MonthRange(first.AddDate(0, 0, -1))
}
