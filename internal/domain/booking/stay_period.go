package booking

import (
	"fmt"
	"time"

	"github.com/stayhive/service-rental/internal/domain"
)

// DateLayout is the wire format for check-in and check-out dates.
const DateLayout = "2006-01-02"

// StayPeriod is a half-open calendar interval [CheckIn, CheckOut).
// The check-out day is not occupied, so a stay ending on day D and a stay
// starting on day D do not overlap (same-day turnover).
type StayPeriod struct {
	checkIn  time.Time
	checkOut time.Time
}

// NewStayPeriod creates a StayPeriod, normalizing both dates to UTC midnight.
// A period of zero or negative length is rejected.
func NewStayPeriod(checkIn, checkOut time.Time) (StayPeriod, error) {
	in := toDate(checkIn)
	out := toDate(checkOut)
	if !out.After(in) {
		return StayPeriod{}, domain.NewValidationError("stay must be at least one night")
	}
	return StayPeriod{checkIn: in, checkOut: out}, nil
}

// ParseStayPeriod parses check-in and check-out dates in DateLayout format.
func ParseStayPeriod(checkIn, checkOut string) (StayPeriod, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return StayPeriod{}, domain.NewValidationError(fmt.Sprintf("invalid check-in date: %s", checkIn))
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return StayPeriod{}, domain.NewValidationError(fmt.Sprintf("invalid check-out date: %s", checkOut))
	}
	return NewStayPeriod(in, out)
}

// CheckIn returns the first occupied day.
func (p StayPeriod) CheckIn() time.Time { return p.checkIn }

// CheckOut returns the day after the last occupied day.
func (p StayPeriod) CheckOut() time.Time { return p.checkOut }

// Nights returns the number of nights in the period.
func (p StayPeriod) Nights() int {
	return int(p.checkOut.Sub(p.checkIn).Hours() / 24)
}

// Overlaps reports whether two half-open periods share at least one night.
// This single inequality covers a period starting inside the other, ending
// inside the other, and fully enclosing the other.
func (p StayPeriod) Overlaps(other StayPeriod) bool {
	return p.checkIn.Before(other.checkOut) && other.checkIn.Before(p.checkOut)
}

// DateOf normalizes t to UTC midnight. Horizon comparisons against stay
// dates must go through this so time-of-day never excludes a stay checking
// out on the cutoff day.
func DateOf(t time.Time) time.Time {
	return toDate(t)
}

func (p StayPeriod) String() string {
	return fmt.Sprintf("[%s, %s)", p.checkIn.Format(DateLayout), p.checkOut.Format(DateLayout))
}

func toDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
