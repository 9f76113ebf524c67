package valueobjects

import (
	"time"

	appErrors "studyflow-backend/pkg/errors"
)

// dayLayout is the wire format for calendar days
const dayLayout = "2006-01-02"

// Day is a UTC calendar day. Scheduling and activity aggregation compare
// days, never instants, so client and server clocks in different timezones
// cannot drift a card's due date or split a streak.
type Day struct {
	t time.Time
}

// DayOf truncates an instant to its UTC calendar day
func DayOf(t time.Time) Day {
	u := t.UTC()
	return Day{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the current UTC calendar day
func Today() Day { return DayOf(time.Now()) }

// ParseDay parses a day in ISO "YYYY-MM-DD" form
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, appErrors.NewValidation("invalid date, expected YYYY-MM-DD")
	}
	return DayOf(t), nil
}

// AddDays returns the day n days later (or earlier for negative n)
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// DaysUntil returns the whole number of days from d to other
func (d Day) DaysUntil(other Day) int {
	return int(other.t.Sub(d.t) / (24 * time.Hour))
}

func (d Day) Before(other Day) bool { return d.t.Before(other.t) }
func (d Day) After(other Day) bool  { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool  { return d.t.Equal(other.t) }
func (d Day) IsZero() bool          { return d.t.IsZero() }

// Time returns the UTC midnight instant of the day
func (d Day) Time() time.Time { return d.t }

// String formats the day as ISO "YYYY-MM-DD"
func (d Day) String() string { return d.t.Format(dayLayout) }

// MarshalJSON encodes the day as an ISO date string
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes an ISO date string
func (d *Day) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return appErrors.NewValidation("invalid date, expected YYYY-MM-DD string")
	}
	parsed, err := ParseDay(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
