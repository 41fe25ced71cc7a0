package period

import (
	"fmt"
	"time"

	"hostel-backend/internal/timeutil"
)

// Key identifies one billing period of one kind. Only the fields relevant
// to Kind are populated: Month+Year for monthly, WeekNumber+Year for weekly
// (ISO-8601 week and ISO year), Date for daily.
type Key struct {
	Kind       Kind   `json:"payment_period"`
	Month      int    `json:"month,omitempty"`
	Year       int    `json:"year,omitempty"`
	WeekNumber int    `json:"week_number,omitempty"`
	Date       string `json:"date,omitempty"`
}

// Identify computes the period key for a due date.
func Identify(kind Kind, due time.Time) (Key, error) {
	d := timeutil.StartOfDay(due)
	switch kind {
	case Monthly:
		return Key{Kind: kind, Month: int(d.Month()), Year: d.Year()}, nil
	case Weekly:
		year, week := d.ISOWeek()
		return Key{Kind: kind, WeekNumber: week, Year: year}, nil
	case Daily:
		return Key{Kind: kind, Date: d.Format(timeutil.DateLayout)}, nil
	default:
		return Key{}, invalidKind(kind)
	}
}

func (k Key) String() string {
	switch k.Kind {
	case Monthly:
		return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
	case Weekly:
		return fmt.Sprintf("%04d-W%02d", k.Year, k.WeekNumber)
	case Daily:
		return k.Date
	}
	return string(k.Kind)
}
