package timeutil

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30)
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60) // UTC+5:30
	}
}

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// ParseDate parses a YYYY-MM-DD string as midnight IST
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, IST)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate formats a time as YYYY-MM-DD in IST
func FormatDate(t time.Time) string {
	return t.In(IST).Format(DateLayout)
}

// StartOfDay returns the start of day (00:00:00) in IST for the given time
func StartOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// DateOf reinterprets the calendar fields of t as an IST date. Use it for
// values read from DATE columns, which arrive as UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, IST)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Both are truncated to IST midnight first, so DST-free IST keeps this exact.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// Common layouts for IST formatting
const (
	DateLayout    = "2006-01-02"
	DisplayLayout = "02 Jan 2006, 03:04 PM"
)
