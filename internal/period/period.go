// Package period converts billing period kinds and anchor dates into due
// dates and period identifiers. Everything here is pure; all dates are
// normalised to IST midnight before any arithmetic.
package period

import (
	"fmt"
	"strings"
	"time"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/timeutil"
)

// Kind is the billing cadence of a tenant.
type Kind string

const (
	Monthly Kind = "monthly"
	Weekly  Kind = "weekly"
	Daily   Kind = "daily"
)

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case Monthly, Weekly, Daily:
		return true
	}
	return false
}

// Parse converts user input into a Kind.
func Parse(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", invalidKind(s)
	}
	return k, nil
}

func invalidKind(k any) error {
	return &apperr.Error{
		Code:    apperr.CodeInvalidPeriodKind,
		Message: fmt.Sprintf("invalid payment period %q", k),
	}
}

// Next returns the due date one period after from.
//
// Monthly advancement keeps anchorDay (the tenant's joining day-of-month)
// and clamps to the last day of the target month, so a tenant who joined
// on the 31st is due on Feb 28/29 and again on Mar 31. anchorDay <= 0 means
// "use from's own day".
func Next(kind Kind, from time.Time, anchorDay int) (time.Time, error) {
	d := timeutil.StartOfDay(from)
	switch kind {
	case Monthly:
		if anchorDay <= 0 {
			anchorDay = d.Day()
		}
		return AddMonthsClamped(d, 1, anchorDay), nil
	case Weekly:
		return d.AddDate(0, 0, 7), nil
	case Daily:
		return d.AddDate(0, 0, 1), nil
	default:
		return time.Time{}, invalidKind(kind)
	}
}

// FirstDue returns the first due date for a tenant who joined on joining.
func FirstDue(kind Kind, joining time.Time) (time.Time, error) {
	return Next(kind, joining, timeutil.StartOfDay(joining).Day())
}

// AddMonthsClamped moves t by months calendar months, landing on day or on
// the last day of the target month when it is shorter.
func AddMonthsClamped(t time.Time, months, day int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	return DueInMonth(first.Year(), first.Month(), day, t.Location())
}

// DueInMonth returns the due date inside the given month for a joining day,
// clamped to the month's last day.
func DueInMonth(year int, month time.Month, day int, loc *time.Location) time.Time {
	last := DaysInMonth(year, month)
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
