// Package dates turns the heterogeneous date strings returned by the clinic
// backend into comparable calendar days.
//
// Every value is normalized to midnight in the parser's location, so two
// timestamps from the same day compare equal regardless of their time-of-day
// component. Unparseable input never panics or errors; it yields Invalid.
package dates

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Order selects how an all-numeric date with the four-digit year last is read.
type Order int

const (
	// DayFirst reads 03/04/2024 as 3 April 2024.
	DayFirst Order = iota
	// MonthFirst reads 03/04/2024 as 4 March 2024.
	MonthFirst
)

// ParseOrder converts the DATE_ORDER setting ("DMY" or "MDY") to an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "DMY":
		return DayFirst, nil
	case "MDY":
		return MonthFirst, nil
	default:
		return DayFirst, fmt.Errorf("unknown date order %q (want DMY or MDY)", s)
	}
}

func (o Order) String() string {
	if o == MonthFirst {
		return "MDY"
	}
	return "DMY"
}

// Date is a calendar day at local midnight. The zero value is Invalid.
type Date struct {
	t     time.Time
	valid bool
}

// Invalid is the sentinel for missing or unparseable dates.
var Invalid = Date{}

// Valid reports whether d holds a real day.
func (d Date) Valid() bool {
	return d.valid
}

// Time returns the midnight instant, or the zero time for Invalid.
func (d Date) Time() time.Time {
	return d.t
}

// Compare orders valid dates chronologically and places Invalid after every
// valid date, so ascending sorts push undated records to the end.
func (d Date) Compare(o Date) int {
	switch {
	case !d.valid && !o.valid:
		return 0
	case !d.valid:
		return 1
	case !o.valid:
		return -1
	}
	return d.t.Compare(o.t)
}

// Before reports whether both dates are valid and d is strictly earlier.
func (d Date) Before(o Date) bool {
	return d.valid && o.valid && d.t.Before(o.t)
}

// Equal reports whether both dates are valid and fall on the same instant.
func (d Date) Equal(o Date) bool {
	return d.valid && o.valid && d.t.Equal(o.t)
}

func (d Date) String() string {
	if !d.valid {
		return "invalid"
	}
	return d.t.Format("2006-01-02")
}

// MarshalJSON encodes a valid date as "YYYY-MM-DD" and Invalid as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// Timing classifies a dated record relative to today.
type Timing string

const (
	Upcoming Timing = "upcoming"
	Past     Timing = "past"
	Undated  Timing = "undated"
)

// Classify applies the rule date >= today -> upcoming. A record dated
// today is upcoming.
func Classify(d, today Date) Timing {
	if !d.valid || !today.valid {
		return Undated
	}
	if d.t.Before(today.t) {
		return Past
	}
	return Upcoming
}
