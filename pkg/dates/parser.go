package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	yearFirstRe = regexp.MustCompile(`^(\d{4})([-/.])(\d{1,2})([-/.])(\d{1,2})$`)
	yearLastRe  = regexp.MustCompile(`^(\d{1,2})([-/.])(\d{1,2})([-/.])(\d{4})$`)
)

// Layouts carrying their own zone. The parsed instant is converted into the
// parser's location before truncation.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05.000Z0700",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	time.UnixDate,
}

// Layouts without zone information are read in the parser's location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.ANSIC,
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
}

// Parser converts date strings into Dates. It is safe for concurrent use.
type Parser struct {
	order Order
	loc   *time.Location
}

// NewParser creates a parser for the given numeric order and location.
// A nil location means time.Local.
func NewParser(order Order, loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{order: order, loc: loc}
}

var defaultParser = NewParser(DayFirst, nil)

// Parse parses s with the default day-first, local-time parser.
func Parse(s string) Date {
	return defaultParser.Parse(s)
}

// Order returns the numeric order the parser was configured with.
func (p *Parser) Order() Order {
	return p.order
}

// Location returns the location dates are normalized into.
func (p *Parser) Location() *time.Location {
	return p.loc
}

// Parse returns the local-midnight day named by s, or Invalid.
func (p *Parser) Parse(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "undefined") {
		return Invalid
	}

	if m := yearFirstRe.FindStringSubmatch(s); m != nil {
		if m[2] != m[4] {
			return Invalid
		}
		return p.calendarDay(atoi(m[1]), atoi(m[3]), atoi(m[5]))
	}

	if m := yearLastRe.FindStringSubmatch(s); m != nil {
		if m[2] != m[4] {
			return Invalid
		}
		first, second, year := atoi(m[1]), atoi(m[3]), atoi(m[5])
		if p.order == MonthFirst {
			return p.calendarDay(year, first, second)
		}
		return p.calendarDay(year, second, first)
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return p.FromTime(t)
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return p.FromTime(t)
		}
	}
	return Invalid
}

// FromTime truncates t to midnight in the parser's location. The zero time
// is Invalid.
func (p *Parser) FromTime(t time.Time) Date {
	if t.IsZero() {
		return Invalid
	}
	local := t.In(p.loc)
	return Date{
		t:     time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.loc),
		valid: true,
	}
}

// Today returns the day containing now.
func (p *Parser) Today(now time.Time) Date {
	return p.FromTime(now)
}

// calendarDay rejects out-of-range components instead of letting time.Date
// roll 31/02 over into March.
func (p *Parser) calendarDay(year, month, day int) Date {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Invalid
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Invalid
	}
	return Date{t: t, valid: true}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
