package leave

import (
	"sort"
	"time"
)

// =============================================================================
// DATE - Calendar-day value type (the engine never deals in clock time)
// =============================================================================

// DateFormat is the wire format for calendar days.
const DateFormat = "2006-01-02"

// Date is a calendar day, normalized to UTC midnight.
// The zero value means "no date" and is produced by defensive parsing:
// malformed input never raises, it yields a zero Date that every
// calculation treats as an empty range or a skipped day.
type Date struct {
	t time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a yyyy-mm-dd string. Malformed input returns the zero
// Date and false, never an error.
func ParseDate(s string) (Date, bool) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, false
	}
	return NewDate(t.Year(), t.Month(), t.Day()), true
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { t := d.t.AddDate(0, 0, n); return NewDate(t.Year(), t.Month(), t.Day()) }
func (d Date) AddMonths(n int) Date { t := d.t.AddDate(0, n, 0); return NewDate(t.Year(), t.Month(), t.Day()) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// IsSaturdayOrSunday reports the literal calendar weekend, independent of
// the workspace's configured working days. Holiday weekend rules key off
// the calendar weekend, not the working-day configuration.
func (d Date) IsSaturdayOrSunday() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ObservedMonday returns the Monday a weekend holiday is observed on:
// Sunday shifts by one day, Saturday by two, any other day is unchanged.
func (d Date) ObservedMonday() Date {
	switch d.Weekday() {
	case time.Sunday:
		return d.AddDays(1)
	case time.Saturday:
		return d.AddDays(2)
	default:
		return d
	}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateFormat)
}

// JSON encoding uses the yyyy-mm-dd wire format. Unmarshaling is defensive:
// a malformed or null value decodes to the zero Date instead of failing the
// whole document.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, ok := ParseDate(s)
	if !ok {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// =============================================================================
// DATE SET - Per-trip date exception lookups
// =============================================================================

// DateSet is a membership set of calendar days.
type DateSet map[Date]bool

func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		if !d.IsZero() {
			s[d] = true
		}
	}
	return s
}

func (s DateSet) Contains(d Date) bool { return s[d] }

// Toggle flips membership for a date and reports the new state.
func (s DateSet) Toggle(d Date) bool {
	if s[d] {
		delete(s, d)
		return false
	}
	s[d] = true
	return true
}

// Dates returns the members in ascending order.
func (s DateSet) Dates() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
