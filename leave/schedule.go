/*
schedule.go - Day-Weight Calculator

PURPOSE:
  Expands a trip's date range into per-day entries with deduction weights.
  This is the leaf computation everything else builds on: the Usage
  Accumulator prorates with it, the Allocation Validator sums it live on
  every edit.

WEIGHT RULES:
  - all_full (or unset):       1.0 per day
  - all_am / all_pm:           0.5 per day
  - single_am / single_pm:     0.5 (single-day trips)
  - custom:                    0.5 on the start day when startPortion=pm,
                               0.5 on the end day when endPortion=am,
                               evaluated independently; 1.0 otherwise
  A day's weight is always 1, 0.5 or 0 - nothing else.

EXCEPTION SEMANTIC:
  A day is "naturally off" when it falls outside the working week or on a
  holiday. ExcludedDates always means "flip the default": a naturally-off
  day counts only when excluded (user works/travels anyway), a working day
  counts unless excluded (user opted it out).

SEE ALSO:
  - types.go: DurationMode, DayPortion, WorkspaceSettings
  - usage.go: proration of multi-year trips over these weights
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// ObservedSuffix is appended to the name of a weekend holiday mirrored onto
// the following Monday under the "monday" weekend rule.
const ObservedSuffix = " (Observed)"

var (
	weightFull = decimal.NewFromInt(1)
	weightHalf = decimal.NewFromFloat(0.5)
)

// =============================================================================
// HOLIDAY CALENDAR - Effective holiday map for one user
// =============================================================================

// HolidayCalendar maps dates to holiday names for one user: the union of
// included holidays across the user's subscribed configs, plus observed
// Mondays under the "monday" weekend rule.
type HolidayCalendar map[Date]string

// HolidayCalendarFor builds the effective holiday map for a user.
// A nil user yields an empty calendar.
func (e *Engine) HolidayCalendarFor(u *User) HolidayCalendar {
	cal := make(HolidayCalendar)
	if u == nil {
		return cal
	}
	for _, h := range e.Data.Holidays {
		if !h.IsIncluded || h.Date.IsZero() || !u.SubscribesTo(h.ConfigID) {
			continue
		}
		cal[h.Date] = h.Name
		if u.HolidayWeekendRule == WeekendRuleMonday && h.Date.IsSaturdayOrSunday() {
			observed := h.Date.ObservedMonday()
			if _, taken := cal[observed]; !taken {
				cal[observed] = h.Name + ObservedSuffix
			}
		}
	}
	return cal
}

// WeekendHolidayCount counts the user's included holidays in a year that
// fall on a weekend. Feeds the lieu allowance under the "lieu" rule.
func (e *Engine) WeekendHolidayCount(u *User, year int) int {
	if u == nil {
		return 0
	}
	count := 0
	for _, h := range e.Data.Holidays {
		if !h.IsIncluded || h.Date.IsZero() || h.Date.Year() != year {
			continue
		}
		if !u.SubscribesTo(h.ConfigID) {
			continue
		}
		if h.FallsOnWeekend() {
			count++
		}
	}
	return count
}

// =============================================================================
// SCHEDULE - Ordered per-day weights for a date range
// =============================================================================

// DayEntry is one calendar day of a request, with its deduction weight
// after the exception reconciliation.
type DayEntry struct {
	Date        Date
	Year        int
	Weight      decimal.Decimal
	IsWeekend   bool // outside the configured working week
	IsHoliday   bool
	HolidayName string
}

// NaturallyOff reports the day's default classification before exceptions.
func (d DayEntry) NaturallyOff() bool { return d.IsWeekend || d.IsHoliday }

// ScheduleInput carries everything the calculator needs for one range.
type ScheduleInput struct {
	Start        Date
	End          Date
	Mode         DurationMode
	StartPortion DayPortion
	EndPortion   DayPortion
	Excluded     DateSet
	Holidays     HolidayCalendar
}

// Schedule is the expanded range, ascending by date.
type Schedule struct {
	Days []DayEntry
}

// Schedule expands [start, end] into per-day entries. Zero or inverted
// ranges yield an empty schedule rather than an error.
func (e *Engine) Schedule(in ScheduleInput) Schedule {
	if in.Start.IsZero() || in.End.IsZero() || in.End.Before(in.Start) {
		return Schedule{}
	}

	var days []DayEntry
	for d := in.Start; d.BeforeOrEqual(in.End); d = d.AddDays(1) {
		name, isHoliday := in.Holidays[d]
		entry := DayEntry{
			Date:        d,
			Year:        d.Year(),
			IsWeekend:   !e.Data.Settings.IsWorkingDay(d.Weekday()),
			IsHoliday:   isHoliday,
			HolidayName: name,
		}

		base := baseWeight(in, d.Equal(in.Start), d.Equal(in.End))

		// Naturally-off days count only when explicitly excluded;
		// working days count unless explicitly excluded.
		active := !entry.NaturallyOff()
		if in.Excluded.Contains(d) {
			active = !active
		}
		if active {
			entry.Weight = base
		} else {
			entry.Weight = decimal.Zero
		}
		days = append(days, entry)
	}
	return Schedule{Days: days}
}

// TripScheduleFor expands a stored trip against one participant's calendar.
func (e *Engine) TripScheduleFor(t *Trip, u *User) Schedule {
	return e.Schedule(ScheduleInput{
		Start:        t.StartDate,
		End:          t.EndDate,
		Mode:         t.DurationMode,
		StartPortion: t.StartPortion,
		EndPortion:   t.EndPortion,
		Excluded:     t.ExcludedSet(),
		Holidays:     e.HolidayCalendarFor(u),
	})
}

func baseWeight(in ScheduleInput, isStart, isEnd bool) decimal.Decimal {
	switch in.Mode {
	case ModeAllAM, ModeAllPM, ModeSingleAM, ModeSinglePM:
		return weightHalf
	case ModeCustom:
		// Both portion flags are checked independently; a single-day range
		// consults both on the same day. The result stays 0.5, never 0.25.
		if isStart && in.StartPortion == PortionPM {
			return weightHalf
		}
		if isEnd && in.EndPortion == PortionAM {
			return weightHalf
		}
		return weightFull
	default: // ModeAllFull or unset
		return weightFull
	}
}

// Total is the deduction weight summed over the whole range.
func (s Schedule) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range s.Days {
		total = total.Add(d.Weight)
	}
	return total
}

// TotalForYear restricts the sum to days of one calendar year.
func (s Schedule) TotalForYear(year int) decimal.Decimal {
	total := decimal.Zero
	for _, d := range s.Days {
		if d.Year == year {
			total = total.Add(d.Weight)
		}
	}
	return total
}

// Years returns the distinct calendar years the range touches, ascending.
func (s Schedule) Years() []int {
	var years []int
	for _, d := range s.Days {
		if len(years) == 0 || years[len(years)-1] != d.Year {
			years = append(years, d.Year)
		}
	}
	return years
}
