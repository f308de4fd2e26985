package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamerBerjawi/wandergrid/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func days(n float64) decimal.Decimal { return decimal.NewFromFloat(n) }

func assertDays(t *testing.T, want float64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(days(want)), "want %v days, got %v", want, got)
}

func date(y int, m time.Month, d int) leave.Date { return leave.NewDate(y, m, d) }

// newEngine builds an engine over a minimal workspace. Callers mutate the
// dataset before use.
func newEngine(data *leave.Dataset) *leave.Engine { return leave.NewEngine(data) }

// =============================================================================
// DAY-WEIGHT CALCULATOR
// =============================================================================

func TestSchedule_AllFullWorkweek(t *testing.T) {
	// GIVEN: a Monday-to-Friday range with no holidays
	// WHEN: expanding with all_full
	// THEN: total weight equals the inclusive day count
	e := newEngine(&leave.Dataset{})
	sched := e.Schedule(leave.ScheduleInput{
		Start: date(2024, time.June, 3), // Monday
		End:   date(2024, time.June, 7), // Friday
		Mode:  leave.ModeAllFull,
	})
	require.Len(t, sched.Days, 5)
	assertDays(t, 5, sched.Total())
}

func TestSchedule_WeekendsNaturallyOff(t *testing.T) {
	// Full calendar week: Saturday and Sunday carry zero weight.
	e := newEngine(&leave.Dataset{})
	sched := e.Schedule(leave.ScheduleInput{
		Start: date(2024, time.June, 3), // Monday
		End:   date(2024, time.June, 9), // Sunday
		Mode:  leave.ModeAllFull,
	})
	require.Len(t, sched.Days, 7)
	assertDays(t, 5, sched.Total())
	assert.True(t, sched.Days[5].IsWeekend)
	assert.True(t, sched.Days[6].IsWeekend)
	assertDays(t, 0, sched.Days[5].Weight)
}

func TestSchedule_SingleHalfDayModes(t *testing.T) {
	e := newEngine(&leave.Dataset{})
	for _, mode := range []leave.DurationMode{leave.ModeSingleAM, leave.ModeSinglePM} {
		sched := e.Schedule(leave.ScheduleInput{
			Start: date(2024, time.June, 4),
			End:   date(2024, time.June, 4),
			Mode:  mode,
		})
		require.Len(t, sched.Days, 1, "mode %s", mode)
		assertDays(t, 0.5, sched.Total())
	}
}

func TestSchedule_CustomPortions(t *testing.T) {
	e := newEngine(&leave.Dataset{})

	// PM start and AM end: half day on each boundary, full in between.
	sched := e.Schedule(leave.ScheduleInput{
		Start:        date(2024, time.June, 3),
		End:          date(2024, time.June, 5),
		Mode:         leave.ModeCustom,
		StartPortion: leave.PortionPM,
		EndPortion:   leave.PortionAM,
	})
	assertDays(t, 0.5, sched.Days[0].Weight)
	assertDays(t, 1, sched.Days[1].Weight)
	assertDays(t, 0.5, sched.Days[2].Weight)
	assertDays(t, 2, sched.Total())

	// A single-day custom range checks both flags on that one day, but
	// the weight stays 0.5, never 0.25.
	single := e.Schedule(leave.ScheduleInput{
		Start:        date(2024, time.June, 4),
		End:          date(2024, time.June, 4),
		Mode:         leave.ModeCustom,
		StartPortion: leave.PortionPM,
		EndPortion:   leave.PortionAM,
	})
	assertDays(t, 0.5, single.Total())
}

func TestSchedule_ExclusionFlipsDefault(t *testing.T) {
	// GIVEN: a working Tuesday and a Saturday
	// WHEN: each is placed in excludedDates
	// THEN: the Tuesday stops counting, the Saturday starts counting
	e := newEngine(&leave.Dataset{})
	tuesday := date(2024, time.June, 4)
	saturday := date(2024, time.June, 8)

	in := leave.ScheduleInput{
		Start: date(2024, time.June, 3),
		End:   date(2024, time.June, 9),
		Mode:  leave.ModeAllFull,
	}
	assertDays(t, 5, e.Schedule(in).Total())

	in.Excluded = leave.NewDateSet(tuesday)
	assertDays(t, 4, e.Schedule(in).Total())

	in.Excluded = leave.NewDateSet(saturday)
	assertDays(t, 6, e.Schedule(in).Total())

	// Toggling twice restores the natural default.
	set := leave.NewDateSet()
	set.Toggle(saturday)
	set.Toggle(saturday)
	in.Excluded = set
	assertDays(t, 5, e.Schedule(in).Total())
}

func TestSchedule_InvalidRangeIsEmpty(t *testing.T) {
	e := newEngine(&leave.Dataset{})
	assert.Empty(t, e.Schedule(leave.ScheduleInput{}).Days)
	assert.Empty(t, e.Schedule(leave.ScheduleInput{
		Start: date(2024, time.June, 7),
		End:   date(2024, time.June, 3),
	}).Days)
}

func TestSchedule_ConfiguredWorkingDays(t *testing.T) {
	// Sunday-to-Thursday working week: Friday and Saturday are off.
	e := newEngine(&leave.Dataset{
		Settings: leave.WorkspaceSettings{WorkingDays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		}},
	})
	sched := e.Schedule(leave.ScheduleInput{
		Start: date(2024, time.June, 2), // Sunday
		End:   date(2024, time.June, 8), // Saturday
		Mode:  leave.ModeAllFull,
	})
	assertDays(t, 5, sched.Total())
	assert.False(t, sched.Days[0].IsWeekend) // Sunday works here
	assert.True(t, sched.Days[5].IsWeekend)  // Friday is off
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

func holidayUser(rule leave.HolidayWeekendRule) leave.User {
	return leave.User{ID: "u1", HolidayConfigIDs: []string{"uk"}, HolidayWeekendRule: rule}
}

func TestHolidayCalendar_UnionOfSubscribedConfigs(t *testing.T) {
	data := &leave.Dataset{
		Users: []leave.User{holidayUser(leave.WeekendRuleNone)},
		Holidays: []leave.PublicHoliday{
			{ID: "h1", Date: date(2024, time.December, 25), Name: "Christmas Day", ConfigID: "uk", IsIncluded: true},
			{ID: "h2", Date: date(2024, time.July, 4), Name: "Independence Day", ConfigID: "us", IsIncluded: true},
			{ID: "h3", Date: date(2024, time.December, 26), Name: "Boxing Day", ConfigID: "uk", IsIncluded: false},
		},
	}
	e := newEngine(data)
	cal := e.HolidayCalendarFor(data.UserByID("u1"))

	assert.Equal(t, "Christmas Day", cal[date(2024, time.December, 25)])
	_, hasUS := cal[date(2024, time.July, 4)]
	assert.False(t, hasUS, "unsubscribed config must not contribute")
	_, hasExcluded := cal[date(2024, time.December, 26)]
	assert.False(t, hasExcluded, "isIncluded=false must not contribute")
}

func TestHolidayCalendar_MondayRuleObservesWeekendHoliday(t *testing.T) {
	// GIVEN: a holiday on a Saturday and the 'monday' weekend rule
	// WHEN: building the calendar
	// THEN: the following Monday carries "<name> (Observed)"
	saturday := date(2024, time.June, 1)
	data := &leave.Dataset{
		Users: []leave.User{holidayUser(leave.WeekendRuleMonday)},
		Holidays: []leave.PublicHoliday{
			{ID: "h1", Date: saturday, Name: "Founders Day", ConfigID: "uk", IsIncluded: true},
		},
	}
	e := newEngine(data)
	cal := e.HolidayCalendarFor(data.UserByID("u1"))

	assert.Equal(t, "Founders Day", cal[saturday])
	assert.Equal(t, "Founders Day (Observed)", cal[saturday.ObservedMonday()])

	// The observed Monday is naturally off inside an all_full range and
	// stays out of the deduction unless explicitly excluded.
	sched := e.Schedule(leave.ScheduleInput{
		Start:    date(2024, time.June, 3), // the observed Monday
		End:      date(2024, time.June, 7),
		Mode:     leave.ModeAllFull,
		Holidays: cal,
	})
	assertDays(t, 4, sched.Total())
	assert.True(t, sched.Days[0].IsHoliday)

	withExclusion := e.Schedule(leave.ScheduleInput{
		Start:    date(2024, time.June, 3),
		End:      date(2024, time.June, 7),
		Mode:     leave.ModeAllFull,
		Holidays: cal,
		Excluded: leave.NewDateSet(date(2024, time.June, 3)),
	})
	assertDays(t, 5, withExclusion.Total())
}

func TestWeekendHolidayCount(t *testing.T) {
	weekendFlag := true
	data := &leave.Dataset{
		Users: []leave.User{holidayUser(leave.WeekendRuleLieu)},
		Holidays: []leave.PublicHoliday{
			// Sunday, computed from the date.
			{ID: "h1", Date: date(2024, time.June, 2), Name: "A", ConfigID: "uk", IsIncluded: true},
			// Weekday with an explicit isWeekend override.
			{ID: "h2", Date: date(2024, time.June, 5), Name: "B", ConfigID: "uk", IsIncluded: true, IsWeekend: &weekendFlag},
			// Weekday, does not count.
			{ID: "h3", Date: date(2024, time.June, 6), Name: "C", ConfigID: "uk", IsIncluded: true},
			// Wrong year.
			{ID: "h4", Date: date(2023, time.June, 4), Name: "D", ConfigID: "uk", IsIncluded: true},
		},
	}
	e := newEngine(data)
	assert.Equal(t, 2, e.WeekendHolidayCount(data.UserByID("u1"), 2024))
}

func TestSchedule_PerYearTotalsPartitionTheRange(t *testing.T) {
	e := newEngine(&leave.Dataset{})
	sched := e.Schedule(leave.ScheduleInput{
		Start: date(2024, time.December, 30),
		End:   date(2025, time.January, 3),
		Mode:  leave.ModeAllFull,
	})
	total := sched.Total()
	sum := sched.TotalForYear(2024).Add(sched.TotalForYear(2025))
	assert.True(t, total.Equal(sum))
	assert.Equal(t, []int{2024, 2025}, sched.Years())
}
