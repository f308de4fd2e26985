/*
validator.go - Allocation Validator

PURPOSE:
  Drives the request form: given the date range, duration mode and
  entitlement selection, it computes the total deduction weight, the
  remaining balance per allocation target, and whether the request is
  valid. Exactly one selection mode is active at a time:

  SINGLE-CATEGORY  one entitlement; valid when the remaining balance
                   covers the total weight (or is unlimited/no-impact).

  MULTI-CATEGORY   user-editable split entries; valid when the entries sum
                   to the total weight within 0.1 day. Overspending an
                   individual entitlement is surfaced as a soft warning,
                   not a blocker.

  CROSS-YEAR       entered automatically whenever start and end years
                   differ; exactly two allocations, one per year, with day
                   counts synced from the per-year weight sub-totals.
                   They are derived state, never user-edited. Valid when
                   each year's days fit that year's balance.

TRANSITIONS:
  Entering cross-year mode resets any multi-category split. Leaving it
  (end year equals start year again) discards the cross-year config.

  Validation failures are flags on the Evaluation, never errors: the form
  layer decides whether to block submission.
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// AllocationTolerance is the slack allowed between a multi-category
// split's sum and the total deduction weight, in days.
var AllocationTolerance = decimal.NewFromFloat(0.1)

// SplitEntry is one user-editable row of a multi-category split.
type SplitEntry struct {
	EntitlementID string          `json:"entitlementId"`
	Days          decimal.Decimal `json:"days"`
}

// CrossYearConfig holds the auto-managed two-year split. Days1/Days2 are
// derived from the day-weight computation and resync on every change.
type CrossYearConfig struct {
	Year1        int             `json:"year1"`
	Year2        int             `json:"year2"`
	Entitlement1 string          `json:"entitlement1"`
	Entitlement2 string          `json:"entitlement2"`
	Days1        decimal.Decimal `json:"days1"`
	Days2        decimal.Decimal `json:"days2"`
}

// RequestForm is the full edit-session state for one trip request.
type RequestForm struct {
	TripID string `json:"tripId,omitempty"` // set when editing an existing trip
	UserID string `json:"userId"`

	Start        Date         `json:"startDate"`
	End          Date         `json:"endDate"`
	Mode         DurationMode `json:"durationMode,omitempty"`
	StartPortion DayPortion   `json:"startPortion,omitempty"`
	EndPortion   DayPortion   `json:"endPortion,omitempty"`
	Excluded     []Date       `json:"excludedDates,omitempty"`

	EntitlementID    string       `json:"entitlementId,omitempty"`
	UseMultiCategory bool         `json:"useMultiCategory,omitempty"`
	Splits           []SplitEntry `json:"splits,omitempty"`

	CrossYearMode bool             `json:"crossYearMode,omitempty"`
	CrossYear     *CrossYearConfig `json:"crossYearConfig,omitempty"`
}

// TargetBalance is the validator's verdict for one allocation target.
type TargetBalance struct {
	EntitlementID string          `json:"entitlementId"`
	Year          int             `json:"year"`
	Requested     decimal.Decimal `json:"requested"`
	Remaining     Allowance       `json:"-"`
	RemainingDays decimal.Decimal `json:"remaining"`
	Unlimited     bool            `json:"unlimited,omitempty"`

	// ExceedsBalance blocks in single and cross-year modes; in
	// multi-category mode it is a soft warning only.
	ExceedsBalance bool `json:"exceedsBalance"`

	// ExpiringCarryOver suggests burning carried days before they lapse.
	ExpiringCarryOver bool `json:"expiringCarryOver,omitempty"`
}

// Evaluation is the validator's full output for one form state.
type Evaluation struct {
	Schedule      Schedule
	TotalDays     decimal.Decimal
	CrossYearMode bool
	Targets       []TargetBalance

	// SplitMismatch is set in multi-category mode when the entries do not
	// sum to the total weight within tolerance.
	SplitMismatch bool

	Valid bool
}

// =============================================================================
// SYNC - Derived-state transitions (run after every input change)
// =============================================================================

// Sync recomputes the form's derived allocation state and returns the
// expanded schedule. It is the one place the validator writes form state:
// cross-year entry/exit and the live per-year day counts.
func (e *Engine) Sync(form *RequestForm) Schedule {
	sched := e.Schedule(ScheduleInput{
		Start:        form.Start,
		End:          form.End,
		Mode:         form.Mode,
		StartPortion: form.StartPortion,
		EndPortion:   form.EndPortion,
		Excluded:     NewDateSet(form.Excluded...),
		Holidays:     e.HolidayCalendarFor(e.Data.UserByID(form.UserID)),
	})

	spansYears := !form.Start.IsZero() && !form.End.IsZero() &&
		form.Start.Year() != form.End.Year()

	if !spansYears {
		// Leaving cross-year mode discards its config.
		form.CrossYearMode = false
		form.CrossYear = nil
		return sched
	}

	y1, y2 := form.Start.Year(), form.End.Year()
	if !form.CrossYearMode || form.CrossYear == nil {
		// Entering cross-year mode resets any multi-category split.
		form.CrossYearMode = true
		form.UseMultiCategory = false
		form.Splits = nil
		form.CrossYear = &CrossYearConfig{
			Entitlement1: form.EntitlementID,
			Entitlement2: form.EntitlementID,
		}
	}

	// Day counts sync from the weight computation, never the reverse.
	form.CrossYear.Year1 = y1
	form.CrossYear.Year2 = y2
	form.CrossYear.Days1 = sched.TotalForYear(y1)
	form.CrossYear.Days2 = sched.TotalForYear(y2)
	if form.CrossYear.Entitlement1 == "" {
		form.CrossYear.Entitlement1 = form.EntitlementID
	}
	if form.CrossYear.Entitlement2 == "" {
		form.CrossYear.Entitlement2 = form.EntitlementID
	}
	return sched
}

// =============================================================================
// EVALUATE - Totals, balances, validity
// =============================================================================

// Evaluate syncs the form and judges it. Idempotent: evaluating the same
// state twice yields the same result.
func (e *Engine) Evaluate(form *RequestForm) Evaluation {
	sched := e.Sync(form)
	ev := Evaluation{
		Schedule:      sched,
		TotalDays:     sched.Total(),
		CrossYearMode: form.CrossYearMode,
	}

	switch {
	case form.CrossYearMode:
		e.evaluateCrossYear(form, &ev)
	case form.UseMultiCategory:
		e.evaluateMultiCategory(form, &ev)
	default:
		e.evaluateSingle(form, &ev)
	}
	return ev
}

func (e *Engine) evaluateSingle(form *RequestForm, ev *Evaluation) {
	year := form.Start.Year()
	target := e.target(form, form.EntitlementID, year, ev.TotalDays)
	ev.Targets = []TargetBalance{target}
	ev.Valid = !target.ExceedsBalance
}

func (e *Engine) evaluateMultiCategory(form *RequestForm, ev *Evaluation) {
	year := form.Start.Year()
	sum := decimal.Zero
	for _, entry := range form.Splits {
		sum = sum.Add(entry.Days)
		// Per-entry overspend is a soft warning in this mode.
		ev.Targets = append(ev.Targets, e.target(form, entry.EntitlementID, year, entry.Days))
	}
	ev.SplitMismatch = sum.Sub(ev.TotalDays).Abs().GreaterThan(AllocationTolerance)
	ev.Valid = !ev.SplitMismatch
}

func (e *Engine) evaluateCrossYear(form *RequestForm, ev *Evaluation) {
	cfg := form.CrossYear
	if cfg == nil {
		ev.Valid = false
		return
	}
	// Both years are checked independently, even against the same
	// entitlement: each year's days must fit that year's balance.
	t1 := e.target(form, cfg.Entitlement1, cfg.Year1, cfg.Days1)
	t2 := e.target(form, cfg.Entitlement2, cfg.Year2, cfg.Days2)
	ev.Targets = []TargetBalance{t1, t2}
	ev.Valid = !t1.ExceedsBalance && !t2.ExceedsBalance
}

func (e *Engine) target(form *RequestForm, entitlementID string, year int, requested decimal.Decimal) TargetBalance {
	remaining := e.RemainingBalance(form.UserID, entitlementID, year, form.TripID)
	return TargetBalance{
		EntitlementID:     entitlementID,
		Year:              year,
		Requested:         requested,
		Remaining:         remaining,
		RemainingDays:     remaining.Days,
		Unlimited:         remaining.Unlimited,
		ExceedsBalance:    !remaining.Covers(requested),
		ExpiringCarryOver: e.HasExpiringCarryOver(form.UserID, entitlementID, year, form.Start),
	}
}

// =============================================================================
// OUTPUT - Finalized trip fields from a form state
// =============================================================================

// Allocations materializes the deduction list the trip should persist.
// Single-category requests return nil: the trip keeps its entitlementId
// and allocations stays empty (allocations take precedence when present).
func (form *RequestForm) Allocations() []Allocation {
	switch {
	case form.CrossYearMode && form.CrossYear != nil:
		y1, y2 := form.CrossYear.Year1, form.CrossYear.Year2
		return []Allocation{
			{EntitlementID: form.CrossYear.Entitlement1, Days: form.CrossYear.Days1, TargetYear: &y1},
			{EntitlementID: form.CrossYear.Entitlement2, Days: form.CrossYear.Days2, TargetYear: &y2},
		}
	case form.UseMultiCategory:
		out := make([]Allocation, 0, len(form.Splits))
		for _, entry := range form.Splits {
			out = append(out, Allocation{EntitlementID: entry.EntitlementID, Days: entry.Days})
		}
		return out
	default:
		return nil
	}
}

// ApplyTo writes the edit session's outcome onto a trip record: the
// allocation list, the single-category entitlement, and the exception
// dates. This is the engine's only output toward the persistence layer.
func (form *RequestForm) ApplyTo(t *Trip) {
	t.StartDate = form.Start
	t.EndDate = form.End
	t.DurationMode = form.Mode
	t.StartPortion = form.StartPortion
	t.EndPortion = form.EndPortion
	t.EntitlementID = form.EntitlementID
	t.Allocations = form.Allocations()
	t.ExcludedDates = NewDateSet(form.Excluded...).Dates()
}
