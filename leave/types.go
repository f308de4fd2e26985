/*
Package leave implements the WanderGrid leave balance and allocation engine.

PURPOSE:
  Computes, per user/entitlement/year, how many leave days are available
  after accrual, carry-over (with expiry), cross-year splitting and partial
  AM/PM day weighting, reconciled against every other trip consuming the
  same entitlement.

KEY CONCEPTS IN THIS FILE (types.go):
  - User / Policy / EntitlementType: who is entitled to what, per year
  - PublicHoliday: shared holiday calendars users subscribe to
  - Trip: the unit of consumption (date range, duration mode, allocations)
  - Allowance: a day count that may carry the "unlimited" sentinel
  - Dataset / Engine: caller-owned collections the pure computation runs over

DESIGN PRINCIPLES:
  1. Purity: the engine is read-only over its inputs; re-running with the
     same inputs yields identical output (live recalculation on every edit)
  2. Precision: decimal.Decimal for day weights (1, 0.5, or 0 - never
     floating point drift)
  3. Defensiveness: missing records, bad dates and zero-weight divisions
     degrade to zero, never to an error or panic

SEE ALSO:
  - schedule.go:  per-day weight expansion (Day-Weight Calculator)
  - usage.go:     consumed days per entitlement/year (Usage Accumulator)
  - resolver.go:  total allowance with carry-over (Entitlement Resolver)
  - validator.go: request form state machine (Allocation Validator)
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMS - Duration modes, portions, statuses, rules
// =============================================================================

// DurationMode controls how days in a trip's range are weighted.
type DurationMode string

const (
	ModeAllFull  DurationMode = "all_full"  // every day counts 1.0
	ModeAllAM    DurationMode = "all_am"    // every day counts 0.5 (mornings)
	ModeAllPM    DurationMode = "all_pm"    // every day counts 0.5 (afternoons)
	ModeSingleAM DurationMode = "single_am" // single-day morning, 0.5
	ModeSinglePM DurationMode = "single_pm" // single-day afternoon, 0.5
	ModeCustom   DurationMode = "custom"    // start/end portions decide
)

// DayPortion qualifies the first/last day of a custom-mode trip.
type DayPortion string

const (
	PortionFull DayPortion = "full"
	PortionAM   DayPortion = "am" // end day leaves at noon
	PortionPM   DayPortion = "pm" // start day begins at noon
)

// TripStatus drives whether a trip counts toward consumed balance.
// Planning trips never consume.
type TripStatus string

const (
	StatusPlanning TripStatus = "Planning"
	StatusUpcoming TripStatus = "Upcoming"
	StatusPast     TripStatus = "Past"
)

// HolidayWeekendRule says what happens when a subscribed holiday lands on a
// Saturday or Sunday.
type HolidayWeekendRule string

const (
	WeekendRuleNone   HolidayWeekendRule = ""       // nothing, the day is lost
	WeekendRuleMonday HolidayWeekendRule = "monday" // observed the following Monday
	WeekendRuleLieu   HolidayWeekendRule = "lieu"   // banked as a lieu day
)

// CarryOverExpiryType selects how a carry-over expiry date is derived.
type CarryOverExpiryType string

const (
	ExpiryFixedDate CarryOverExpiryType = "fixed_date" // month-day in the target year
	ExpiryMonths    CarryOverExpiryType = "months"     // N months after Jan 1 of the target year
)

// Well-known entitlement markers.
const (
	// EntitlementNoImpact marks requests that deduct from nothing
	// (e.g. business travel). Always resolves to an unlimited allowance.
	EntitlementNoImpact = "no-impact"

	// CategoryLieu tags the lieu-day entitlement: its base allowance comes
	// from the user's banked lieu balance, not from a yearly accrual.
	CategoryLieu = "lieu"
)

// =============================================================================
// ALLOWANCE - A day count or the unlimited sentinel
// =============================================================================

// Allowance is a resolved entitlement total. Unlimited allowances carry no
// meaningful day count.
type Allowance struct {
	Days      decimal.Decimal
	Unlimited bool
}

func Limited(days decimal.Decimal) Allowance { return Allowance{Days: days} }
func LimitedFloat(days float64) Allowance    { return Allowance{Days: decimal.NewFromFloat(days)} }
func Unlimited() Allowance                   { return Allowance{Unlimited: true} }

// Sub subtracts used days. Subtracting from unlimited stays unlimited.
func (a Allowance) Sub(days decimal.Decimal) Allowance {
	if a.Unlimited {
		return a
	}
	return Limited(a.Days.Sub(days))
}

// Covers reports whether the allowance can absorb the requested days.
func (a Allowance) Covers(days decimal.Decimal) bool {
	return a.Unlimited || !a.Days.Sub(days).IsNegative()
}

func (a Allowance) String() string {
	if a.Unlimited {
		return "unlimited"
	}
	return a.Days.String()
}

// =============================================================================
// USER / POLICY / ENTITLEMENT
// =============================================================================

// Accrual is the base grant of a yearly policy.
type Accrual struct {
	Amount decimal.Decimal `json:"amount"`
}

// CarryOver configures how a policy's unused balance rolls into the next year.
type CarryOver struct {
	Enabled bool            `json:"enabled"`
	MaxDays decimal.Decimal `json:"maxDays"`

	// TargetEntitlementID is where carried days land. Empty means the
	// policy's own entitlement.
	TargetEntitlementID string `json:"targetEntitlementId,omitempty"`

	ExpiryType  CarryOverExpiryType `json:"expiryType,omitempty"`
	ExpiryValue string              `json:"expiryValue,omitempty"` // "MM-DD" for fixed_date, month count for months
}

// Policy grants a user an entitlement for one calendar year.
type Policy struct {
	EntitlementID string    `json:"entitlementId"`
	Year          int       `json:"year"`
	Accrual       Accrual   `json:"accrual"`
	IsUnlimited   bool      `json:"isUnlimited,omitempty"`
	IsActive      bool      `json:"isActive"`
	CarryOver     CarryOver `json:"carryOver"`
}

// EntitlementType is a named leave category.
type EntitlementType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	IsUnlimited bool   `json:"isUnlimited,omitempty"`
}

// IsLieu reports whether this entitlement is the designated lieu category,
// matched by id or category tag.
func (e EntitlementType) IsLieu() bool {
	return e.Category == CategoryLieu || e.ID == CategoryLieu
}

// User identity plus everything that shapes their calendar and allowances.
type User struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Policies           []Policy           `json:"policies,omitempty"`
	LieuBalance        decimal.Decimal    `json:"lieuBalance"`
	HolidayConfigIDs   []string           `json:"holidayConfigIds,omitempty"`
	HolidayWeekendRule HolidayWeekendRule `json:"holidayWeekendRule,omitempty"`
}

// PolicyFor returns the user's policy for an entitlement/year, or nil.
func (u *User) PolicyFor(entitlementID string, year int) *Policy {
	for i := range u.Policies {
		p := &u.Policies[i]
		if p.EntitlementID == entitlementID && p.Year == year {
			return p
		}
	}
	return nil
}

// SubscribesTo reports whether the user follows a holiday config.
func (u *User) SubscribesTo(configID string) bool {
	for _, id := range u.HolidayConfigIDs {
		if id == configID {
			return true
		}
	}
	return false
}

// =============================================================================
// PUBLIC HOLIDAY
// =============================================================================

// PublicHoliday is one entry of a shared holiday calendar.
type PublicHoliday struct {
	ID         string `json:"id"`
	Date       Date   `json:"date"`
	Name       string `json:"name"`
	ConfigID   string `json:"configId"`
	IsIncluded bool   `json:"isIncluded"`

	// IsWeekend overrides the computed weekday when present (imported
	// calendars sometimes carry it precomputed).
	IsWeekend *bool `json:"isWeekend,omitempty"`
}

// FallsOnWeekend prefers the explicit flag, else computes from the date.
func (h PublicHoliday) FallsOnWeekend() bool {
	if h.IsWeekend != nil {
		return *h.IsWeekend
	}
	return h.Date.IsSaturdayOrSunday()
}

// HolidayConfig is a named holiday calendar users subscribe to.
type HolidayConfig struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// =============================================================================
// TRIP
// =============================================================================

// Allocation deducts days from one entitlement. TargetYear pins the
// deduction to a specific year (cross-year splits); nil means the trip's
// own span, prorated when it crosses a year boundary.
type Allocation struct {
	EntitlementID string          `json:"entitlementId"`
	Days          decimal.Decimal `json:"days"`
	TargetYear    *int            `json:"targetYear,omitempty"`
}

// Trip is the unit being requested or edited. Exactly one of EntitlementID
// and Allocations determines deduction; Allocations takes precedence.
type Trip struct {
	ID           string     `json:"id"`
	Name         string     `json:"name,omitempty"`
	StartDate    Date       `json:"startDate"`
	EndDate      Date       `json:"endDate"`
	Status       TripStatus `json:"status"`
	Participants []string   `json:"participants,omitempty"`

	DurationMode DurationMode `json:"durationMode,omitempty"`
	StartPortion DayPortion   `json:"startPortion,omitempty"`
	EndPortion   DayPortion   `json:"endPortion,omitempty"`

	EntitlementID string       `json:"entitlementId,omitempty"`
	Allocations   []Allocation `json:"allocations,omitempty"`

	// ExcludedDates flips the natural off/working classification for those
	// days, for this trip only.
	ExcludedDates []Date `json:"excludedDates,omitempty"`
}

// Involves reports whether the user participates in the trip.
func (t *Trip) Involves(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Consumes reports whether the trip counts toward used balance.
// Planning trips are drafts and never consume.
func (t *Trip) Consumes() bool {
	return t.Status == StatusUpcoming || t.Status == StatusPast
}

// ExcludedSet returns the exception dates as a set.
func (t *Trip) ExcludedSet() DateSet {
	return NewDateSet(t.ExcludedDates...)
}

// =============================================================================
// WORKSPACE SETTINGS
// =============================================================================

// WorkspaceSettings holds the shared workspace configuration.
type WorkspaceSettings struct {
	// WorkingDays lists the weekdays considered working days.
	// Empty means Monday through Friday.
	WorkingDays []time.Weekday `json:"workingDays,omitempty"`
	Currency    string         `json:"currency,omitempty"`
}

// IsWorkingDay reports whether a weekday is part of the working week.
func (s WorkspaceSettings) IsWorkingDay(wd time.Weekday) bool {
	if len(s.WorkingDays) == 0 {
		return wd != time.Saturday && wd != time.Sunday
	}
	for _, d := range s.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

// =============================================================================
// DATASET / ENGINE
// =============================================================================

// Dataset is the caller-owned workspace the engine computes over.
// The engine never mutates it.
type Dataset struct {
	Users        []User
	Entitlements []EntitlementType
	Trips        []Trip
	Holidays     []PublicHoliday
	Settings     WorkspaceSettings
}

func (d *Dataset) UserByID(id string) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

func (d *Dataset) EntitlementByID(id string) *EntitlementType {
	for i := range d.Entitlements {
		if d.Entitlements[i].ID == id {
			return &d.Entitlements[i]
		}
	}
	return nil
}

// Engine is the pure computation unit. It holds no state of its own beyond
// the dataset reference; every method is synchronous, idempotent and
// side-effect-free.
type Engine struct {
	Data *Dataset
}

func NewEngine(data *Dataset) *Engine {
	if data == nil {
		data = &Dataset{}
	}
	return &Engine{Data: data}
}

// isLieu resolves the lieu-category check, tolerating entitlements that do
// not exist in the dataset.
func (e *Engine) isLieu(entitlementID string) bool {
	if entitlementID == CategoryLieu {
		return true
	}
	if ent := e.Data.EntitlementByID(entitlementID); ent != nil {
		return ent.IsLieu()
	}
	return false
}
