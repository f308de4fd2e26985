/*
resolver.go - Entitlement Resolver

PURPOSE:
  Computes a user's total allowance for an entitlement in a given year:
  the base grant (policy accrual, lieu balance, or unlimited) plus
  recursive carry-over from the previous year's policies.

BASE ALLOWANCE:
  - the no-impact marker resolves to unlimited immediately
  - the lieu category draws on the user's banked lieu balance, plus one
    day per weekend holiday in the year under the "lieu" weekend rule
  - otherwise the (entitlement, year) policy decides: unlimited, accrual
    amount, or - with no active policy - the entitlement type's own
    unlimited flag, else zero

CARRY-OVER:
  When the current year's policy enables carry-over, every previous-year
  policy with carry-over enabled is examined. A source contributes when
  its effective target (its own entitlement unless an explicit target is
  set) equals the current entitlement. Each contribution is the source's
  remaining balance last year, capped at the source's maxDays.

  Carry-over recurses into the previous year's own allowance, so chains
  accumulate across years. Depth is capped at 5: a cyclic target
  configuration silently truncates to zero instead of looping. Whether a
  cycle should instead be rejected upstream is a policy decision; see
  DESIGN.md.
*/
package leave

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// maxCarryOverDepth bounds recursive carry-over resolution. Beyond it the
// branch yields zero, which terminates any cyclic policy chain.
const maxCarryOverDepth = 5

// TotalAllowance resolves the user's full allowance for entitlement/year.
func (e *Engine) TotalAllowance(userID, entitlementID string, year int) Allowance {
	return e.totalAllowance(userID, entitlementID, year, 0)
}

func (e *Engine) totalAllowance(userID, entitlementID string, year, depth int) Allowance {
	if depth > maxCarryOverDepth {
		return Limited(decimal.Zero)
	}
	if entitlementID == EntitlementNoImpact {
		return Unlimited()
	}

	user := e.Data.UserByID(userID)
	if user == nil {
		return Limited(decimal.Zero)
	}

	base, unlimited := e.baseAllowance(user, entitlementID, year)
	if unlimited {
		// Carry-over cannot add to unlimited; skip the recursion entirely.
		return Unlimited()
	}

	return Limited(base.Add(e.carryOverInto(user, entitlementID, year, depth)))
}

// baseAllowance resolves the grant before carry-over.
func (e *Engine) baseAllowance(user *User, entitlementID string, year int) (decimal.Decimal, bool) {
	if e.isLieu(entitlementID) {
		base := user.LieuBalance
		if user.HolidayWeekendRule == WeekendRuleLieu {
			earned := decimal.NewFromInt(int64(e.WeekendHolidayCount(user, year)))
			base = base.Add(earned)
		}
		return base, false
	}

	policy := user.PolicyFor(entitlementID, year)
	switch {
	case policy != nil && policy.IsActive && policy.IsUnlimited:
		return decimal.Zero, true
	case policy != nil && policy.IsActive:
		return policy.Accrual.Amount, false
	}

	// No active policy: fall back to the entitlement type itself.
	if ent := e.Data.EntitlementByID(entitlementID); ent != nil && ent.IsUnlimited {
		return decimal.Zero, true
	}
	return decimal.Zero, false
}

// carryOverInto sums carry-over from all previous-year source policies that
// target the current entitlement.
func (e *Engine) carryOverInto(user *User, entitlementID string, year, depth int) decimal.Decimal {
	current := user.PolicyFor(entitlementID, year)
	if current == nil || !current.CarryOver.Enabled {
		return decimal.Zero
	}

	carried := decimal.Zero
	for i := range user.Policies {
		source := &user.Policies[i]
		if source.Year != year-1 || !source.CarryOver.Enabled {
			continue
		}
		if source.EffectiveCarryOverTarget() != entitlementID {
			continue
		}

		maxDays := source.CarryOver.MaxDays
		sourceTotal := e.totalAllowance(user.ID, source.EntitlementID, year-1, depth+1)
		if sourceTotal.Unlimited {
			// An unlimited source always has the cap's worth left over.
			carried = carried.Add(maxDays)
			continue
		}

		used := e.UsedDays(user.ID, source.EntitlementID, year-1, "")
		remaining := sourceTotal.Days.Sub(used)
		if remaining.GreaterThan(maxDays) {
			remaining = maxDays
		}
		if remaining.IsPositive() {
			carried = carried.Add(remaining)
		}
	}
	return carried
}

// EffectiveCarryOverTarget is where this policy's carry-over lands: the
// explicit target, defaulting to the policy's own entitlement.
func (p Policy) EffectiveCarryOverTarget() string {
	if p.CarryOver.TargetEntitlementID != "" {
		return p.CarryOver.TargetEntitlementID
	}
	return p.EntitlementID
}

// =============================================================================
// CARRY-OVER EXPIRY - Suggestion signal, not a hard constraint
// =============================================================================

// CarryOverExpiryDate computes when this policy's carried-over days expire
// in the target year. Returns false when no expiry is configured or the
// configuration is unparseable.
func (p Policy) CarryOverExpiryDate(targetYear int) (Date, bool) {
	switch p.CarryOver.ExpiryType {
	case ExpiryFixedDate:
		// ExpiryValue is a month-day, e.g. "03-31".
		d, ok := ParseDate(strconv.Itoa(targetYear) + "-" + p.CarryOver.ExpiryValue)
		return d, ok
	case ExpiryMonths:
		months, err := strconv.Atoi(p.CarryOver.ExpiryValue)
		if err != nil || months <= 0 {
			return Date{}, false
		}
		return NewDate(targetYear, 1, 1).AddMonths(months), true
	default:
		return Date{}, false
	}
}

// HasExpiringCarryOver reports whether any carry-over landing in the given
// entitlement/year is still alive at the trip's start date, i.e. the start
// is on or before the computed expiry. The UI uses this to suggest burning
// expiring days first.
func (e *Engine) HasExpiringCarryOver(userID, entitlementID string, year int, tripStart Date) bool {
	user := e.Data.UserByID(userID)
	if user == nil || tripStart.IsZero() {
		return false
	}
	current := user.PolicyFor(entitlementID, year)
	if current == nil || !current.CarryOver.Enabled {
		return false
	}
	for i := range user.Policies {
		source := &user.Policies[i]
		if source.Year != year-1 || !source.CarryOver.Enabled {
			continue
		}
		if source.EffectiveCarryOverTarget() != entitlementID {
			continue
		}
		if expiry, ok := source.CarryOverExpiryDate(year); ok && tripStart.BeforeOrEqual(expiry) {
			return true
		}
	}
	return false
}
