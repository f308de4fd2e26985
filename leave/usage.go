/*
usage.go - Usage Accumulator

PURPOSE:
  Sums the days a user has already consumed against an entitlement in a
  given year, across every stored trip. The trip currently being edited is
  excluded by id so that live validation never double-counts it.

ACCUMULATION RULES (per trip, per matching allocation):
  1. Explicit allocations with a targetYear equal to the query year add
     their day count directly - cross-year splits are exact, no proration.
  2. Allocations without a targetYear (same-year splits) are prorated by
     the ratio of the trip's in-year weight to its total weight. A trip
     with zero total weight contributes zero.
  3. Trips without allocations fall back to their single entitlementId and
     contribute their in-year weight directly.

  Only Upcoming and Past trips count; Planning trips are drafts.
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// UsedDays returns the total days consumed against entitlement/year by the
// user's existing trips, excluding the trip identified by excludeTripID.
func (e *Engine) UsedDays(userID, entitlementID string, year int, excludeTripID string) decimal.Decimal {
	user := e.Data.UserByID(userID)
	total := decimal.Zero
	if user == nil || entitlementID == "" {
		return total
	}

	for i := range e.Data.Trips {
		trip := &e.Data.Trips[i]
		if trip.ID == excludeTripID || !trip.Consumes() || !trip.Involves(userID) {
			continue
		}
		total = total.Add(e.tripUsage(trip, user, entitlementID, year))
	}
	return total
}

func (e *Engine) tripUsage(trip *Trip, user *User, entitlementID string, year int) decimal.Decimal {
	if len(trip.Allocations) > 0 {
		return e.allocationUsage(trip, user, entitlementID, year)
	}

	// Legacy single-entitlement trip: in-year weight counts directly.
	if trip.EntitlementID != entitlementID {
		return decimal.Zero
	}
	return e.TripScheduleFor(trip, user).TotalForYear(year)
}

func (e *Engine) allocationUsage(trip *Trip, user *User, entitlementID string, year int) decimal.Decimal {
	total := decimal.Zero
	var sched *Schedule // lazily expanded, only when proration is needed

	for _, alloc := range trip.Allocations {
		if alloc.EntitlementID != entitlementID {
			continue
		}
		if alloc.TargetYear != nil {
			if *alloc.TargetYear == year {
				total = total.Add(alloc.Days)
			}
			continue
		}

		// Same-year split: prorate by the in-year share of the trip's weight.
		if sched == nil {
			s := e.TripScheduleFor(trip, user)
			sched = &s
		}
		tripTotal := sched.Total()
		if tripTotal.IsZero() {
			continue
		}
		ratio := sched.TotalForYear(year).Div(tripTotal)
		total = total.Add(alloc.Days.Mul(ratio))
	}
	return total
}

// RemainingBalance is the resolved allowance minus consumed days.
// Unlimited allowances stay unlimited.
func (e *Engine) RemainingBalance(userID, entitlementID string, year int, excludeTripID string) Allowance {
	allowance := e.TotalAllowance(userID, entitlementID, year)
	if allowance.Unlimited {
		return allowance
	}
	return allowance.Sub(e.UsedDays(userID, entitlementID, year, excludeTripID))
}
