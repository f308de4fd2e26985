/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the engine's
  internal types. Balances and evaluations cross the wire as plain
  numbers; the unlimited sentinel becomes an explicit flag.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - leave/validator.go: Evaluation source
*/
package api

import (
	"github.com/SamerBerjawi/wandergrid/leave"
)

// BalanceDTO answers "how much does this user have left?" for one
// entitlement/year.
type BalanceDTO struct {
	UserID        string  `json:"userId"`
	EntitlementID string  `json:"entitlementId"`
	Year          int     `json:"year"`
	Allowance     float64 `json:"allowance"`
	Used          float64 `json:"used"`
	Remaining     float64 `json:"remaining"`
	Unlimited     bool    `json:"unlimited"`
}

// EvaluationDTO is the validator's verdict on a request form, plus the
// form itself: Sync rewrites derived state (cross-year mode, day counts),
// so the caller gets the updated form back.
type EvaluationDTO struct {
	Form          leave.RequestForm `json:"form"`
	TotalDays     float64           `json:"totalDays"`
	CrossYearMode bool              `json:"crossYearMode"`
	SplitMismatch bool              `json:"splitMismatch"`
	Valid         bool              `json:"valid"`
	Days          []DayEntryDTO     `json:"days"`
	Targets       []TargetDTO       `json:"targets"`
}

// DayEntryDTO is one expanded day of the requested range.
type DayEntryDTO struct {
	Date        string  `json:"date"`
	Year        int     `json:"year"`
	Weight      float64 `json:"weight"`
	IsWeekend   bool    `json:"isWeekend"`
	IsHoliday   bool    `json:"isHoliday"`
	HolidayName string  `json:"holidayName,omitempty"`
}

// TargetDTO is the balance check for one allocation target.
type TargetDTO struct {
	EntitlementID     string  `json:"entitlementId"`
	Year              int     `json:"year"`
	Requested         float64 `json:"requested"`
	Remaining         float64 `json:"remaining"`
	Unlimited         bool    `json:"unlimited"`
	ExceedsBalance    bool    `json:"exceedsBalance"`
	ExpiringCarryOver bool    `json:"expiringCarryOver,omitempty"`
}

// ErrorDTO is the JSON error payload.
type ErrorDTO struct {
	Error string `json:"error"`
}

func newEvaluationDTO(form *leave.RequestForm, ev leave.Evaluation) EvaluationDTO {
	dto := EvaluationDTO{
		Form:          *form,
		TotalDays:     ev.TotalDays.InexactFloat64(),
		CrossYearMode: ev.CrossYearMode,
		SplitMismatch: ev.SplitMismatch,
		Valid:         ev.Valid,
	}
	for _, d := range ev.Schedule.Days {
		dto.Days = append(dto.Days, DayEntryDTO{
			Date:        d.Date.String(),
			Year:        d.Year,
			Weight:      d.Weight.InexactFloat64(),
			IsWeekend:   d.IsWeekend,
			IsHoliday:   d.IsHoliday,
			HolidayName: d.HolidayName,
		})
	}
	for _, t := range ev.Targets {
		dto.Targets = append(dto.Targets, TargetDTO{
			EntitlementID:     t.EntitlementID,
			Year:              t.Year,
			Requested:         t.Requested.InexactFloat64(),
			Remaining:         t.RemainingDays.InexactFloat64(),
			Unlimited:         t.Unlimited,
			ExceedsBalance:    t.ExceedsBalance,
			ExpiringCarryOver: t.ExpiringCarryOver,
		})
	}
	return dto
}
