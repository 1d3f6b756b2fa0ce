package timeoff

import (
	"github.com/shopspring/decimal"
	"github.com/warp/pto-tracker/generic"
)

// =============================================================================
// BALANCE ACCOUNTANT
// =============================================================================
//
// Work-remote consumption is never stored. It is recomputed from the user's
// non-rejected work-remote requests every time it is needed.

// BalanceSummary is a point-in-time view of a user's work-remote allowance.
type BalanceSummary struct {
	Allowance generic.Amount
	Consumed  generic.Amount
	Remaining generic.Amount
}

// RequestCost is weekdays in [start, end] times 0.5 for half days, else 1.
func RequestCost(reason Reason, start, end generic.TimePoint) (generic.Amount, error) {
	info, err := LookupReason(reason)
	if err != nil {
		return generic.Amount{}, err
	}
	return costOf(info, start, end), nil
}

func costOf(info ReasonInfo, start, end generic.TimePoint) generic.Amount {
	days := generic.NewAmountFromInt(len(generic.WeekdaysInRange(start, end)), generic.UnitDays)
	if info.IsHalfDay() {
		return days.Mul(generic.HalfDay)
	}
	return days
}

// ConsumedWorkRemoteDays sums the cost of non-rejected work-remote requests.
func ConsumedWorkRemoteDays(requests []Request) (generic.Amount, error) {
	total := generic.ZeroDays()
	for _, r := range requests {
		if r.Status == StatusRejected {
			continue
		}
		info, err := LookupReason(r.Reason)
		if err != nil {
			return generic.Amount{}, err
		}
		if !info.WorkRemote {
			continue
		}
		total = total.Add(costOf(info, r.Start, r.End))
	}
	return total, nil
}

// Remaining is allowance minus consumption. It may be negative.
func Remaining(allowance generic.Amount, requests []Request) (generic.Amount, error) {
	s, err := Summarize(allowance, requests)
	if err != nil {
		return generic.Amount{}, err
	}
	return s.Remaining, nil
}

func Summarize(allowance generic.Amount, requests []Request) (BalanceSummary, error) {
	consumed, err := ConsumedWorkRemoteDays(requests)
	if err != nil {
		return BalanceSummary{}, err
	}
	allowance = generic.Days(allowance.Value)
	return BalanceSummary{
		Allowance: allowance,
		Consumed:  consumed,
		Remaining: allowance.Sub(consumed),
	}, nil
}

// ValidAllowance accepts non-negative whole days.
func ValidAllowance(d decimal.Decimal) bool {
	return !d.IsNegative() && d.IsInteger()
}
