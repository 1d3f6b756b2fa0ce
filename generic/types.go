/*
Package generic provides the calendar and quantity primitives shared by the
leave engine.

PURPOSE:
  Leave requests are measured in weekdays, and half-day requests cost half a
  day. This package holds the small value types every other package agrees on
  so that day counting and balance arithmetic happen in exactly one way.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of days (e.g., 3 days, 0.5 days, -1.5 days)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so 0.5-day steps never drift
  2. No rounding: A balance of 1.5 stays 1.5 through every sum
  3. Negative is legal: Over-allocated balances are reported as they are

USAGE:
  cost := generic.NewAmount(0.5, generic.UnitDays).Mul(decimal.NewFromInt(2))
  remaining := allowance.Sub(cost)

SEE ALSO:
  - time.go: TimePoint and weekday enumeration
  - period.go: Inclusive date spans and overlap
  - errors.go: Shared error sentinels
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity of days
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays Unit = "days"
)

// HalfDay is the multiplier applied to half-day leave.
var HalfDay = decimal.NewFromFloat(0.5)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func Days(value decimal.Decimal) Amount {
	return Amount{Value: value, Unit: UnitDays}
}

func ZeroDays() Amount {
	return Amount{Value: decimal.Zero, Unit: UnitDays}
}

// ParseAmount reads a decimal string as stored in the database. Blank input is zero.
func ParseAmount(s string, unit Unit) (Amount, error) {
	if s == "" {
		return Amount{Value: decimal.Zero, Unit: unit}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d, Unit: unit}, nil
}

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }

func (a Amount) GreaterThan(b Amount) bool        { return a.Value.GreaterThan(b.Value) }
func (a Amount) Equal(b Amount) bool              { return a.Value.Equal(b.Value) }
func (a Amount) IsNegative() bool                 { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                     { return a.Value.IsZero() }
func (a Amount) Float64() float64                 { f, _ := a.Value.Float64(); return f }
func (a Amount) String() string                   { return a.Value.String() + " " + string(a.Unit) }
