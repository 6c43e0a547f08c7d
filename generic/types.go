/*
Package generic provides the domain-agnostic foundation of the stay engine.

PURPOSE:
  Calendar arithmetic and exact quantities shared by the calendar model,
  the pricing engine and the storage/API layers. Nothing in here knows
  about resorts, seasons or owners.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 120 points, $54.00)
  - Unit: points or US dollars

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Day granularity: TimePoint is a calendar day, never a timestamp
  3. Immutability: every operation returns a new value

USAGE:
  pts := generic.Points(decimal.NewFromInt(120))
  cost := generic.Dollars(pts.Value.Mul(rate))

SEE ALSO:
  - time.go: TimePoint and weekday helpers
  - period.go: Closed day ranges
  - errors.go: Error taxonomy for the whole engine
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitPoints Unit = "points"
	UnitUSD    Unit = "usd"
)

func Points(v decimal.Decimal) Amount  { return Amount{Value: v, Unit: UnitPoints} }
func Dollars(v decimal.Decimal) Amount { return Amount{Value: v, Unit: UnitUSD} }

// MustParseDecimal is decimal.RequireFromString for values this module wrote.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (a Amount) Zero() Amount        { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) IsNegative() bool    { return a.Value.IsNegative() }
func (a Amount) IsZero() bool        { return a.Value.IsZero() }

// Equal compares value and unit.
func (a Amount) Equal(b Amount) bool { return a.Unit == b.Unit && a.Value.Equal(b.Value) }

// String formats points without decimals when whole, dollars with cents.
func (a Amount) String() string {
	switch a.Unit {
	case UnitUSD:
		return "$" + a.Value.StringFixed(2)
	default:
		return a.Value.String() + " " + string(a.Unit)
	}
}
