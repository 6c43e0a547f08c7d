package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/generic"
)

// =============================================================================
// MODE
// =============================================================================

// Mode selects the cost model of a quote.
type Mode string

const (
	// ModeOwner reports carrying costs (maintenance, capital, depreciation).
	ModeOwner Mode = "owner"

	// ModeRenter reports the cash price a non-owner pays.
	ModeRenter Mode = "renter"
)

func (m Mode) Valid() bool { return m == ModeOwner || m == ModeRenter }

// =============================================================================
// DISCOUNT POLICY - Closed set of variants
// =============================================================================

type DiscountKind string

const (
	DiscountNone       DiscountKind = "none"
	DiscountPercentage DiscountKind = "percentage"
	DiscountThreshold  DiscountKind = "threshold"
)

// ThresholdBasis says what a threshold discount's threshold is measured in.
type ThresholdBasis string

const (
	BasisPoints ThresholdBasis = "points"
	BasisCost   ThresholdBasis = "cost"
)

// DiscountPolicy is exactly one of none, percentage or threshold.
//
//	none:       no change
//	percentage: Percent of the gross cost
//	threshold:  Percent of the part above Threshold (points or dollars per Basis)
//
// Percent is a fraction: 0.25 means 25%.
type DiscountPolicy struct {
	Kind      DiscountKind
	Percent   decimal.Decimal
	Threshold decimal.Decimal
	Basis     ThresholdBasis
}

func NoDiscount() DiscountPolicy { return DiscountPolicy{Kind: DiscountNone} }

func PercentageDiscount(pct decimal.Decimal) DiscountPolicy {
	return DiscountPolicy{Kind: DiscountPercentage, Percent: pct}
}

func ThresholdDiscount(pct, threshold decimal.Decimal, basis ThresholdBasis) DiscountPolicy {
	return DiscountPolicy{Kind: DiscountThreshold, Percent: pct, Threshold: threshold, Basis: basis}
}

// Membership tier names offered by the ownership program.
const (
	TierNone         = "No Discount"
	TierExecutive    = "Executive"
	TierPresidential = "Presidential"
	TierChairman     = "Chairman"
)

var (
	executivePercent    = decimal.RequireFromString("0.25")
	presidentialPercent = decimal.RequireFromString("0.30")
)

// TierPolicy maps a membership tier label to its discount. Labels are matched
// by keyword so "Presidential / Chairman (30%)" works as well as "Chairman".
func TierPolicy(tier string) DiscountPolicy {
	switch {
	case strings.Contains(tier, TierPresidential), strings.Contains(tier, TierChairman):
		return PercentageDiscount(presidentialPercent)
	case strings.Contains(tier, TierExecutive):
		return PercentageDiscount(executivePercent)
	default:
		return NoDiscount()
	}
}

// =============================================================================
// OWNER RATES
// =============================================================================

// OwnerRates are the inputs of the owner line items:
//
//	maintenance  = points * MaintenanceRate
//	capital      = points * PointValue * CapitalRate
//	depreciation = points * PointValue * DepreciationRate
//
// The Include flags select which items count towards the carrying cost.
type OwnerRates struct {
	MaintenanceRate  decimal.Decimal
	PointValue       decimal.Decimal
	CapitalRate      decimal.Decimal
	DepreciationRate decimal.Decimal

	IncludeMaintenance  bool
	IncludeCapital      bool
	IncludeDepreciation bool
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Configuration is supplied by the caller and only read by the engine.
type Configuration struct {
	Mode Mode

	// RatePerPoint prices points in owner mode.
	RatePerPoint decimal.Decimal

	// RenterRate replaces RatePerPoint in renter mode.
	RenterRate decimal.Decimal

	Discount DiscountPolicy
	Owner    OwnerRates
}

// EffectiveRate is the dollar value of one point under the configured mode.
func (c Configuration) EffectiveRate() decimal.Decimal {
	if c.Mode == ModeRenter {
		return c.RenterRate
	}
	return c.RatePerPoint
}

// Validate checks the configuration can be used for a quote.
func (c Configuration) Validate() error {
	if !c.Mode.Valid() {
		return invalidConfig("unknown mode %q", c.Mode)
	}

	rates := []struct {
		name  string
		value decimal.Decimal
	}{
		{"rate_per_point", c.RatePerPoint},
		{"renter_rate", c.RenterRate},
		{"maintenance_rate", c.Owner.MaintenanceRate},
		{"point_value", c.Owner.PointValue},
		{"capital_rate", c.Owner.CapitalRate},
		{"depreciation_rate", c.Owner.DepreciationRate},
		{"discount.percent", c.Discount.Percent},
		{"discount.threshold", c.Discount.Threshold},
	}
	for _, r := range rates {
		if r.value.IsNegative() {
			return invalidConfig("%s must not be negative", r.name)
		}
	}

	switch c.Discount.Kind {
	case "", DiscountNone, DiscountPercentage:
	case DiscountThreshold:
		if c.Discount.Basis != BasisPoints && c.Discount.Basis != BasisCost {
			return invalidConfig("unknown threshold basis %q", c.Discount.Basis)
		}
	default:
		return invalidConfig("unknown discount policy %q", c.Discount.Kind)
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", generic.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
