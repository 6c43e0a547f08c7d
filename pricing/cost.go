package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/generic"
)

// =============================================================================
// COST BREAKDOWN
// =============================================================================

// CostBreakdown converts a stay's points into dollars.
// Exactly one of Owner and Renter is set, matching Mode.
type CostBreakdown struct {
	Mode         Mode
	TotalPoints  generic.Amount
	RatePerPoint decimal.Decimal

	GrossCost       generic.Amount
	DiscountApplied generic.Amount
	NetCost         generic.Amount

	// Clamped is set when the discount exceeded the gross cost and the
	// net cost was clamped to zero.
	Clamped bool

	Owner  *OwnerCosts
	Renter *RenterCosts
}

// OwnerCosts are reported alongside the net cost, never subtracted from it.
type OwnerCosts struct {
	Maintenance  generic.Amount
	CapitalCost  generic.Amount
	Depreciation generic.Amount

	// CarryingCost sums the line items the configuration includes.
	CarryingCost generic.Amount
}

type RenterCosts struct {
	RentalCost generic.Amount
}

// Breakdown prices a points total under the configuration.
func Breakdown(points generic.Amount, cfg Configuration) CostBreakdown {
	rate := cfg.EffectiveRate()
	gross := generic.Dollars(points.Value.Mul(rate))
	discount := discountFor(cfg.Discount, points.Value, rate, gross.Value)

	cb := CostBreakdown{
		Mode:            cfg.Mode,
		TotalPoints:     points,
		RatePerPoint:    rate,
		GrossCost:       gross,
		DiscountApplied: generic.Dollars(discount),
	}

	net := gross.Sub(cb.DiscountApplied)
	if net.IsNegative() {
		cb.Clamped = true
		cb.DiscountApplied = gross
		net = gross.Zero()
	}
	cb.NetCost = net

	switch cfg.Mode {
	case ModeRenter:
		cb.Renter = &RenterCosts{RentalCost: net}
	default:
		cb.Owner = ownerCosts(points.Value, cfg.Owner)
	}
	return cb
}

// discountFor returns the dollars subtracted by exactly one policy.
func discountFor(p DiscountPolicy, points, rate, gross decimal.Decimal) decimal.Decimal {
	switch p.Kind {
	case DiscountPercentage:
		return gross.Mul(p.Percent)
	case DiscountThreshold:
		var above decimal.Decimal
		if p.Basis == BasisPoints {
			above = points.Sub(p.Threshold).Mul(rate)
		} else {
			above = gross.Sub(p.Threshold)
		}
		if !above.IsPositive() {
			return decimal.Zero
		}
		return above.Mul(p.Percent)
	default:
		return decimal.Zero
	}
}

func ownerCosts(points decimal.Decimal, r OwnerRates) *OwnerCosts {
	basis := points.Mul(r.PointValue)
	oc := &OwnerCosts{
		Maintenance:  generic.Dollars(points.Mul(r.MaintenanceRate)),
		CapitalCost:  generic.Dollars(basis.Mul(r.CapitalRate)),
		Depreciation: generic.Dollars(basis.Mul(r.DepreciationRate)),
	}

	carrying := generic.Dollars(decimal.Zero)
	if r.IncludeMaintenance {
		carrying = carrying.Add(oc.Maintenance)
	}
	if r.IncludeCapital {
		carrying = carrying.Add(oc.CapitalCost)
	}
	if r.IncludeDepreciation {
		carrying = carrying.Add(oc.Depreciation)
	}
	oc.CarryingCost = carrying
	return oc
}
