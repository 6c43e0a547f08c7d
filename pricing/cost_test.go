package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stay-engine/generic"
	"github.com/warp/stay-engine/pricing"
)

func TestBreakdown_Discounts(t *testing.T) {
	tests := []struct {
		name     string
		policy   pricing.DiscountPolicy
		discount string
		net      string
		clamped  bool
	}{
		{"none", pricing.NoDiscount(), "0", "100", false},
		{"percentage", pricing.PercentageDiscount(dec("0.25")), "25", "75", false},
		{"threshold on points", pricing.ThresholdDiscount(dec("0.5"), dec("400"), pricing.BasisPoints), "10", "90", false},
		{"threshold on cost", pricing.ThresholdDiscount(dec("0.5"), dec("80"), pricing.BasisCost), "10", "90", false},
		{"below threshold", pricing.ThresholdDiscount(dec("0.5"), dec("600"), pricing.BasisPoints), "0", "100", false},
		{"over 100 percent clamps", pricing.PercentageDiscount(dec("1.5")), "100", "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ownerConfig()
			cfg.Discount = tt.policy

			// 500 points at $0.20
			cb := pricing.Breakdown(generic.Points(dec("500")), cfg)

			assertDecimal(t, "100", cb.GrossCost.Value)
			assertDecimal(t, tt.discount, cb.DiscountApplied.Value)
			assertDecimal(t, tt.net, cb.NetCost.Value)
			assert.Equal(t, tt.clamped, cb.Clamped)
			assert.False(t, cb.NetCost.IsNegative())
		})
	}
}

func TestBreakdown_RenterMode(t *testing.T) {
	cfg := pricing.Configuration{
		Mode:         pricing.ModeRenter,
		RatePerPoint: dec("0.20"),
		RenterRate:   dec("0.50"),
		Discount:     pricing.TierPolicy("Executive"),
	}

	cb := pricing.Breakdown(generic.Points(dec("500")), cfg)

	assertDecimal(t, "0.5", cb.RatePerPoint)
	assertDecimal(t, "250", cb.GrossCost.Value)
	assertDecimal(t, "62.5", cb.DiscountApplied.Value)
	require.NotNil(t, cb.Renter)
	assert.True(t, cb.Renter.RentalCost.Equal(cb.NetCost))
	assertDecimal(t, "187.5", cb.Renter.RentalCost.Value)
	assert.Nil(t, cb.Owner)
}

func TestBreakdown_OwnerLineItems(t *testing.T) {
	// GIVEN $18 per point, 5% cost of capital, 10% depreciation
	cfg := ownerConfig()
	cfg.Owner = pricing.OwnerRates{
		MaintenanceRate:     dec("0.55"),
		PointValue:          dec("18"),
		CapitalRate:         dec("0.05"),
		DepreciationRate:    dec("0.1"),
		IncludeMaintenance:  true,
		IncludeCapital:      true,
		IncludeDepreciation: true,
	}

	// WHEN pricing 100 points
	cb := pricing.Breakdown(generic.Points(dec("100")), cfg)

	// THEN line items are reported alongside the net cost
	require.NotNil(t, cb.Owner)
	assertDecimal(t, "55", cb.Owner.Maintenance.Value)
	assertDecimal(t, "90", cb.Owner.CapitalCost.Value)
	assertDecimal(t, "180", cb.Owner.Depreciation.Value)
	assertDecimal(t, "325", cb.Owner.CarryingCost.Value)
	assertDecimal(t, "20", cb.NetCost.Value)

	cfg.Owner.IncludeCapital = false
	cfg.Owner.IncludeDepreciation = false
	cb = pricing.Breakdown(generic.Points(dec("100")), cfg)
	assertDecimal(t, "55", cb.Owner.CarryingCost.Value)
	assertDecimal(t, "180", cb.Owner.Depreciation.Value)
}

func TestTierPolicy(t *testing.T) {
	assert.Equal(t, pricing.DiscountNone, pricing.TierPolicy("No Discount").Kind)
	assert.Equal(t, pricing.DiscountNone, pricing.TierPolicy("").Kind)

	exec := pricing.TierPolicy("Executive (25%)")
	assert.Equal(t, pricing.DiscountPercentage, exec.Kind)
	assertDecimal(t, "0.25", exec.Percent)

	assertDecimal(t, "0.3", pricing.TierPolicy("Presidential / Chairman").Percent)
	assertDecimal(t, "0.3", pricing.TierPolicy("Chairman").Percent)
}

func TestConfiguration_Validate(t *testing.T) {
	assert.NoError(t, ownerConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*pricing.Configuration)
	}{
		{"unknown mode", func(c *pricing.Configuration) { c.Mode = "guest" }},
		{"negative rate", func(c *pricing.Configuration) { c.RatePerPoint = dec("-0.1") }},
		{"negative maintenance", func(c *pricing.Configuration) { c.Owner.MaintenanceRate = dec("-1") }},
		{"unknown policy", func(c *pricing.Configuration) { c.Discount.Kind = "coupon" }},
		{"threshold without basis", func(c *pricing.Configuration) {
			c.Discount = pricing.ThresholdDiscount(dec("0.1"), dec("10"), "")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ownerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, generic.ErrInvalidConfiguration)
			assert.True(t, generic.IsClientError(err))
		})
	}
}
