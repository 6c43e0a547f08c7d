package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/generic"
	"github.com/warp/stay-engine/pricing"
)

// =============================================================================
// SETTINGS DOCUMENT
// =============================================================================

// SettingsDoc is a saved settings file. Absent fields take the defaults of
// DefaultSettings.
//
//	{
//	  "maintenance_rate": 0.55,
//	  "purchase_price": 18.0,
//	  "capital_cost_pct": 5.0,
//	  "salvage_value": 3.0,
//	  "useful_life": 10,
//	  "discount_tier": "Executive",
//	  "include_maintenance": true,
//	  "include_capital": true,
//	  "include_depreciation": true,
//	  "renter_rate": 0.50,
//	  "renter_discount_tier": "No Discount",
//	  "preferred_resort_id": "kauai-beach"
//	}
type SettingsDoc struct {
	MaintenanceRate     decimal.Decimal `json:"maintenance_rate"`
	PurchasePrice       decimal.Decimal `json:"purchase_price"`
	CapitalCostPct      decimal.Decimal `json:"capital_cost_pct"`
	SalvageValue        decimal.Decimal `json:"salvage_value"`
	UsefulLife          int             `json:"useful_life"`
	DiscountTier        string          `json:"discount_tier"`
	IncludeMaintenance  bool            `json:"include_maintenance"`
	IncludeCapital      bool            `json:"include_capital"`
	IncludeDepreciation bool            `json:"include_depreciation"`
	RenterRate          decimal.Decimal `json:"renter_rate"`
	RenterDiscountTier  string          `json:"renter_discount_tier"`
	PreferredResortID   string          `json:"preferred_resort_id,omitempty"`
}

// DefaultSettings are the values a new owner starts with.
func DefaultSettings() SettingsDoc {
	return SettingsDoc{
		MaintenanceRate:     decimal.RequireFromString("0.55"),
		PurchasePrice:       decimal.RequireFromString("18"),
		CapitalCostPct:      decimal.RequireFromString("5"),
		SalvageValue:        decimal.RequireFromString("3"),
		UsefulLife:          10,
		DiscountTier:        pricing.TierNone,
		IncludeMaintenance:  true,
		IncludeCapital:      true,
		IncludeDepreciation: true,
		RenterRate:          decimal.RequireFromString("0.50"),
		RenterDiscountTier:  pricing.TierNone,
	}
}

// ParseSettings decodes a settings document over DefaultSettings.
func ParseSettings(data []byte) (SettingsDoc, error) {
	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return SettingsDoc{}, &generic.DocumentError{Path: "settings", Message: fmt.Sprintf("failed to parse JSON: %v", err)}
	}
	if err := s.Validate(); err != nil {
		return SettingsDoc{}, err
	}
	return s, nil
}

// Validate rejects settings no configuration can be built from.
func (s SettingsDoc) Validate() error {
	if s.UsefulLife <= 0 {
		return &generic.DocumentError{Path: "settings.useful_life", Message: "must be positive"}
	}
	if s.SalvageValue.GreaterThan(s.PurchasePrice) {
		return &generic.DocumentError{Path: "settings.salvage_value", Message: "must not exceed purchase_price"}
	}
	for name, v := range map[string]decimal.Decimal{
		"maintenance_rate": s.MaintenanceRate,
		"purchase_price":   s.PurchasePrice,
		"capital_cost_pct": s.CapitalCostPct,
		"salvage_value":    s.SalvageValue,
		"renter_rate":      s.RenterRate,
	} {
		if v.IsNegative() {
			return &generic.DocumentError{Path: "settings." + name, Message: "must not be negative"}
		}
	}
	return nil
}

var hundred = decimal.NewFromInt(100)

// Configuration builds the engine configuration for a mode.
//
// Owners price points at the maintenance rate; capital cost is the purchase
// price times the cost of capital, and depreciation spreads the purchase
// price minus salvage over the useful life:
//
//	capital      = points * purchase_price * capital_cost_pct / 100
//	depreciation = points * (purchase_price - salvage_value) / useful_life
func (s SettingsDoc) Configuration(mode pricing.Mode) pricing.Configuration {
	if mode == pricing.ModeRenter {
		return pricing.Configuration{
			Mode:       pricing.ModeRenter,
			RenterRate: s.RenterRate,
			Discount:   pricing.TierPolicy(s.RenterDiscountTier),
		}
	}

	var depreciation decimal.Decimal
	if s.PurchasePrice.IsPositive() && s.UsefulLife > 0 {
		depreciation = s.PurchasePrice.Sub(s.SalvageValue).
			Div(decimal.NewFromInt(int64(s.UsefulLife))).
			Div(s.PurchasePrice)
	}

	return pricing.Configuration{
		Mode:         pricing.ModeOwner,
		RatePerPoint: s.MaintenanceRate,
		Discount:     pricing.TierPolicy(s.DiscountTier),
		Owner: pricing.OwnerRates{
			MaintenanceRate:     s.MaintenanceRate,
			PointValue:          s.PurchasePrice,
			CapitalRate:         s.CapitalCostPct.Div(hundred),
			DepreciationRate:    depreciation,
			IncludeMaintenance:  s.IncludeMaintenance,
			IncludeCapital:      s.IncludeCapital,
			IncludeDepreciation: s.IncludeDepreciation,
		},
	}
}
