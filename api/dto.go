/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the calendar and pricing types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMBERS:
  Points are rendered as decimal strings ("20.5"), dollar amounts with two
  decimals ("137.50"). Request bodies accept decimals as JSON numbers or
  strings.

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/settings.go: SettingsDoc embedded in profile and quote requests
*/
package api

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/factory"
	"github.com/warp/stay-engine/generic"
	"github.com/warp/stay-engine/pricing"
	"github.com/warp/stay-engine/store/sqlite"
)

// =============================================================================
// RESORTS
// =============================================================================

// ResortDTO represents a resort in API responses.
type ResortDTO struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Code        string   `json:"code,omitempty"`
	ResortName  string   `json:"resort_name,omitempty"`
	Timezone    string   `json:"timezone,omitempty"`
	Address     string   `json:"address,omitempty"`
	Region      string   `json:"region"`
	RoomTypes   []string `json:"room_types"`
	Years       []int    `json:"years"`
}

// RoomTypeDTO is one room type, with its chart entry when a date was given.
type RoomTypeDTO struct {
	RoomType string `json:"room_type"`
	Chart    string `json:"chart,omitempty"`
	Holiday  string `json:"holiday,omitempty"`
	Points   string `json:"points,omitempty"`
}

// TimelineBarDTO is a season or holiday bar of the calendar timeline.
type TimelineBarDTO struct {
	Label  string `json:"label"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Bucket string `json:"bucket"`
}

// ImportResultDTO is returned by the import endpoint.
type ImportResultDTO struct {
	Imported int `json:"imported"`
	Resorts  int `json:"resorts"`
}

// =============================================================================
// QUOTE REQUESTS
// =============================================================================

// QuoteRequest is the body of the quote endpoints.
//
// The cost configuration is taken from the first of: Config, Settings,
// the saved profile ProfileID, the server defaults.
type QuoteRequest struct {
	ResortID  string            `json:"resort_id"`
	RoomType  string            `json:"room_type,omitempty"`
	RoomTypes []string          `json:"room_types,omitempty"`
	CheckIn   string            `json:"check_in"`
	Nights    int               `json:"nights"`
	Mode      string            `json:"mode,omitempty"`
	ProfileID string            `json:"profile_id,omitempty"`
	Settings  json.RawMessage   `json:"settings,omitempty"`
	Config    *ConfigurationDTO `json:"config,omitempty"`
}

// ConfigurationDTO is an explicit engine configuration.
type ConfigurationDTO struct {
	Mode         string          `json:"mode"`
	RatePerPoint decimal.Decimal `json:"rate_per_point"`
	RenterRate   decimal.Decimal `json:"renter_rate"`
	Discount     DiscountDTO     `json:"discount"`
	Owner        OwnerRatesDTO   `json:"owner"`
}

type DiscountDTO struct {
	Kind      string          `json:"kind"`
	Percent   decimal.Decimal `json:"percent"`
	Threshold decimal.Decimal `json:"threshold"`
	Basis     string          `json:"basis,omitempty"`
}

type OwnerRatesDTO struct {
	MaintenanceRate     decimal.Decimal `json:"maintenance_rate"`
	PointValue          decimal.Decimal `json:"point_value"`
	CapitalRate         decimal.Decimal `json:"capital_rate"`
	DepreciationRate    decimal.Decimal `json:"depreciation_rate"`
	IncludeMaintenance  bool            `json:"include_maintenance"`
	IncludeCapital      bool            `json:"include_capital"`
	IncludeDepreciation bool            `json:"include_depreciation"`
}

// Configuration converts the DTO. Validation happens in the engine.
func (c ConfigurationDTO) Configuration() pricing.Configuration {
	return pricing.Configuration{
		Mode:         pricing.Mode(c.Mode),
		RatePerPoint: c.RatePerPoint,
		RenterRate:   c.RenterRate,
		Discount: pricing.DiscountPolicy{
			Kind:      pricing.DiscountKind(c.Discount.Kind),
			Percent:   c.Discount.Percent,
			Threshold: c.Discount.Threshold,
			Basis:     pricing.ThresholdBasis(c.Discount.Basis),
		},
		Owner: pricing.OwnerRates{
			MaintenanceRate:     c.Owner.MaintenanceRate,
			PointValue:          c.Owner.PointValue,
			CapitalRate:         c.Owner.CapitalRate,
			DepreciationRate:    c.Owner.DepreciationRate,
			IncludeMaintenance:  c.Owner.IncludeMaintenance,
			IncludeCapital:      c.Owner.IncludeCapital,
			IncludeDepreciation: c.Owner.IncludeDepreciation,
		},
	}
}

// =============================================================================
// QUOTE RESPONSES
// =============================================================================

// StayDTO is a stay as requested or as adjusted.
type StayDTO struct {
	ResortID string      `json:"resort_id"`
	RoomType string      `json:"room_type,omitempty"`
	CheckIn  string      `json:"check_in"`
	CheckOut string      `json:"check_out"`
	Nights   int         `json:"nights"`
	Changed  bool        `json:"changed"`
	Summary  string      `json:"summary,omitempty"`
	Reasons  []ReasonDTO `json:"reasons"`
}

type ReasonDTO struct {
	Kind     string   `json:"kind"`
	Holidays []string `json:"holidays"`
	Message  string   `json:"message"`
}

// NightDTO is one row of the daily breakdown.
type NightDTO struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Chart   string `json:"chart"`
	Season  string `json:"season,omitempty"`
	Holiday string `json:"holiday,omitempty"`
	Points  string `json:"points"`
	Cost    string `json:"cost"`
}

// CostDTO is the cost breakdown of a stay.
type CostDTO struct {
	Mode            string         `json:"mode"`
	TotalPoints     string         `json:"total_points"`
	RatePerPoint    string         `json:"rate_per_point"`
	GrossCost       string         `json:"gross_cost"`
	DiscountApplied string         `json:"discount_applied"`
	NetCost         string         `json:"net_cost"`
	Clamped         bool           `json:"clamped,omitempty"`
	Owner           *OwnerCostsDTO `json:"owner,omitempty"`
	RentalCost      string         `json:"rental_cost,omitempty"`
}

type OwnerCostsDTO struct {
	Maintenance  string `json:"maintenance"`
	CapitalCost  string `json:"capital_cost"`
	Depreciation string `json:"depreciation"`
	CarryingCost string `json:"carrying_cost"`
}

// QuoteDTO is the result of POST /api/quotes.
type QuoteDTO struct {
	ID        string     `json:"id"`
	Requested StayDTO    `json:"requested"`
	Stay      StayDTO    `json:"stay"`
	Nights    []NightDTO `json:"nights"`
	Cost      CostDTO    `json:"cost"`
}

// RoomTypeSummaryDTO is one row of the all-room-types table.
type RoomTypeSummaryDTO struct {
	RoomType    string `json:"room_type"`
	TotalPoints string `json:"total_points"`
	NetCost     string `json:"net_cost"`
}

// AllRoomTypesDTO is the result of POST /api/quotes/all-room-types.
type AllRoomTypesDTO struct {
	Stay    StayDTO              `json:"stay"`
	Rooms   []RoomTypeSummaryDTO `json:"rooms"`
	Skipped []string             `json:"skipped"`
}

// ComparisonDTO is the result of POST /api/quotes/compare.
type ComparisonDTO struct {
	Stay          StayDTO            `json:"stay"`
	Quotes        []ComparedQuoteDTO `json:"quotes"`
	Rows          []ComparisonRowDTO `json:"rows"`
	HolidayTotals []HolidayTotalDTO  `json:"holiday_totals"`
}

type ComparedQuoteDTO struct {
	RoomType string  `json:"room_type"`
	Cost     CostDTO `json:"cost"`
}

// ComparisonRowDTO is one night with a column per room type.
type ComparisonRowDTO struct {
	Date    string            `json:"date"`
	Holiday string            `json:"holiday,omitempty"`
	Points  map[string]string `json:"points"`
	Cost    map[string]string `json:"cost"`
}

type HolidayTotalDTO struct {
	Holiday  string `json:"holiday"`
	RoomType string `json:"room_type"`
	Points   string `json:"points"`
	Cost     string `json:"cost"`
}

// QuoteRecordDTO is a stored quote.
type QuoteRecordDTO struct {
	ID              string `json:"id"`
	ResortID        string `json:"resort_id"`
	RoomType        string `json:"room_type"`
	CheckIn         string `json:"check_in"`
	Nights          int    `json:"nights"`
	AdjustedCheckIn string `json:"adjusted_check_in"`
	AdjustedNights  int    `json:"adjusted_nights"`
	Mode            string `json:"mode"`
	TotalPoints     string `json:"total_points"`
	NetCost         string `json:"net_cost"`
	CreatedAt       string `json:"created_at"`
}

// =============================================================================
// PROFILES
// =============================================================================

// ProfileDTO represents a saved settings profile.
type ProfileDTO struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Settings  factory.SettingsDoc `json:"settings"`
	CreatedAt string              `json:"created_at,omitempty"`
	UpdatedAt string              `json:"updated_at,omitempty"`
}

// CreateProfileRequest is the request to save a profile. Absent settings
// fields take the defaults.
type CreateProfileRequest struct {
	Name     string          `json:"name"`
	Settings json.RawMessage `json:"settings"`
}

// HealthDTO is returned by the health endpoint.
type HealthDTO struct {
	Status  string `json:"status"`
	Resorts int    `json:"resorts"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(a generic.Amount) string { return a.Value.StringFixed(2) }

func pointsString(a generic.Amount) string { return a.Value.String() }

func toResortDTO(r *calendar.Resort) ResortDTO {
	dto := ResortDTO{
		ID:          string(r.ID),
		DisplayName: r.DisplayName,
		Code:        r.Code,
		ResortName:  r.FullName,
		Timezone:    r.Timezone,
		Address:     r.Address,
		Region:      r.Region(),
		RoomTypes:   make([]string, len(r.RoomTypes)),
		Years:       make([]int, 0, len(r.Years)),
	}
	for i, rt := range r.RoomTypes {
		dto.RoomTypes[i] = string(rt)
	}
	for y := range r.Years {
		dto.Years = append(dto.Years, y)
	}
	sort.Ints(dto.Years)
	return dto
}

func toRequestedDTO(req pricing.StayRequest) StayDTO {
	return StayDTO{
		ResortID: string(req.ResortID),
		RoomType: string(req.RoomType),
		CheckIn:  req.CheckIn.String(),
		CheckOut: req.CheckOut().String(),
		Nights:   req.Nights,
		Reasons:  []ReasonDTO{},
	}
}

func toStayDTO(s pricing.AdjustedStay) StayDTO {
	dto := StayDTO{
		ResortID: string(s.Original.ResortID),
		RoomType: string(s.Original.RoomType),
		CheckIn:  s.CheckIn.String(),
		CheckOut: s.CheckOut().String(),
		Nights:   s.Nights,
		Changed:  s.Changed,
		Summary:  s.Summary(),
		Reasons:  make([]ReasonDTO, len(s.Reasons)),
	}
	for i, r := range s.Reasons {
		dto.Reasons[i] = ReasonDTO{Kind: string(r.Kind), Holidays: r.Holidays, Message: r.Message}
	}
	return dto
}

func toNightDTOs(nights []pricing.NightlyEntry) []NightDTO {
	out := make([]NightDTO, len(nights))
	for i, n := range nights {
		out[i] = NightDTO{
			Date:    n.Date.String(),
			Weekday: generic.WeekdayShort(n.Date.Weekday()),
			Chart:   n.Key.String(),
			Season:  string(n.Season),
			Holiday: n.Holiday,
			Points:  pointsString(n.Points),
			Cost:    money(n.Cost),
		}
	}
	return out
}

func toCostDTO(c pricing.CostBreakdown) CostDTO {
	dto := CostDTO{
		Mode:            string(c.Mode),
		TotalPoints:     pointsString(c.TotalPoints),
		RatePerPoint:    c.RatePerPoint.String(),
		GrossCost:       money(c.GrossCost),
		DiscountApplied: money(c.DiscountApplied),
		NetCost:         money(c.NetCost),
		Clamped:         c.Clamped,
	}
	if c.Owner != nil {
		dto.Owner = &OwnerCostsDTO{
			Maintenance:  money(c.Owner.Maintenance),
			CapitalCost:  money(c.Owner.CapitalCost),
			Depreciation: money(c.Owner.Depreciation),
			CarryingCost: money(c.Owner.CarryingCost),
		}
	}
	if c.Renter != nil {
		dto.RentalCost = money(c.Renter.RentalCost)
	}
	return dto
}

func toComparisonDTO(c *pricing.Comparison) ComparisonDTO {
	dto := ComparisonDTO{
		Stay:          toStayDTO(c.Stay),
		Quotes:        make([]ComparedQuoteDTO, len(c.Quotes)),
		Rows:          make([]ComparisonRowDTO, len(c.Rows)),
		HolidayTotals: make([]HolidayTotalDTO, len(c.HolidayTotals)),
	}
	dto.Stay.RoomType = ""
	for i, q := range c.Quotes {
		dto.Quotes[i] = ComparedQuoteDTO{RoomType: string(q.Request.RoomType), Cost: toCostDTO(q.Cost)}
	}
	for i, row := range c.Rows {
		r := ComparisonRowDTO{
			Date:    row.Date.String(),
			Holiday: row.Holiday,
			Points:  make(map[string]string, len(row.Points)),
			Cost:    make(map[string]string, len(row.Cost)),
		}
		for room, p := range row.Points {
			r.Points[string(room)] = pointsString(p)
		}
		for room, cost := range row.Cost {
			r.Cost[string(room)] = money(cost)
		}
		dto.Rows[i] = r
	}
	for i, ht := range c.HolidayTotals {
		dto.HolidayTotals[i] = HolidayTotalDTO{
			Holiday:  ht.Holiday,
			RoomType: string(ht.RoomType),
			Points:   pointsString(ht.Points),
			Cost:     money(ht.Cost),
		}
	}
	return dto
}

func toQuoteRecordDTO(q sqlite.QuoteRecord) QuoteRecordDTO {
	return QuoteRecordDTO{
		ID:              q.ID,
		ResortID:        q.ResortID,
		RoomType:        q.RoomType,
		CheckIn:         q.CheckIn.String(),
		Nights:          q.Nights,
		AdjustedCheckIn: q.AdjustedCheckIn.String(),
		AdjustedNights:  q.AdjustedNights,
		Mode:            q.Mode,
		TotalPoints:     q.TotalPoints.String(),
		NetCost:         q.NetCost.StringFixed(2),
		CreatedAt:       q.CreatedAt.Format(time.RFC3339),
	}
}

func toProfileDTO(p sqlite.ProfileRecord) ProfileDTO {
	return ProfileDTO{
		ID:        p.ID,
		Name:      p.Name,
		Settings:  p.Settings,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}
