/*
Package calendar is the Calendar Model of the stay engine.

PURPOSE:
  Describes, per resort and per night, which season category or holiday
  period applies and how many points each room type costs for it. The
  model is built once from resort documents, validated, and then only
  read; every lookup is a pure function of the loaded data.

KEY CONCEPTS:
  - Season: a named pricing tier ("High Season") with date periods per year
  - DayCategory: weekday split inside a season ("Sun-Thu", "Fri-Sat")
  - HolidayPeriod: fixed block with a minimum stay that may override seasons
  - ChartKey: which column of the point chart a night is priced from

NIGHT ATTRIBUTION:
  Seasons are keyed by the night itself. Holiday periods are published as
  the range of stay mornings [Start, End]: the night of Mar 14 belongs to a
  holiday starting Mar 15, and guests check out on End. A holiday's block
  of nights is therefore Start-1 .. End-1.

SEE ALSO:
  - model.go: Model construction, validation and lookups
  - timeline.go: Season/holiday bars for calendar views
  - region.go: Timezone-based ordering and labels
*/
package calendar

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResortID string
type RoomType string
type SeasonCategory string

// =============================================================================
// CHART KEY - Season or holiday column of the point chart
// =============================================================================

type ChartKind string

const (
	KindSeason  ChartKind = "season"
	KindHoliday ChartKind = "holiday"
)

// ChartKey selects the point chart column for a night.
type ChartKey struct {
	Kind ChartKind
	Name string
}

func SeasonKey(c SeasonCategory) ChartKey { return ChartKey{Kind: KindSeason, Name: string(c)} }
func HolidayKey(name string) ChartKey     { return ChartKey{Kind: KindHoliday, Name: name} }

func (k ChartKey) IsHoliday() bool { return k.Kind == KindHoliday }
func (k ChartKey) String() string  { return k.Name }

// =============================================================================
// SEASONS
// =============================================================================

// DayCategory prices the nights of a season that fall on its weekdays.
// An empty Days list matches every weekday.
type DayCategory struct {
	Name   string
	Days   []time.Weekday
	Points map[RoomType]decimal.Decimal
}

// Matches reports whether the night's weekday belongs to this category.
func (dc DayCategory) Matches(wd time.Weekday) bool {
	if len(dc.Days) == 0 {
		return true
	}
	for _, d := range dc.Days {
		if d == wd {
			return true
		}
	}
	return false
}

// Season is one category's definition for a single year.
type Season struct {
	Category      SeasonCategory
	Periods       []generic.Period
	DayCategories []DayCategory
}

// categoryFor returns the day category pricing the given night, if any.
func (s *Season) categoryFor(night generic.TimePoint) (*DayCategory, bool) {
	wd := night.Weekday()
	for i := range s.DayCategories {
		if s.DayCategories[i].Matches(wd) {
			return &s.DayCategories[i], true
		}
	}
	return nil, false
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayPeriod is a fixed block with its own minimum stay.
type HolidayPeriod struct {
	Name string

	// Period is the published range of stay mornings; End is the check-out day.
	Period generic.Period

	// MinNights is the minimum stay; 0 means the whole block.
	MinNights int

	// OverridesSeason prices the block's nights from Points instead of the season.
	OverridesSeason bool

	Points map[RoomType]decimal.Decimal
}

// Nights returns the block of nights attributed to this holiday.
func (h *HolidayPeriod) Nights() generic.Period {
	return generic.Period{Start: h.Period.Start.AddDays(-1), End: h.Period.End.AddDays(-1)}
}

// FirstNight is the check-in day that covers the whole block.
func (h *HolidayPeriod) FirstNight() generic.TimePoint { return h.Period.Start.AddDays(-1) }

// CheckOut is the morning the block ends.
func (h *HolidayPeriod) CheckOut() generic.TimePoint { return h.Period.End }

// BlockNights is the number of nights in the block.
func (h *HolidayPeriod) BlockNights() int { return h.Period.Len() }

// RequiredNights is the effective minimum stay for the holiday.
func (h *HolidayPeriod) RequiredNights() int {
	if h.MinNights <= 0 {
		return h.BlockNights()
	}
	return h.MinNights
}

// CoversNight reports whether the night belongs to the block.
func (h *HolidayPeriod) CoversNight(night generic.TimePoint) bool {
	return h.Nights().Contains(night)
}

// =============================================================================
// RESORT
// =============================================================================

// Year groups the seasons and holidays configured for one calendar year.
type Year struct {
	Year     int
	Seasons  []Season
	Holidays []HolidayPeriod
}

// Resort is the complete pricing calendar of one property.
type Resort struct {
	ID          ResortID
	DisplayName string
	Code        string
	FullName    string
	Timezone    string
	Address     string

	// RoomTypes in chart insertion order. Derived by NewModel when empty.
	RoomTypes []RoomType

	Years map[int]*Year

	// indexes built by NewModel
	seasons  []seasonSpan
	holidays []*HolidayPeriod
	rooms    map[RoomType]bool
}

type seasonSpan struct {
	period generic.Period
	season *Season
}

// HasRoomType reports whether the room type appears anywhere in the chart.
func (r *Resort) HasRoomType(rt RoomType) bool {
	return r.rooms[rt]
}

// Holidays returns the resort's holiday periods ordered by start.
func (r *Resort) Holidays() []*HolidayPeriod {
	out := make([]*HolidayPeriod, len(r.holidays))
	copy(out, r.holidays)
	return out
}

// Region is the human-friendly label for the resort's timezone.
func (r *Resort) Region() string {
	return RegionLabel(r.Timezone)
}
