package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/generic"
)

// =============================================================================
// NIGHTLY LEDGER - Daily breakdown of a stay
// =============================================================================

// NightlyEntry is one night of the daily breakdown.
type NightlyEntry struct {
	Date generic.TimePoint

	// Key is the chart column the night was priced from.
	Key calendar.ChartKey

	// Season is set when the night was priced from a season.
	Season calendar.SeasonCategory

	// Holiday names the holiday owning the night, even when it does not
	// override season pricing.
	Holiday string

	Points generic.Amount
	Cost   generic.Amount
}

func (n NightlyEntry) IsHoliday() bool { return n.Key.IsHoliday() }

// accumulate prices every night of the stay in date order. rate is the
// dollar value of one point.
func (e *Engine) accumulate(stay StayRequest, rate decimal.Decimal) ([]NightlyEntry, generic.Amount, error) {
	entries := make([]NightlyEntry, 0, stay.Nights)
	total := generic.Points(decimal.Zero)

	night := stay.CheckIn
	for i := 0; i < stay.Nights; i++ {
		entry, err := e.priceNight(stay.ResortID, stay.RoomType, night)
		if err != nil {
			return nil, generic.Amount{}, err
		}
		entry.Cost = generic.Dollars(entry.Points.Value.Mul(rate))
		entries = append(entries, entry)
		total = total.Add(entry.Points)
		night = night.AddDays(1)
	}
	return entries, total, nil
}

// PriceNight returns the chart entry of a single night for a room type,
// without cost and without holiday adjustment.
func (e *Engine) PriceNight(id calendar.ResortID, room calendar.RoomType, night generic.TimePoint) (NightlyEntry, error) {
	if err := e.validateRoom(id, room); err != nil {
		return NightlyEntry{}, err
	}
	return e.priceNight(id, room, night)
}

// priceNight resolves the chart key of a night and its points. An
// overriding holiday wins over the season.
func (e *Engine) priceNight(id calendar.ResortID, room calendar.RoomType, night generic.TimePoint) (NightlyEntry, error) {
	entry := NightlyEntry{Date: night}

	h, err := e.calendar.HolidayCovering(id, night)
	if err != nil {
		return entry, err
	}
	if h != nil {
		entry.Holiday = h.Name
	}

	if h != nil && h.OverridesSeason {
		entry.Key = calendar.HolidayKey(h.Name)
	} else {
		season, err := e.calendar.SeasonFor(id, night)
		if err != nil {
			return entry, err
		}
		entry.Season = season
		entry.Key = calendar.SeasonKey(season)
	}

	pts, err := e.calendar.PointsFor(id, room, entry.Key, night)
	if err != nil {
		return entry, err
	}
	entry.Points = generic.Points(pts)
	return entry, nil
}
