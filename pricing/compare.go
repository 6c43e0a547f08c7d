package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// ALL ROOM TYPES
// =============================================================================

// RoomTypeSummary is one row of the room type comparison table.
type RoomTypeSummary struct {
	RoomType    calendar.RoomType
	TotalPoints generic.Amount
	NetCost     generic.Amount
}

// ComputeAllRoomTypes prices the same dates for every room type of the
// resort, in chart insertion order. Room types lacking chart data for some
// night are left out and logged; any other error aborts.
func (e *Engine) ComputeAllRoomTypes(id calendar.ResortID, checkIn generic.TimePoint, nights int, cfg Configuration) ([]RoomTypeSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	req := StayRequest{ResortID: id, CheckIn: checkIn, Nights: nights}
	if err := e.validateStay(req); err != nil {
		return nil, err
	}
	rooms, err := e.calendar.RoomTypes(id)
	if err != nil {
		return nil, err
	}

	// The adjustment depends on the resort's holidays only, not the room.
	stay, err := e.adjust(req)
	if err != nil {
		return nil, err
	}

	out := make([]RoomTypeSummary, 0, len(rooms))
	for _, room := range rooms {
		q, err := e.price(stay, room, cfg)
		if errors.Is(err, generic.ErrMissingChartData) {
			e.logger.Warn("room type skipped",
				zap.String("resort_id", string(id)),
				zap.String("room_type", string(room)),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, RoomTypeSummary{
			RoomType:    room,
			TotalPoints: q.Cost.TotalPoints,
			NetCost:     q.Cost.NetCost,
		})
	}
	return out, nil
}

// =============================================================================
// COMPARISON - Selected room types side by side
// =============================================================================

// Comparison prices the same adjusted stay for several room types.
type Comparison struct {
	Stay   AdjustedStay
	Quotes []*StayQuote

	// Rows pivot the daily breakdowns: one row per night, one column per room.
	Rows []ComparisonRow

	// HolidayTotals sums each holiday's nights per room type, in stay order.
	HolidayTotals []HolidayTotal
}

type ComparisonRow struct {
	Date    generic.TimePoint
	Holiday string
	Points  map[calendar.RoomType]generic.Amount
	Cost    map[calendar.RoomType]generic.Amount
}

type HolidayTotal struct {
	Holiday  string
	RoomType calendar.RoomType
	Points   generic.Amount
	Cost     generic.Amount
}

// CompareRoomTypes prices the stay for each listed room type. Unlike
// ComputeAllRoomTypes, every room was chosen by the caller, so missing
// chart data is an error.
func (e *Engine) CompareRoomTypes(id calendar.ResortID, rooms []calendar.RoomType, checkIn generic.TimePoint, nights int, cfg Configuration) (*Comparison, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	req := StayRequest{ResortID: id, CheckIn: checkIn, Nights: nights}
	if err := e.validateStay(req); err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if err := e.validateRoom(id, room); err != nil {
			return nil, err
		}
	}

	stay, err := e.adjust(req)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{Stay: stay}
	for _, room := range dedupeRooms(rooms) {
		q, err := e.price(stay, room, cfg)
		if err != nil {
			return nil, err
		}
		cmp.Quotes = append(cmp.Quotes, q)
	}
	cmp.Rows = pivot(stay, cmp.Quotes)
	cmp.HolidayTotals = holidayTotals(cmp.Quotes)
	return cmp, nil
}

func dedupeRooms(rooms []calendar.RoomType) []calendar.RoomType {
	seen := make(map[calendar.RoomType]bool, len(rooms))
	out := make([]calendar.RoomType, 0, len(rooms))
	for _, r := range rooms {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func pivot(stay AdjustedStay, quotes []*StayQuote) []ComparisonRow {
	rows := make([]ComparisonRow, stay.Nights)
	for i := range rows {
		rows[i] = ComparisonRow{
			Date:   stay.CheckIn.AddDays(i),
			Points: make(map[calendar.RoomType]generic.Amount, len(quotes)),
			Cost:   make(map[calendar.RoomType]generic.Amount, len(quotes)),
		}
	}
	for _, q := range quotes {
		for i, n := range q.Nights {
			rows[i].Holiday = n.Holiday
			rows[i].Points[q.Request.RoomType] = n.Points
			rows[i].Cost[q.Request.RoomType] = n.Cost
		}
	}
	return rows
}

func holidayTotals(quotes []*StayQuote) []HolidayTotal {
	var out []HolidayTotal
	for _, q := range quotes {
		index := make(map[string]int)
		for _, n := range q.Nights {
			if n.Holiday == "" {
				continue
			}
			i, ok := index[n.Holiday]
			if !ok {
				i = len(out)
				index[n.Holiday] = i
				out = append(out, HolidayTotal{
					Holiday:  n.Holiday,
					RoomType: q.Request.RoomType,
					Points:   generic.Points(decimal.Zero),
					Cost:     generic.Dollars(decimal.Zero),
				})
			}
			out[i].Points = out[i].Points.Add(n.Points)
			out[i].Cost = out[i].Cost.Add(n.Cost)
		}
	}
	return out
}
