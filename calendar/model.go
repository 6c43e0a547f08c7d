package calendar

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/generic"
)

// =============================================================================
// CALENDAR - Lookup contract consumed by the pricing engine
// =============================================================================

// Calendar is the read-only view of resort pricing data.
// Implementations must be safe for concurrent readers.
type Calendar interface {
	// Resort returns the resort or an UnknownResortError.
	Resort(id ResortID) (*Resort, error)

	// RoomTypes returns the resort's room types in chart insertion order.
	RoomTypes(id ResortID) ([]RoomType, error)

	// InOperatingRange reports whether the date falls in a configured year
	// or on a night owned by a configured season or holiday.
	InOperatingRange(id ResortID, date generic.TimePoint) (bool, error)

	// SeasonFor returns the season category of a night.
	SeasonFor(id ResortID, night generic.TimePoint) (SeasonCategory, error)

	// HolidayCovering returns the holiday owning the night, or nil.
	HolidayCovering(id ResortID, night generic.TimePoint) (*HolidayPeriod, error)

	// PointsFor returns the per-night points of a room type under a chart key.
	PointsFor(id ResortID, room RoomType, key ChartKey, night generic.TimePoint) (decimal.Decimal, error)
}

// =============================================================================
// MODEL - In-memory Calendar built from resort documents
// =============================================================================

// Model is an immutable, validated set of resorts.
type Model struct {
	resorts map[ResortID]*Resort
	order   []ResortID
}

// Compile-time check that Model implements Calendar
var _ Calendar = (*Model)(nil)

// NewModel indexes and validates the resorts. The resorts must not be
// modified afterwards.
func NewModel(resorts ...*Resort) (*Model, error) {
	m := &Model{resorts: make(map[ResortID]*Resort, len(resorts))}
	for _, r := range resorts {
		if r == nil || r.ID == "" {
			return nil, &generic.DocumentError{Path: "resorts", Message: "resort id is required"}
		}
		if _, dup := m.resorts[r.ID]; dup {
			return nil, &generic.DocumentError{Path: "resorts", Message: fmt.Sprintf("duplicate resort id %q", r.ID)}
		}
		if err := index(r); err != nil {
			return nil, err
		}
		m.resorts[r.ID] = r
		m.order = append(m.order, r.ID)
	}
	return m, nil
}

func index(r *Resort) error {
	r.seasons = nil
	r.holidays = nil
	r.rooms = make(map[RoomType]bool)

	for _, y := range sortedYears(r.Years) {
		year := r.Years[y]
		for si := range year.Seasons {
			s := &year.Seasons[si]
			for _, p := range s.Periods {
				if !p.Valid() {
					return fmt.Errorf("resort %q season %q period %s: %w", r.ID, s.Category, p, generic.ErrInvalidPeriod)
				}
				r.seasons = append(r.seasons, seasonSpan{period: p, season: s})
			}
			for _, dc := range s.DayCategories {
				if err := checkPoints(fmt.Sprintf("%s.years.%d.seasons.%s.%s", r.ID, y, s.Category, dc.Name), dc.Points); err != nil {
					return err
				}
			}
		}
		for hi := range year.Holidays {
			h := &year.Holidays[hi]
			if !h.Period.Valid() {
				return fmt.Errorf("resort %q holiday %q period %s: %w", r.ID, h.Name, h.Period, generic.ErrInvalidPeriod)
			}
			if h.MinNights < 0 {
				return &generic.DocumentError{
					Path:    fmt.Sprintf("%s.years.%d.holidays.%s", r.ID, y, h.Name),
					Message: "min_nights must not be negative",
				}
			}
			if err := checkPoints(fmt.Sprintf("%s.years.%d.holidays.%s", r.ID, y, h.Name), h.Points); err != nil {
				return err
			}
			r.holidays = append(r.holidays, h)
		}
	}

	sort.SliceStable(r.seasons, func(i, j int) bool {
		return r.seasons[i].period.Start.Before(r.seasons[j].period.Start)
	})
	sort.SliceStable(r.holidays, func(i, j int) bool {
		return r.holidays[i].Nights().Start.Before(r.holidays[j].Nights().Start)
	})

	if err := validateOverlaps(r); err != nil {
		return err
	}

	// An explicit room list fixes the order; chart rooms it omits go last.
	ordered := make([]RoomType, 0, len(r.RoomTypes))
	for _, rt := range r.RoomTypes {
		if !r.rooms[rt] {
			r.rooms[rt] = true
			ordered = append(ordered, rt)
		}
	}
	for _, rt := range deriveRoomTypes(r) {
		if !r.rooms[rt] {
			r.rooms[rt] = true
			ordered = append(ordered, rt)
		}
	}
	r.RoomTypes = ordered
	return nil
}

// checkPoints rejects negative per-night points.
func checkPoints(path string, points map[RoomType]decimal.Decimal) error {
	for _, rt := range sortedRooms(points) {
		if points[rt].IsNegative() {
			return &generic.DocumentError{
				Path:    path + ".room_points." + string(rt),
				Message: fmt.Sprintf("points must not be negative, got %s", points[rt]),
			}
		}
	}
	return nil
}

// validateOverlaps enforces that no two holidays share a night and no two
// season periods share a day. Both index slices are sorted by start.
func validateOverlaps(r *Resort) error {
	for i := 1; i < len(r.holidays); i++ {
		prev, cur := r.holidays[i-1], r.holidays[i]
		if prev.Nights().Overlaps(cur.Nights()) {
			return &generic.OverlapError{
				ResortID: string(r.ID),
				First:    prev.Name + " " + prev.Period.String(),
				Second:   cur.Name + " " + cur.Period.String(),
				Kind:     generic.ErrOverlappingHolidays,
			}
		}
	}
	for i := 1; i < len(r.seasons); i++ {
		prev, cur := r.seasons[i-1], r.seasons[i]
		if prev.period.Overlaps(cur.period) {
			return &generic.OverlapError{
				ResortID: string(r.ID),
				First:    string(prev.season.Category) + " " + prev.period.String(),
				Second:   string(cur.season.Category) + " " + cur.period.String(),
				Kind:     generic.ErrOverlappingSeasons,
			}
		}
	}
	return nil
}

// deriveRoomTypes lists room types in first-seen order: years ascending,
// seasons and day categories in document order, then holidays. Room names
// inside one points map are taken alphabetically.
func deriveRoomTypes(r *Resort) []RoomType {
	seen := make(map[RoomType]bool)
	var out []RoomType
	add := func(points map[RoomType]decimal.Decimal) {
		for _, rt := range sortedRooms(points) {
			if !seen[rt] {
				seen[rt] = true
				out = append(out, rt)
			}
		}
	}
	for _, y := range sortedYears(r.Years) {
		for _, s := range r.Years[y].Seasons {
			for _, dc := range s.DayCategories {
				add(dc.Points)
			}
		}
		for _, h := range r.Years[y].Holidays {
			add(h.Points)
		}
	}
	return out
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (m *Model) Resort(id ResortID) (*Resort, error) {
	r, ok := m.resorts[id]
	if !ok {
		return nil, &generic.UnknownResortError{ResortID: string(id)}
	}
	return r, nil
}

// Resorts returns all resorts in load order.
func (m *Model) Resorts() []*Resort {
	out := make([]*Resort, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.resorts[id])
	}
	return out
}

func (m *Model) RoomTypes(id ResortID) ([]RoomType, error) {
	r, err := m.Resort(id)
	if err != nil {
		return nil, err
	}
	out := make([]RoomType, len(r.RoomTypes))
	copy(out, r.RoomTypes)
	return out, nil
}

func (m *Model) InOperatingRange(id ResortID, date generic.TimePoint) (bool, error) {
	r, err := m.Resort(id)
	if err != nil {
		return false, err
	}
	if _, ok := r.Years[date.Year()]; ok {
		return true, nil
	}
	// A holiday starting Jan 1 owns Dec 31 of the year before.
	if _, ok := r.seasonAt(date); ok {
		return true, nil
	}
	return r.holidayAt(date) != nil, nil
}

func (m *Model) SeasonFor(id ResortID, night generic.TimePoint) (SeasonCategory, error) {
	r, err := m.Resort(id)
	if err != nil {
		return "", err
	}
	span, ok := r.seasonAt(night)
	if !ok {
		return "", &generic.MissingChartDataError{ResortID: string(id), Date: night}
	}
	return span.season.Category, nil
}

func (m *Model) HolidayCovering(id ResortID, night generic.TimePoint) (*HolidayPeriod, error) {
	r, err := m.Resort(id)
	if err != nil {
		return nil, err
	}
	return r.holidayAt(night), nil
}

func (m *Model) PointsFor(id ResortID, room RoomType, key ChartKey, night generic.TimePoint) (decimal.Decimal, error) {
	r, err := m.Resort(id)
	if err != nil {
		return decimal.Zero, err
	}
	if !r.HasRoomType(room) {
		return decimal.Zero, &generic.UnknownRoomTypeError{ResortID: string(id), RoomType: string(room)}
	}

	missing := &generic.MissingChartDataError{
		ResortID: string(id),
		RoomType: string(room),
		Date:     night,
		Category: key.Name,
	}

	switch key.Kind {
	case KindHoliday:
		h := r.holidayAt(night)
		if h == nil || h.Name != key.Name {
			return decimal.Zero, missing
		}
		pts, ok := h.Points[room]
		if !ok {
			return decimal.Zero, missing
		}
		return pts, nil

	default:
		span, ok := r.seasonAt(night)
		if !ok || string(span.season.Category) != key.Name {
			return decimal.Zero, missing
		}
		dc, ok := span.season.categoryFor(night)
		if !ok {
			return decimal.Zero, missing
		}
		pts, ok := dc.Points[room]
		if !ok {
			return decimal.Zero, missing
		}
		return pts, nil
	}
}

func (r *Resort) seasonAt(night generic.TimePoint) (seasonSpan, bool) {
	// Spans are sorted and disjoint: find the last span starting on or before night.
	i := sort.Search(len(r.seasons), func(i int) bool {
		return r.seasons[i].period.Start.After(night)
	})
	if i == 0 {
		return seasonSpan{}, false
	}
	span := r.seasons[i-1]
	if !span.period.Contains(night) {
		return seasonSpan{}, false
	}
	return span, true
}

func (r *Resort) holidayAt(night generic.TimePoint) *HolidayPeriod {
	i := sort.Search(len(r.holidays), func(i int) bool {
		return r.holidays[i].Nights().Start.After(night)
	})
	if i == 0 {
		return nil
	}
	h := r.holidays[i-1]
	if !h.CoversNight(night) {
		return nil
	}
	return h
}

// =============================================================================
// HELPERS
// =============================================================================

func sortedYears(years map[int]*Year) []int {
	out := make([]int, 0, len(years))
	for y := range years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func sortedRooms(points map[RoomType]decimal.Decimal) []RoomType {
	out := make([]RoomType, 0, len(points))
	for rt := range points {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
