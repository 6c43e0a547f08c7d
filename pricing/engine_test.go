package pricing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/generic"
	"github.com/warp/stay-engine/pricing"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func points(m map[string]int64) map[calendar.RoomType]decimal.Decimal {
	out := make(map[calendar.RoomType]decimal.Decimal, len(m))
	for k, v := range m {
		out[calendar.RoomType(k)] = decimal.NewFromInt(v)
	}
	return out
}

// testResort: flat 2025 "Standard" season (Studio 10, 1BR 20 per night) and
// a "Spring Break" holiday [Mar 15, Mar 24] with a 10 night minimum. The
// Penthouse is only charted for the holiday.
func testResort() *calendar.Resort {
	return &calendar.Resort{
		ID:          "R1",
		DisplayName: "Ocean Club",
		Years: map[int]*calendar.Year{
			2025: {
				Year: 2025,
				Seasons: []calendar.Season{{
					Category: "Standard",
					Periods:  []generic.Period{{Start: date("2025-01-01"), End: date("2025-12-31")}},
					DayCategories: []calendar.DayCategory{{
						Name:   "All",
						Points: points(map[string]int64{"Studio": 10, "1BR": 20}),
					}},
				}},
				Holidays: []calendar.HolidayPeriod{{
					Name:            "Spring Break",
					Period:          generic.Period{Start: date("2025-03-15"), End: date("2025-03-24")},
					MinNights:       10,
					OverridesSeason: true,
					Points:          points(map[string]int64{"Studio": 25, "1BR": 50, "Penthouse": 200}),
				}},
			},
		},
	}
}

func newEngine(t *testing.T, resorts ...*calendar.Resort) *pricing.Engine {
	t.Helper()
	if len(resorts) == 0 {
		resorts = []*calendar.Resort{testResort()}
	}
	m, err := calendar.NewModel(resorts...)
	require.NoError(t, err)
	return pricing.NewEngine(m)
}

func ownerConfig() pricing.Configuration {
	return pricing.Configuration{
		Mode:         pricing.ModeOwner,
		RatePerPoint: dec("0.20"),
		Discount:     pricing.NoDiscount(),
		Owner: pricing.OwnerRates{
			MaintenanceRate:    dec("0.10"),
			IncludeMaintenance: true,
		},
	}
}

func stay(room string, checkIn string, nights int) pricing.StayRequest {
	return pricing.StayRequest{ResortID: "R1", RoomType: calendar.RoomType(room), CheckIn: date(checkIn), Nights: nights}
}

// =============================================================================
// HOLIDAY ADJUSTMENT
// =============================================================================

func TestAdjustForHolidays_MovesCheckInAndExtends(t *testing.T) {
	e := newEngine(t)

	// GIVEN a 7 night request starting on the holiday's published start
	req := stay("Studio", "2025-03-15", 7)

	// WHEN adjusted
	adj, err := e.AdjustForHolidays(req)
	require.NoError(t, err)

	// THEN the stay covers the whole block: nights Mar 14 - Mar 23
	assert.True(t, adj.Changed)
	assert.Equal(t, date("2025-03-14"), adj.CheckIn)
	assert.Equal(t, 10, adj.Nights)
	assert.Equal(t, date("2025-03-24"), adj.CheckOut())
	assert.Equal(t, "Mar 14 - Mar 23", adj.Summary())
	assert.Equal(t, req, adj.Original)

	require.Len(t, adj.Reasons, 2)
	assert.Equal(t, pricing.ReasonCheckInMoved, adj.Reasons[0].Kind)
	assert.Contains(t, adj.Reasons[0].Message, "Mar 15")
	assert.Contains(t, adj.Reasons[0].Message, "Mar 14")
	assert.Equal(t, pricing.ReasonNightsExtended, adj.Reasons[1].Kind)
	assert.Contains(t, adj.Reasons[1].Message, "from 7 to 10 nights")
	assert.Equal(t, []string{"Spring Break"}, adj.Reasons[1].Holidays)
}

func TestAdjustForHolidays_OutsideHolidayUnchanged(t *testing.T) {
	e := newEngine(t)
	req := stay("Studio", "2025-06-02", 5)

	adj, err := e.AdjustForHolidays(req)
	require.NoError(t, err)

	assert.False(t, adj.Changed)
	assert.Equal(t, req.CheckIn, adj.CheckIn)
	assert.Equal(t, 5, adj.Nights)
	assert.Empty(t, adj.Reasons)
}

func TestAdjustForHolidays_AlreadySatisfied(t *testing.T) {
	e := newEngine(t)

	// Starts two nights early and leaves one morning late
	adj, err := e.AdjustForHolidays(stay("Studio", "2025-03-12", 13))
	require.NoError(t, err)

	assert.False(t, adj.Changed)
	assert.Equal(t, 13, adj.Nights)
}

func TestAdjustForHolidays_EarlierCheckInOnlyExtends(t *testing.T) {
	e := newEngine(t)

	// Nights Mar 10 - Mar 14 touch the first holiday night
	adj, err := e.AdjustForHolidays(stay("Studio", "2025-03-10", 5))
	require.NoError(t, err)

	assert.Equal(t, date("2025-03-10"), adj.CheckIn)
	assert.Equal(t, 14, adj.Nights)
	require.Len(t, adj.Reasons, 1)
	assert.Equal(t, pricing.ReasonNightsExtended, adj.Reasons[0].Kind)
}

func TestAdjustForHolidays_ShortMinimumStillCoversBlock(t *testing.T) {
	r := testResort()
	r.Years[2025].Holidays[0].MinNights = 7
	e := newEngine(t, r)

	adj, err := e.AdjustForHolidays(stay("Studio", "2025-03-18", 2))
	require.NoError(t, err)

	assert.Equal(t, date("2025-03-14"), adj.CheckIn)
	assert.Equal(t, 10, adj.Nights)
}

func TestAdjustForHolidays_LongMinimumExtendsPastBlock(t *testing.T) {
	r := testResort()
	r.Years[2025].Holidays[0].MinNights = 12
	e := newEngine(t, r)

	adj, err := e.AdjustForHolidays(stay("Studio", "2025-03-15", 3))
	require.NoError(t, err)

	assert.Equal(t, date("2025-03-14"), adj.CheckIn)
	assert.Equal(t, 12, adj.Nights)
}

func TestAdjustForHolidays_ChainedSweep(t *testing.T) {
	// GIVEN a 12 night minimum on Spring Break and an adjacent Easter block
	// whose nights are Mar 24 - Mar 30
	r := testResort()
	r.Years[2025].Holidays[0].MinNights = 12
	r.Years[2025].Holidays = append(r.Years[2025].Holidays, calendar.HolidayPeriod{
		Name:            "Easter",
		Period:          generic.Period{Start: date("2025-03-25"), End: date("2025-03-31")},
		OverridesSeason: true,
		Points:          points(map[string]int64{"Studio": 30}),
	})
	e := newEngine(t, r)

	// WHEN the first extension sweeps into Easter
	adj, err := e.AdjustForHolidays(stay("Studio", "2025-03-16", 3))
	require.NoError(t, err)

	// THEN Easter's block is covered too
	assert.Equal(t, date("2025-03-14"), adj.CheckIn)
	assert.Equal(t, date("2025-03-31"), adj.CheckOut())
	assert.Equal(t, 17, adj.Nights)
	assert.Equal(t, []string{"Spring Break", "Easter"}, adj.Reasons[1].Holidays)

	again, err := e.AdjustForHolidays(adj.Request())
	require.NoError(t, err)
	assert.False(t, again.Changed)
}

func TestAdjustForHolidays_Errors(t *testing.T) {
	e := newEngine(t)

	_, err := e.AdjustForHolidays(stay("Studio", "2025-03-15", 0))
	assert.ErrorIs(t, err, generic.ErrInvalidStay)

	_, err = e.AdjustForHolidays(stay("Studio", "2026-03-15", 3))
	assert.ErrorIs(t, err, generic.ErrInvalidStay)

	req := stay("Studio", "2025-03-15", 3)
	req.ResortID = "nope"
	_, err = e.AdjustForHolidays(req)
	assert.ErrorIs(t, err, generic.ErrUnknownResort)
}

// =============================================================================
// COMPUTE STAY
// =============================================================================

func TestComputeStay_FlatSeason(t *testing.T) {
	e := newEngine(t)

	q, err := e.ComputeStay(stay("Studio", "2025-06-02", 5), ownerConfig())
	require.NoError(t, err)

	assert.False(t, q.Stay.Changed)
	require.Len(t, q.Nights, 5)
	for i, n := range q.Nights {
		assert.Equal(t, date("2025-06-02").AddDays(i), n.Date)
		assert.Equal(t, calendar.SeasonKey("Standard"), n.Key)
		assert.Equal(t, calendar.SeasonCategory("Standard"), n.Season)
		assertDecimal(t, "10", n.Points.Value)
		assertDecimal(t, "2", n.Cost.Value)
	}
	assertDecimal(t, "50", q.Cost.TotalPoints.Value)
	assert.Equal(t, generic.UnitPoints, q.Cost.TotalPoints.Unit)
}

func TestComputeStay_OwnerExample(t *testing.T) {
	e := newEngine(t)

	// 25 nights at 20 points = 500 points
	q, err := e.ComputeStay(stay("1BR", "2025-06-01", 25), ownerConfig())
	require.NoError(t, err)

	cb := q.Cost
	assert.Equal(t, pricing.ModeOwner, cb.Mode)
	assertDecimal(t, "500", cb.TotalPoints.Value)
	assertDecimal(t, "100", cb.GrossCost.Value)
	assertDecimal(t, "0", cb.DiscountApplied.Value)
	assertDecimal(t, "100", cb.NetCost.Value)
	require.NotNil(t, cb.Owner)
	assertDecimal(t, "50", cb.Owner.Maintenance.Value)
	assert.Nil(t, cb.Renter)
	assert.Equal(t, "$100.00", cb.NetCost.String())
}

func TestComputeStay_HolidayPricing(t *testing.T) {
	e := newEngine(t)

	q, err := e.ComputeStay(stay("Studio", "2025-03-15", 7), ownerConfig())
	require.NoError(t, err)

	require.Len(t, q.Nights, 10)
	assert.Equal(t, date("2025-03-14"), q.Nights[0].Date)
	assert.Equal(t, date("2025-03-23"), q.Nights[9].Date)
	for _, n := range q.Nights {
		assert.True(t, n.IsHoliday())
		assert.Equal(t, "Spring Break", n.Holiday)
		assertDecimal(t, "25", n.Points.Value)
	}
	assertDecimal(t, "250", q.Cost.TotalPoints.Value)
	assert.Equal(t, calendar.RoomType("Studio"), q.Request.RoomType)
}

func TestComputeStay_NonOverridingHolidayUsesSeason(t *testing.T) {
	r := testResort()
	r.Years[2025].Holidays[0].OverridesSeason = false
	e := newEngine(t, r)

	q, err := e.ComputeStay(stay("Studio", "2025-03-14", 10), ownerConfig())
	require.NoError(t, err)

	for _, n := range q.Nights {
		assert.False(t, n.IsHoliday())
		assert.Equal(t, "Spring Break", n.Holiday)
		assertDecimal(t, "10", n.Points.Value)
	}
}

func TestComputeStay_Errors(t *testing.T) {
	e := newEngine(t)

	t.Run("zero nights", func(t *testing.T) {
		_, err := e.ComputeStay(stay("Studio", "2025-06-02", 0), ownerConfig())
		var invalid *generic.InvalidStayError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, 0, invalid.Nights)
	})

	t.Run("negative nights", func(t *testing.T) {
		_, err := e.ComputeStay(stay("Studio", "2025-06-02", -3), ownerConfig())
		assert.ErrorIs(t, err, generic.ErrInvalidStay)
	})

	t.Run("unknown room type", func(t *testing.T) {
		_, err := e.ComputeStay(stay("Villa", "2025-06-02", 3), ownerConfig())
		assert.ErrorIs(t, err, generic.ErrUnknownRoomType)
	})

	t.Run("unknown resort", func(t *testing.T) {
		req := stay("Studio", "2025-06-02", 3)
		req.ResortID = "R9"
		_, err := e.ComputeStay(req, ownerConfig())
		assert.ErrorIs(t, err, generic.ErrUnknownResort)
	})

	t.Run("missing chart data for the requested room", func(t *testing.T) {
		_, err := e.ComputeStay(stay("Penthouse", "2025-06-02", 3), ownerConfig())
		var missing *generic.MissingChartDataError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, date("2025-06-02"), missing.Date)
	})

	t.Run("stay runs past the calendar", func(t *testing.T) {
		_, err := e.ComputeStay(stay("Studio", "2025-12-30", 5), ownerConfig())
		assert.ErrorIs(t, err, generic.ErrMissingChartData)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		cfg := ownerConfig()
		cfg.Mode = "guest"
		_, err := e.ComputeStay(stay("Studio", "2025-06-02", 3), cfg)
		assert.ErrorIs(t, err, generic.ErrInvalidConfiguration)
	})
}

// =============================================================================
// ALL ROOM TYPES & COMPARISON
// =============================================================================

func TestComputeAllRoomTypes_SkipsMissingChartData(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m, err := calendar.NewModel(testResort())
	require.NoError(t, err)
	e := pricing.NewEngine(m, pricing.WithLogger(zap.New(core)))

	rows, err := e.ComputeAllRoomTypes("R1", date("2025-06-02"), 5, ownerConfig())
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, calendar.RoomType("1BR"), rows[0].RoomType)
	assertDecimal(t, "100", rows[0].TotalPoints.Value)
	assertDecimal(t, "20", rows[0].NetCost.Value)
	assert.Equal(t, calendar.RoomType("Studio"), rows[1].RoomType)
	assertDecimal(t, "50", rows[1].TotalPoints.Value)

	skipped := logs.FilterMessage("room type skipped").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "Penthouse", skipped[0].ContextMap()["room_type"])
}

func TestComputeAllRoomTypes_HolidayIncludesEveryRoom(t *testing.T) {
	e := newEngine(t)

	rows, err := e.ComputeAllRoomTypes("R1", date("2025-03-15"), 7, ownerConfig())
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, calendar.RoomType("Penthouse"), rows[2].RoomType)
	assertDecimal(t, "2000", rows[2].TotalPoints.Value)
}

func TestComputeAllRoomTypes_Errors(t *testing.T) {
	e := newEngine(t)

	_, err := e.ComputeAllRoomTypes("R1", date("2025-06-02"), 0, ownerConfig())
	assert.ErrorIs(t, err, generic.ErrInvalidStay)

	_, err = e.ComputeAllRoomTypes("R2", date("2025-06-02"), 2, ownerConfig())
	assert.ErrorIs(t, err, generic.ErrUnknownResort)
}

func TestCompareRoomTypes(t *testing.T) {
	e := newEngine(t)

	cmp, err := e.CompareRoomTypes("R1", []calendar.RoomType{"Studio", "1BR", "Studio"}, date("2025-03-12"), 5, ownerConfig())
	require.NoError(t, err)

	// Nights Mar 12 - Mar 16 touch the holiday: extended to Mar 23
	assert.Equal(t, date("2025-03-12"), cmp.Stay.CheckIn)
	assert.Equal(t, 12, cmp.Stay.Nights)
	require.Len(t, cmp.Quotes, 2)
	require.Len(t, cmp.Rows, 12)

	first := cmp.Rows[0]
	assert.Equal(t, "", first.Holiday)
	assertDecimal(t, "10", first.Points["Studio"].Value)
	assertDecimal(t, "20", first.Points["1BR"].Value)

	holiday := cmp.Rows[2]
	assert.Equal(t, "Spring Break", holiday.Holiday)
	assertDecimal(t, "10", holiday.Cost["1BR"].Value)

	require.Len(t, cmp.HolidayTotals, 2)
	assert.Equal(t, calendar.RoomType("Studio"), cmp.HolidayTotals[0].RoomType)
	assertDecimal(t, "250", cmp.HolidayTotals[0].Points.Value)
	assertDecimal(t, "100", cmp.HolidayTotals[1].Cost.Value)
}

func TestCompareRoomTypes_MissingChartIsFatal(t *testing.T) {
	e := newEngine(t)

	_, err := e.CompareRoomTypes("R1", []calendar.RoomType{"Studio", "Penthouse"}, date("2025-06-02"), 3, ownerConfig())
	assert.ErrorIs(t, err, generic.ErrMissingChartData)

	_, err = e.CompareRoomTypes("R1", []calendar.RoomType{"Villa"}, date("2025-06-02"), 3, ownerConfig())
	assert.ErrorIs(t, err, generic.ErrUnknownRoomType)
}

// =============================================================================
// PROPERTIES - Checked over a grid of check-ins around the holiday
// =============================================================================

// newYearResort has a "New Year" block [Jan 1, Jan 5] on the first day of
// its only configured year, so the block's first night is Dec 31 of 2024.
func newYearResort() *calendar.Resort {
	return &calendar.Resort{
		ID: "R1",
		Years: map[int]*calendar.Year{
			2025: {
				Year: 2025,
				Seasons: []calendar.Season{{
					Category:      "Standard",
					Periods:       []generic.Period{{Start: date("2025-01-01"), End: date("2025-12-31")}},
					DayCategories: []calendar.DayCategory{{Name: "All", Points: points(map[string]int64{"Studio": 10})}},
				}},
				Holidays: []calendar.HolidayPeriod{{
					Name:            "New Year",
					Period:          generic.Period{Start: date("2025-01-01"), End: date("2025-01-05")},
					MinNights:       5,
					OverridesSeason: true,
					Points:          points(map[string]int64{"Studio": 25}),
				}},
			},
		},
	}
}

func TestEngineProperties(t *testing.T) {
	tests := []struct {
		name   string
		resort *calendar.Resort
		start  string
		days   int
	}{
		{"around spring break", testResort(), "2025-03-01", 40},
		{"holiday on first calendar day", newYearResort(), "2025-01-01", 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertStayProperties(t, newEngine(t, tt.resort), date(tt.start), tt.days)
		})
	}
}

func assertStayProperties(t *testing.T, e *pricing.Engine, start generic.TimePoint, days int) {
	t.Helper()
	cfg := ownerConfig()
	cfg.Discount = pricing.PercentageDiscount(dec("1.5"))

	for d := 0; d < days; d++ {
		for nights := 1; nights <= 14; nights++ {
			req := stay("Studio", start.AddDays(d).String(), nights)

			q, err := e.ComputeStay(req, cfg)
			require.NoError(t, err, "check-in %s nights %d", req.CheckIn, nights)

			// Monotonic extension
			assert.True(t, q.Stay.CheckIn.BeforeOrEqual(req.CheckIn))
			assert.GreaterOrEqual(t, q.Stay.Nights, req.Nights)
			assert.True(t, q.Stay.CheckOut().AfterOrEqual(req.CheckOut()))

			// Ledger completeness
			require.Len(t, q.Nights, q.Stay.Nights)
			for i, n := range q.Nights {
				assert.Equal(t, q.Stay.CheckIn.AddDays(i), n.Date)
			}

			// Net cost never negative
			assert.False(t, q.Cost.NetCost.IsNegative())

			// Idempotence, and the adjusted stay is itself a valid request
			again, err := e.AdjustForHolidays(q.Stay.Request())
			require.NoError(t, err, "check-in %s nights %d", req.CheckIn, nights)
			assert.False(t, again.Changed, "check-in %s nights %d", req.CheckIn, nights)

			requoted, err := e.ComputeStay(q.Stay.Request(), cfg)
			require.NoError(t, err, "check-in %s nights %d", req.CheckIn, nights)
			assert.True(t, q.Cost.TotalPoints.Equal(requoted.Cost.TotalPoints))
		}
	}
}

func TestAdjustForHolidays_HolidayOnFirstCalendarDay(t *testing.T) {
	// GIVEN a block starting Jan 1 of the first configured year
	e := newEngine(t, newYearResort())

	// WHEN a stay inside it is adjusted
	adj, err := e.AdjustForHolidays(stay("Studio", "2025-01-02", 2))
	require.NoError(t, err)

	// THEN check-in moves to Dec 31 of the unconfigured year
	assert.Equal(t, date("2024-12-31"), adj.CheckIn)
	assert.Equal(t, 5, adj.Nights)

	// AND the adjusted stay can be quoted again at holiday prices
	q, err := e.ComputeStay(adj.Request(), ownerConfig())
	require.NoError(t, err)
	assert.False(t, q.Stay.Changed)
	assertDecimal(t, "125", q.Cost.TotalPoints.Value)

	// AND Dec 30 stays outside the calendar
	_, err = e.AdjustForHolidays(stay("Studio", "2024-12-30", 2))
	assert.ErrorIs(t, err, generic.ErrInvalidStay)
}

func TestAdjustForHolidays_NightLimit(t *testing.T) {
	e := newEngine(t)

	t.Run("request over the limit", func(t *testing.T) {
		_, err := e.AdjustForHolidays(stay("Studio", "2025-01-01", pricing.MaxNights+1))
		var invalid *generic.InvalidStayError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, pricing.MaxNights+1, invalid.Nights)
	})

	t.Run("far past the limit", func(t *testing.T) {
		_, err := e.AdjustForHolidays(stay("Studio", "2025-01-01", 200000))
		assert.ErrorIs(t, err, generic.ErrInvalidStay)
	})

	t.Run("request at the limit", func(t *testing.T) {
		adj, err := e.AdjustForHolidays(stay("Studio", "2025-06-01", pricing.MaxNights))
		require.NoError(t, err)
		assert.False(t, adj.Changed)
		assert.Equal(t, pricing.MaxNights, adj.Nights)
	})

	t.Run("holiday minimum pushes the stay over the limit", func(t *testing.T) {
		r := testResort()
		r.Years[2025].Holidays[0].MinNights = pricing.MaxNights + 5
		_, err := newEngine(t, r).AdjustForHolidays(stay("Studio", "2025-03-15", 3))
		var invalid *generic.InvalidStayError
		require.True(t, errors.As(err, &invalid))
		assert.Contains(t, invalid.Reason, "Spring Break")
	})
}

// =============================================================================
// SELECTION
// =============================================================================

func TestSelection_ResortChangeClearsRoomType(t *testing.T) {
	s := pricing.Selection{}.SelectResort("R1").SelectRoomType("Studio")
	assert.True(t, s.HasRoomType())

	same := s.SelectResort("R1")
	assert.Equal(t, calendar.RoomType("Studio"), same.RoomType)

	other := s.SelectResort("R2")
	assert.Equal(t, calendar.ResortID("R2"), other.ResortID)
	assert.False(t, other.HasRoomType())
}

func TestPriceNight(t *testing.T) {
	e := newEngine(t)

	// Mar 14 is the first night of Spring Break (morning of Mar 15)
	n, err := e.PriceNight("R1", "Studio", date("2025-03-14"))
	require.NoError(t, err)
	assert.True(t, n.IsHoliday())
	assert.Equal(t, "Spring Break", n.Holiday)
	assertDecimal(t, "25", n.Points.Value)
	assert.True(t, n.Cost.Value.IsZero())

	n, err = e.PriceNight("R1", "Studio", date("2025-03-13"))
	require.NoError(t, err)
	assert.False(t, n.IsHoliday())
	assert.Equal(t, calendar.SeasonCategory("Standard"), n.Season)

	_, err = e.PriceNight("R1", "Penthouse", date("2025-06-01"))
	assert.ErrorIs(t, err, generic.ErrMissingChartData)

	_, err = e.PriceNight("R1", "Villa", date("2025-06-01"))
	assert.ErrorIs(t, err, generic.ErrUnknownRoomType)
}
