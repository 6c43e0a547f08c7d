package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/factory"
	"github.com/warp/stay-engine/generic"
	"github.com/warp/stay-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func resortDoc(id string, studioPoints int64) factory.ResortDoc {
	return factory.ResortDoc{
		ID:          id,
		DisplayName: "Resort " + id,
		Timezone:    "Pacific/Honolulu",
		Years: map[string]factory.YearDoc{
			"2025": {
				Seasons: []factory.SeasonDoc{{
					Name:    "Standard",
					Periods: []factory.PeriodDoc{{Start: "2025-01-01", End: "2025-12-31"}},
					DayCategories: map[string]factory.DayCategoryDoc{
						"all": {RoomPoints: map[string]decimal.Decimal{"Studio": decimal.NewFromInt(studioPoints)}},
					},
				}},
				Holidays: []factory.HolidayDoc{{
					Name:       "Spring Break",
					RoomPoints: map[string]decimal.Decimal{"Studio": decimal.NewFromInt(25)},
				}},
			},
		},
	}
}

func seedDocument() *factory.DataDocument {
	return &factory.DataDocument{
		GlobalHolidays: factory.GlobalHolidays{
			"2025": {"Spring Break": {StartDate: "2025-03-15", EndDate: "2025-03-24", Regions: []string{"US"}}},
		},
		Resorts: []factory.ResortDoc{resortDoc("kauai", 10), resortDoc("maui", 12)},
	}
}

// =============================================================================
// RESORT DOCUMENTS
// =============================================================================

func TestResortDocument_SaveGetListDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveResortDocument(ctx, resortDoc("kauai", 10)))
	require.NoError(t, s.SaveResortDocument(ctx, resortDoc("maui", 12)))

	// Upsert keeps the row position
	updated := resortDoc("kauai", 11)
	updated.DisplayName = "Kauai Beach"
	require.NoError(t, s.SaveResortDocument(ctx, updated))

	rec, err := s.GetResortDocument(ctx, "kauai")
	require.NoError(t, err)
	assert.Equal(t, "Kauai Beach", rec.DisplayName)
	assert.True(t, rec.Doc.Years["2025"].Seasons[0].DayCategories["all"].RoomPoints["Studio"].Equal(decimal.NewFromInt(11)))
	assert.False(t, rec.UpdatedAt.IsZero())

	list, err := s.ListResortDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "kauai", list[0].ID)
	assert.Equal(t, "maui", list[1].ID)

	require.NoError(t, s.DeleteResortDocument(ctx, "maui"))
	_, err = s.GetResortDocument(ctx, "maui")
	assert.ErrorIs(t, err, generic.ErrUnknownResort)
	assert.True(t, generic.IsNotFound(err))

	err = s.DeleteResortDocument(ctx, "maui")
	assert.ErrorIs(t, err, generic.ErrUnknownResort)
}

func TestSaveResortDocument_RequiresID(t *testing.T) {
	s := newStore(t)

	err := s.SaveResortDocument(context.Background(), factory.ResortDoc{})
	assert.ErrorIs(t, err, generic.ErrInvalidDocument)
}

// =============================================================================
// IMPORT / LOAD
// =============================================================================

func TestImportDocument_LoadCalendar(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// GIVEN a document whose holiday takes its dates from the global calendar
	require.NoError(t, s.ImportDocument(ctx, seedDocument()))

	// WHEN the calendar is rebuilt from storage
	m, err := s.LoadCalendar(ctx)
	require.NoError(t, err)

	// THEN both resorts are present in import order and the holiday resolves
	ids := []calendar.ResortID{}
	for _, r := range m.Resorts() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []calendar.ResortID{"kauai", "maui"}, ids)

	h, err := m.HolidayCovering("kauai", generic.MustParseDate("2025-03-20"))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "Spring Break", h.Name)

	holidays, err := s.ListGlobalHolidays(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"US"}, holidays["2025"]["Spring Break"].Regions)
}

func TestImportDocument_MergesWithStoredData(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.ImportDocument(ctx, seedDocument()))

	// GIVEN a second import that only carries a replacement for one resort
	err := s.ImportDocument(ctx, &factory.DataDocument{
		Resorts: []factory.ResortDoc{resortDoc("maui", 40)},
	})

	// THEN it validates against the stored global holidays and replaces by id
	require.NoError(t, err)
	doc, err := s.LoadDocument(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Resorts, 2)
	assert.Equal(t, factory.SchemaVersion, doc.SchemaVersion)

	m, err := s.LoadCalendar(ctx)
	require.NoError(t, err)
	p, err := m.PointsFor("maui", "Studio", calendar.SeasonKey("Standard"), generic.MustParseDate("2025-06-01"))
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(40)))
}

func TestImportDocument_InvalidWritesNothing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// GIVEN a resort whose holiday references dates nobody defines
	bad := resortDoc("lanai", 10)
	bad.Years["2025"].Holidays[0].Name = "Easter"

	err := s.ImportDocument(ctx, &factory.DataDocument{Resorts: []factory.ResortDoc{bad}})

	assert.ErrorIs(t, err, generic.ErrInvalidDocument)
	list, err := s.ListResortDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveGlobalHoliday_RejectsBadDates(t *testing.T) {
	s := newStore(t)

	err := s.SaveGlobalHoliday(context.Background(), 2025, "Easter",
		factory.GlobalHolidayDoc{StartDate: "2025-04-31", EndDate: "2025-05-02"})

	assert.ErrorIs(t, err, generic.ErrInvalidDocument)
}

// =============================================================================
// SETTINGS PROFILES
// =============================================================================

func TestProfiles(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	settings := factory.DefaultSettings()
	settings.DiscountTier = "Executive"
	settings.PreferredResortID = "kauai"

	require.NoError(t, s.SaveProfile(ctx, sqlite.ProfileRecord{ID: "p1", Name: "Owner", Settings: settings}))
	require.NoError(t, s.SaveProfile(ctx, sqlite.ProfileRecord{ID: "p2", Name: "Guest", Settings: factory.DefaultSettings()}))

	p, err := s.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Owner", p.Name)
	assert.Equal(t, "Executive", p.Settings.DiscountTier)
	assert.Equal(t, "kauai", p.Settings.PreferredResortID)
	assert.True(t, p.Settings.MaintenanceRate.Equal(decimal.RequireFromString("0.55")))

	list, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Guest", list[0].Name)

	require.NoError(t, s.DeleteProfile(ctx, "p1"))
	_, err = s.GetProfile(ctx, "p1")
	assert.ErrorIs(t, err, generic.ErrProfileNotFound)
	assert.ErrorIs(t, s.DeleteProfile(ctx, "p1"), generic.ErrProfileNotFound)
}

// =============================================================================
// QUOTES
// =============================================================================

func TestQuotes(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"q1", "q2", "q3"} {
		require.NoError(t, s.SaveQuote(ctx, sqlite.QuoteRecord{
			ID:              id,
			ResortID:        "kauai",
			RoomType:        "Studio",
			CheckIn:         generic.MustParseDate("2025-03-16"),
			Nights:          7,
			AdjustedCheckIn: generic.MustParseDate("2025-03-14"),
			AdjustedNights:  10,
			Mode:            "owner",
			TotalPoints:     decimal.NewFromInt(250),
			NetCost:         decimal.RequireFromString("137.50"),
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	q, err := s.GetQuote(ctx, "q2")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", q.AdjustedCheckIn.String())
	assert.Equal(t, 10, q.AdjustedNights)
	assert.True(t, q.NetCost.Equal(decimal.RequireFromString("137.5")))
	assert.True(t, q.CreatedAt.Equal(base.Add(time.Minute)))

	recent, err := s.ListQuotes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "q3", recent[0].ID)
	assert.Equal(t, "q2", recent[1].ID)

	_, err = s.GetQuote(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrQuoteNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestReset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.ImportDocument(ctx, seedDocument()))

	require.NoError(t, s.Reset(ctx))

	m, err := s.LoadCalendar(ctx)
	require.NoError(t, err)
	assert.Empty(t, m.Resorts())
}
