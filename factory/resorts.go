/*
Package factory converts resort and settings documents into engine types.

PURPOSE:
  Resort calendars and owner settings are edited as documents, outside the
  code. The factory decodes them (JSON or YAML), resolves holiday dates
  from the shared holiday calendar, and builds a validated calendar.Model
  or pricing.Configuration.

RESORT DOCUMENT:
  {
    "schema_version": "2.0.0",
    "global_holidays": {
      "2025": {
        "Presidents Day": {"start_date": "2025-02-14", "end_date": "2025-02-21", "type": "federal", "regions": ["US"]}
      }
    },
    "resorts": [{
      "id": "kauai-beach",
      "display_name": "Kauai Beach Club",
      "code": "KBC",
      "resort_name": "Kauai Beach Club Resort",
      "timezone": "Pacific/Honolulu",
      "address": "Lihue, HI",
      "room_types": ["Studio", "1BR"],
      "years": {
        "2025": {
          "seasons": [{
            "name": "High Season",
            "periods": [{"start": "2025-01-01", "end": "2025-04-30"}],
            "day_categories": {
              "sun_thu": {"day_pattern": ["Sun", "Mon", "Tue", "Wed", "Thu"], "room_points": {"Studio": 150}},
              "fri_sat": {"day_pattern": ["Fri", "Sat"], "room_points": {"Studio": 200}}
            }
          }],
          "holidays": [{
            "name": "Presidents Day",
            "global_reference": "Presidents Day",
            "min_nights": 7,
            "room_points": {"Studio": 1400}
          }]
        }
      }
    }]
  }

DEFAULTS:
  - holiday dates come from global_holidays[year][global_reference or name]
    unless the holiday carries its own start_date/end_date
  - min_nights 0 (or absent) means the whole block
  - overrides_season defaults to true
  - room_types absent: derived from the point charts

USAGE:
  f := factory.NewResortFactory()
  model, err := f.ParseResorts(data)

SEE ALSO:
  - calendar/types.go: the built model and holiday night attribution
  - settings.go: owner/renter settings documents
*/
package factory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/generic"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is written by EncodeDocument.
const SchemaVersion = "2.0.0"

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// DataDocument is the top-level resort data file.
type DataDocument struct {
	SchemaVersion  string         `json:"schema_version" yaml:"schema_version"`
	GlobalHolidays GlobalHolidays `json:"global_holidays,omitempty" yaml:"global_holidays,omitempty"`
	Resorts        []ResortDoc    `json:"resorts" yaml:"resorts"`
}

// GlobalHolidays maps year -> holiday name -> dates.
type GlobalHolidays map[string]map[string]GlobalHolidayDoc

type GlobalHolidayDoc struct {
	StartDate string   `json:"start_date" yaml:"start_date"`
	EndDate   string   `json:"end_date" yaml:"end_date"`
	Type      string   `json:"type,omitempty" yaml:"type,omitempty"`
	Regions   []string `json:"regions,omitempty" yaml:"regions,omitempty"`
}

type ResortDoc struct {
	ID          string             `json:"id" yaml:"id"`
	DisplayName string             `json:"display_name" yaml:"display_name"`
	Code        string             `json:"code,omitempty" yaml:"code,omitempty"`
	ResortName  string             `json:"resort_name,omitempty" yaml:"resort_name,omitempty"`
	Timezone    string             `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Address     string             `json:"address,omitempty" yaml:"address,omitempty"`
	RoomTypes   []string           `json:"room_types,omitempty" yaml:"room_types,omitempty"`
	Years       map[string]YearDoc `json:"years" yaml:"years"`
}

type YearDoc struct {
	Seasons  []SeasonDoc  `json:"seasons" yaml:"seasons"`
	Holidays []HolidayDoc `json:"holidays,omitempty" yaml:"holidays,omitempty"`
}

type SeasonDoc struct {
	Name          string                    `json:"name" yaml:"name"`
	Periods       []PeriodDoc               `json:"periods" yaml:"periods"`
	DayCategories map[string]DayCategoryDoc `json:"day_categories" yaml:"day_categories"`
}

type PeriodDoc struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type DayCategoryDoc struct {
	DayPattern []string                   `json:"day_pattern" yaml:"day_pattern"`
	RoomPoints map[string]decimal.Decimal `json:"room_points" yaml:"room_points"`
}

type HolidayDoc struct {
	Name            string                     `json:"name" yaml:"name"`
	GlobalReference string                     `json:"global_reference,omitempty" yaml:"global_reference,omitempty"`
	StartDate       string                     `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate         string                     `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	MinNights       *int                       `json:"min_nights,omitempty" yaml:"min_nights,omitempty"`
	OverridesSeason *bool                      `json:"overrides_season,omitempty" yaml:"overrides_season,omitempty"`
	RoomPoints      map[string]decimal.Decimal `json:"room_points" yaml:"room_points"`
}

// Reference is the global holiday this entry takes its dates from.
func (h HolidayDoc) Reference() string {
	if h.GlobalReference != "" {
		return h.GlobalReference
	}
	return h.Name
}

// =============================================================================
// RESORT FACTORY
// =============================================================================

// ResortFactory converts resort documents to a calendar.Model.
type ResortFactory struct{}

func NewResortFactory() *ResortFactory {
	return &ResortFactory{}
}

// DecodeDocument parses a JSON resort data file.
func (f *ResortFactory) DecodeDocument(data []byte) (*DataDocument, error) {
	var doc DataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &generic.DocumentError{Path: "$", Message: fmt.Sprintf("failed to parse JSON: %v", err)}
	}
	return &doc, nil
}

// DecodeDocumentYAML parses the same schema from YAML. Year keys must be
// quoted ("2025") so they decode as strings.
func (f *ResortFactory) DecodeDocumentYAML(data []byte) (*DataDocument, error) {
	var doc DataDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &generic.DocumentError{Path: "$", Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}
	return &doc, nil
}

// EncodeDocument renders a document as indented JSON.
func (f *ResortFactory) EncodeDocument(doc *DataDocument) ([]byte, error) {
	if doc.SchemaVersion == "" {
		doc.SchemaVersion = SchemaVersion
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ParseResorts decodes a JSON document and builds the model.
func (f *ResortFactory) ParseResorts(data []byte) (*calendar.Model, error) {
	doc, err := f.DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return f.Build(doc)
}

// ParseResortsYAML decodes a YAML document and builds the model.
func (f *ResortFactory) ParseResortsYAML(data []byte) (*calendar.Model, error) {
	doc, err := f.DecodeDocumentYAML(data)
	if err != nil {
		return nil, err
	}
	return f.Build(doc)
}

// Build converts every resort of the document and validates the result.
func (f *ResortFactory) Build(doc *DataDocument) (*calendar.Model, error) {
	resorts := make([]*calendar.Resort, 0, len(doc.Resorts))
	for i, rd := range doc.Resorts {
		r, err := f.FromDoc(rd, doc.GlobalHolidays)
		if err != nil {
			return nil, fmt.Errorf("resorts[%d]: %w", i, err)
		}
		resorts = append(resorts, r)
	}
	return calendar.NewModel(resorts...)
}

// FromDoc converts one resort. The result is validated by calendar.NewModel.
func (f *ResortFactory) FromDoc(rd ResortDoc, globals GlobalHolidays) (*calendar.Resort, error) {
	if rd.ID == "" {
		return nil, &generic.DocumentError{Path: "id", Message: "resort id is required"}
	}

	r := &calendar.Resort{
		ID:          calendar.ResortID(rd.ID),
		DisplayName: rd.DisplayName,
		Code:        rd.Code,
		FullName:    rd.ResortName,
		Timezone:    rd.Timezone,
		Address:     rd.Address,
		Years:       make(map[int]*calendar.Year, len(rd.Years)),
	}
	if r.DisplayName == "" {
		r.DisplayName = rd.ID
	}
	for _, rt := range rd.RoomTypes {
		r.RoomTypes = append(r.RoomTypes, calendar.RoomType(rt))
	}

	for key, yd := range rd.Years {
		path := fmt.Sprintf("%s.years.%s", rd.ID, key)
		year, err := strconv.Atoi(key)
		if err != nil {
			return nil, &generic.DocumentError{Path: path, Message: "year key must be a number"}
		}
		y, err := parseYear(path, year, yd, globals)
		if err != nil {
			return nil, err
		}
		r.Years[year] = y
	}
	return r, nil
}

func parseYear(path string, year int, yd YearDoc, globals GlobalHolidays) (*calendar.Year, error) {
	y := &calendar.Year{Year: year}

	for si, sd := range yd.Seasons {
		season, err := parseSeason(fmt.Sprintf("%s.seasons[%d]", path, si), sd)
		if err != nil {
			return nil, err
		}
		y.Seasons = append(y.Seasons, season)
	}

	for hi, hd := range yd.Holidays {
		h, err := parseHoliday(fmt.Sprintf("%s.holidays[%d]", path, hi), year, hd, globals)
		if err != nil {
			return nil, err
		}
		y.Holidays = append(y.Holidays, h)
	}
	return y, nil
}

func parseSeason(path string, sd SeasonDoc) (calendar.Season, error) {
	if sd.Name == "" {
		return calendar.Season{}, &generic.DocumentError{Path: path, Message: "season name is required"}
	}
	s := calendar.Season{Category: calendar.SeasonCategory(sd.Name)}

	for pi, pd := range sd.Periods {
		p, err := parsePeriod(fmt.Sprintf("%s.periods[%d]", path, pi), pd.Start, pd.End)
		if err != nil {
			return s, err
		}
		s.Periods = append(s.Periods, p)
	}

	// Map order is lost in decoding; categories are matched by key order.
	keys := make([]string, 0, len(sd.DayCategories))
	for k := range sd.DayCategories {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		cd := sd.DayCategories[k]
		pts, err := roomPoints(path+".day_categories."+k, cd.RoomPoints)
		if err != nil {
			return s, err
		}
		dc := calendar.DayCategory{Name: k, Points: pts}
		for _, d := range cd.DayPattern {
			wd, err := generic.ParseWeekday(d)
			if err != nil {
				return s, &generic.DocumentError{Path: path + ".day_categories." + k, Message: err.Error()}
			}
			dc.Days = append(dc.Days, wd)
		}
		s.DayCategories = append(s.DayCategories, dc)
	}
	return s, nil
}

func parseHoliday(path string, year int, hd HolidayDoc, globals GlobalHolidays) (calendar.HolidayPeriod, error) {
	pts, err := roomPoints(path, hd.RoomPoints)
	if err != nil {
		return calendar.HolidayPeriod{}, err
	}
	h := calendar.HolidayPeriod{
		Name:            hd.Name,
		OverridesSeason: true,
		Points:          pts,
	}
	if h.Name == "" {
		h.Name = hd.GlobalReference
	}
	if h.Name == "" {
		return h, &generic.DocumentError{Path: path, Message: "holiday name is required"}
	}
	if hd.MinNights != nil {
		h.MinNights = *hd.MinNights
	}
	if hd.OverridesSeason != nil {
		h.OverridesSeason = *hd.OverridesSeason
	}

	start, end := hd.StartDate, hd.EndDate
	if start == "" || end == "" {
		g, ok := globals[strconv.Itoa(year)][hd.Reference()]
		if !ok {
			return h, &generic.DocumentError{
				Path:    path,
				Message: fmt.Sprintf("no dates for holiday %q in global holidays %d", hd.Reference(), year),
			}
		}
		start, end = g.StartDate, g.EndDate
	}

	p, err := parsePeriod(path, start, end)
	if err != nil {
		return h, err
	}
	h.Period = p
	return h, nil
}

func parsePeriod(path, start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, &generic.DocumentError{Path: path + ".start", Message: err.Error()}
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, &generic.DocumentError{Path: path + ".end", Message: err.Error()}
	}
	return generic.Period{Start: s, End: e}, nil
}

func roomPoints(path string, in map[string]decimal.Decimal) (map[calendar.RoomType]decimal.Decimal, error) {
	out := make(map[calendar.RoomType]decimal.Decimal, len(in))
	for k, v := range in {
		if v.IsNegative() {
			return nil, &generic.DocumentError{
				Path:    path + ".room_points." + k,
				Message: fmt.Sprintf("points must not be negative, got %s", v),
			}
		}
		out[calendar.RoomType(k)] = v
	}
	return out, nil
}
