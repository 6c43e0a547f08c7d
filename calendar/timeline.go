package calendar

import (
	"sort"
	"strconv"
	"strings"

	"github.com/warp/stay-engine/generic"
)

// =============================================================================
// TIMELINE - Season and holiday bars for a resort year
// =============================================================================

// Bucket is the display tier of a season.
type Bucket string

const (
	BucketPeak    Bucket = "Peak"
	BucketHigh    Bucket = "High"
	BucketMid     Bucket = "Mid"
	BucketLow     Bucket = "Low"
	BucketHoliday Bucket = "Holiday"
	BucketNoData  Bucket = "No Data"
)

// SeasonBucket maps an arbitrary season name to a display tier by keyword.
func SeasonBucket(name string) Bucket {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(n, "peak"):
		return BucketPeak
	case strings.Contains(n, "high"):
		return BucketHigh
	case strings.Contains(n, "mid"), strings.Contains(n, "shoulder"):
		return BucketMid
	case strings.Contains(n, "low"):
		return BucketLow
	default:
		return BucketNoData
	}
}

// TimelineBar is one row of a resort's yearly calendar.
type TimelineBar struct {
	Label  string
	Period generic.Period
	Bucket Bucket
}

// Timeline returns the season periods then the holidays of one year, each
// group ordered by start. Seasons with several periods get "#n" suffixes.
func (m *Model) Timeline(id ResortID, year int) ([]TimelineBar, error) {
	r, err := m.Resort(id)
	if err != nil {
		return nil, err
	}
	y, ok := r.Years[year]
	if !ok {
		return nil, nil
	}

	var seasons []TimelineBar
	for _, s := range y.Seasons {
		for i, p := range s.Periods {
			label := string(s.Category)
			if len(s.Periods) > 1 {
				label += " #" + strconv.Itoa(i+1)
			}
			seasons = append(seasons, TimelineBar{Label: label, Period: p, Bucket: SeasonBucket(string(s.Category))})
		}
	}
	sort.SliceStable(seasons, func(i, j int) bool { return seasons[i].Period.Start.Before(seasons[j].Period.Start) })

	holidays := make([]TimelineBar, 0, len(y.Holidays))
	for _, h := range y.Holidays {
		holidays = append(holidays, TimelineBar{Label: h.Name, Period: h.Period, Bucket: BucketHoliday})
	}
	sort.SliceStable(holidays, func(i, j int) bool { return holidays[i].Period.Start.Before(holidays[j].Period.Start) })

	return append(seasons, holidays...), nil
}
