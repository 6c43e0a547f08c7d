package calendar

import (
	"sort"
	"strings"
	"time"
)

// =============================================================================
// REGIONS - Timezone labels and west-to-east resort ordering
// =============================================================================

// timezoneOrder is the explicit west-to-east priority for common resort zones.
var timezoneOrder = []string{
	"Pacific/Honolulu",
	"America/Los_Angeles",
	"America/Denver",
	"America/Chicago",
	"America/New_York",
	"America/Puerto_Rico",
	"Europe/London",
	"Europe/Paris",
	"Europe/Madrid",
	"Asia/Bangkok",
	"Asia/Singapore",
	"Australia/Sydney",
}

var regionLabels = map[string]string{
	"Pacific/Honolulu":    "Hawaii",
	"US/Hawaii":           "Hawaii",
	"America/Anchorage":   "Alaska",
	"US/Alaska":           "Alaska",
	"America/Los_Angeles": "West Coast",
	"US/Pacific":          "West Coast",
	"America/Denver":      "Mountain",
	"US/Mountain":         "Mountain",
	"America/Chicago":     "Central",
	"US/Central":          "Central",
	"America/New_York":    "East Coast",
	"US/Eastern":          "East Coast",
	"America/Aruba":       "Caribbean",
	"America/St_Thomas":   "Caribbean",
	"Asia/Denpasar":       "Bali",
	"Europe/London":       "UK",
	"Europe/Paris":        "France",
	"Europe/Madrid":       "Spain",
	"Asia/Bangkok":        "Thailand",
	"Australia/Sydney":    "Australia",
}

const unknownPriority = 999

// offsetReference avoids DST ambiguity when comparing zone offsets.
var offsetReference = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// RegionLabel maps an IANA timezone to a short region name. Unmapped zones
// fall back to the last path component ("Europe/Lisbon" -> "Lisbon").
func RegionLabel(tz string) string {
	if tz == "" {
		return "Unknown"
	}
	if label, ok := regionLabels[tz]; ok {
		return label
	}
	if i := strings.LastIndex(tz, "/"); i >= 0 {
		return tz[i+1:]
	}
	return tz
}

func timezonePriority(tz string) int {
	for i, z := range timezoneOrder {
		if z == tz {
			return i
		}
	}
	return unknownPriority
}

// utcOffset returns the zone's offset in seconds; unknown zones count as UTC.
func utcOffset(tz string) int {
	if tz == "" {
		return 0
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0
	}
	_, off := offsetReference.In(loc).Zone()
	return off
}

// ResortsWestToEast orders resorts by timezone priority, then UTC offset,
// then display name.
func (m *Model) ResortsWestToEast() []*Resort {
	out := m.Resorts()
	type key struct {
		priority int
		offset   int
	}
	keys := make(map[ResortID]key, len(out))
	for _, r := range out {
		keys[r.ID] = key{priority: timezonePriority(r.Timezone), offset: utcOffset(r.Timezone)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := keys[out[i].ID], keys[out[j].ID]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		if a.offset != b.offset {
			return a.offset < b.offset
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}
