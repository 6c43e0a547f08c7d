/*
Package pricing computes what a stay costs.

PURPOSE:
  Turns a (resort, room type, check-in, nights) request into points and
  dollars. The engine is a pure function of the Calendar and the
  Configuration passed in: it keeps no state between calls and is safe for
  concurrent use as long as neither input is mutated during a call.

PIPELINE:
  StayRequest
    -> holiday adjustment  (holiday.go)   AdjustedStay
    -> nightly ledger      (nightly.go)   []NightlyEntry
    -> cost breakdown      (cost.go)      CostBreakdown
  The aggregator (compare.go) runs the pipeline once per room type.

SEE ALSO:
  - calendar: season/holiday lookups and night attribution
  - config.go: modes, discount policies, owner rates
*/
package pricing

import (
	"fmt"

	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/generic"
)

// =============================================================================
// STAY REQUEST
// =============================================================================

// StayRequest is one quote request. It is never mutated: adjustment returns
// a new value.
type StayRequest struct {
	ResortID calendar.ResortID
	RoomType calendar.RoomType
	CheckIn  generic.TimePoint
	Nights   int
}

// MaxNights bounds both the requested stay and the stay after holiday
// adjustment, so an adjusted stay is always a valid request.
const MaxNights = 60

// CheckOut is the morning after the last night.
func (r StayRequest) CheckOut() generic.TimePoint {
	return r.CheckIn.AddDays(r.Nights)
}

// NightPeriod is the closed range of nights slept.
func (r StayRequest) NightPeriod() generic.Period {
	return generic.NightsOf(r.CheckIn, r.Nights)
}

// =============================================================================
// ADJUSTED STAY
// =============================================================================

type ReasonKind string

const (
	ReasonCheckInMoved   ReasonKind = "check_in_moved"
	ReasonNightsExtended ReasonKind = "nights_extended"
)

// Reason describes one change made to a request, ready for display.
type Reason struct {
	Kind     ReasonKind
	Holidays []string
	Message  string
}

// AdjustedStay is the request after holiday minimum-stay rules were applied.
type AdjustedStay struct {
	Original StayRequest
	CheckIn  generic.TimePoint
	Nights   int
	Changed  bool
	Reasons  []Reason
}

// Request returns the adjusted stay as a new request for the same room.
func (a AdjustedStay) Request() StayRequest {
	return StayRequest{
		ResortID: a.Original.ResortID,
		RoomType: a.Original.RoomType,
		CheckIn:  a.CheckIn,
		Nights:   a.Nights,
	}
}

func (a AdjustedStay) CheckOut() generic.TimePoint {
	return a.CheckIn.AddDays(a.Nights)
}

// Summary renders the adjusted window ("Mar 14 - Mar 23").
func (a AdjustedStay) Summary() string {
	nights := a.Request().NightPeriod()
	return fmt.Sprintf("%s - %s", nights.Start.Short(), nights.End.Short())
}
