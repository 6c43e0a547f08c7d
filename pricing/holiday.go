package pricing

import (
	"fmt"
	"strings"

	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// HOLIDAY ADJUSTMENT
// =============================================================================
//
// A stay touching a holiday block must satisfy the block's minimum stay:
// it has to check in on or before the block's first night, check out on or
// after the block's last morning, and last at least RequiredNights.
//
// The window only ever moves earlier and grows. Extending into a second
// holiday triggers that holiday's rule as well, so the scan repeats until
// every touched holiday is satisfied. A satisfied holiday stays satisfied as
// the window grows, which bounds the loop by the number of holidays.

// AdjustForHolidays applies holiday minimum-stay rules to the request.
// Requests that already satisfy every touched holiday come back unchanged.
func (e *Engine) AdjustForHolidays(req StayRequest) (AdjustedStay, error) {
	if err := e.validateStay(req); err != nil {
		return AdjustedStay{}, err
	}
	return e.adjust(req)
}

func (e *Engine) adjust(req StayRequest) (AdjustedStay, error) {
	resort, err := e.calendar.Resort(req.ResortID)
	if err != nil {
		return AdjustedStay{}, err
	}
	holidays := resort.Holidays()

	checkIn, checkOut := req.CheckIn, req.CheckOut()
	var triggered []string

	for range holidays {
		h := firstUnsatisfied(holidays, checkIn, checkOut)
		if h == nil {
			break
		}
		checkIn = generic.MinTimePoint(checkIn, h.FirstNight())
		checkOut = generic.MaxTimePoint(checkOut, h.CheckOut())
		checkOut = generic.MaxTimePoint(checkOut, checkIn.AddDays(h.RequiredNights()))
		triggered = append(triggered, h.Name)
	}

	nights := generic.DaysBetween(checkIn, checkOut)
	if nights > MaxNights {
		return AdjustedStay{}, &generic.InvalidStayError{
			CheckIn: req.CheckIn,
			Nights:  req.Nights,
			Reason: fmt.Sprintf("holiday minimum stay for %s extends the stay to %d nights, over the %d night limit",
				strings.Join(triggered, ", "), nights, MaxNights),
		}
	}
	adjusted := AdjustedStay{
		Original: req,
		CheckIn:  checkIn,
		Nights:   nights,
		Changed:  !checkIn.Equal(req.CheckIn) || nights != req.Nights,
	}

	if !checkIn.Equal(req.CheckIn) {
		adjusted.Reasons = append(adjusted.Reasons, Reason{
			Kind:     ReasonCheckInMoved,
			Holidays: triggered,
			Message: fmt.Sprintf("check-in moved from %s to %s for %s",
				req.CheckIn.Short(), checkIn.Short(), strings.Join(triggered, ", ")),
		})
	}
	if nights != req.Nights {
		adjusted.Reasons = append(adjusted.Reasons, Reason{
			Kind:     ReasonNightsExtended,
			Holidays: triggered,
			Message: fmt.Sprintf("stay extended from %d to %d nights for %s",
				req.Nights, nights, strings.Join(triggered, ", ")),
		})
	}

	if adjusted.Changed {
		e.logger.Debug("stay adjusted for holiday",
			zap.String("resort_id", string(req.ResortID)),
			zap.Stringer("requested_check_in", req.CheckIn),
			zap.Stringer("adjusted_check_in", checkIn),
			zap.Int("requested_nights", req.Nights),
			zap.Int("adjusted_nights", nights),
			zap.Strings("holidays", triggered),
		)
	}
	return adjusted, nil
}

// firstUnsatisfied returns the earliest holiday touched by the window
// [checkIn, checkOut) whose minimum stay is not met. holidays is sorted by start.
func firstUnsatisfied(holidays []*calendar.HolidayPeriod, checkIn, checkOut generic.TimePoint) *calendar.HolidayPeriod {
	window := generic.Period{Start: checkIn, End: checkOut.AddDays(-1)}
	for _, h := range holidays {
		if h.Nights().Start.After(window.End) {
			return nil
		}
		if !h.Nights().Overlaps(window) {
			continue
		}
		if !satisfies(h, checkIn, checkOut) {
			return h
		}
	}
	return nil
}

func satisfies(h *calendar.HolidayPeriod, checkIn, checkOut generic.TimePoint) bool {
	return checkIn.BeforeOrEqual(h.FirstNight()) &&
		checkOut.AfterOrEqual(h.CheckOut()) &&
		generic.DaysBetween(checkIn, checkOut) >= h.RequiredNights()
}
