package pricing

import (
	"fmt"

	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine prices stays against a Calendar. It holds no per-call state.
type Engine struct {
	calendar calendar.Calendar
	logger   *zap.Logger
}

type Option func(*Engine)

// WithLogger sets the logger used for adjustment and skip messages.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(cal calendar.Calendar, opts ...Option) *Engine {
	e := &Engine{calendar: cal, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StayQuote is the full result of pricing one stay.
type StayQuote struct {
	Request StayRequest
	Stay    AdjustedStay
	Nights  []NightlyEntry
	Cost    CostBreakdown
}

// ComputeStay adjusts the request for holidays, prices every night and
// converts the total under the configuration.
//
// Errors: UnknownResortError, UnknownRoomTypeError, InvalidStayError,
// MissingChartDataError, or ErrInvalidConfiguration.
func (e *Engine) ComputeStay(req StayRequest, cfg Configuration) (*StayQuote, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := e.validateStay(req); err != nil {
		return nil, err
	}
	if err := e.validateRoom(req.ResortID, req.RoomType); err != nil {
		return nil, err
	}

	stay, err := e.adjust(req)
	if err != nil {
		return nil, err
	}
	return e.price(stay, req.RoomType, cfg)
}

// price runs the nightly ledger and the cost breakdown for an adjusted stay.
func (e *Engine) price(stay AdjustedStay, room calendar.RoomType, cfg Configuration) (*StayQuote, error) {
	priced := stay.Request()
	priced.RoomType = room

	nights, total, err := e.accumulate(priced, cfg.EffectiveRate())
	if err != nil {
		return nil, err
	}

	stay.Original.RoomType = room
	return &StayQuote{
		Request: stay.Original,
		Stay:    stay,
		Nights:  nights,
		Cost:    Breakdown(total, cfg),
	}, nil
}

// validateStay rejects unknown resorts, night counts outside 1..MaxNights
// and check-ins outside the resort calendar.
func (e *Engine) validateStay(req StayRequest) error {
	if _, err := e.calendar.Resort(req.ResortID); err != nil {
		return err
	}
	if req.Nights <= 0 {
		return &generic.InvalidStayError{CheckIn: req.CheckIn, Nights: req.Nights, Reason: "nights must be positive"}
	}
	if req.Nights > MaxNights {
		return &generic.InvalidStayError{CheckIn: req.CheckIn, Nights: req.Nights, Reason: fmt.Sprintf("nights must not exceed %d", MaxNights)}
	}
	if req.CheckIn.IsZero() {
		return &generic.InvalidStayError{CheckIn: req.CheckIn, Nights: req.Nights, Reason: "check-in date is required"}
	}
	ok, err := e.calendar.InOperatingRange(req.ResortID, req.CheckIn)
	if err != nil {
		return err
	}
	if !ok {
		return &generic.InvalidStayError{CheckIn: req.CheckIn, Nights: req.Nights, Reason: "check-in is outside the resort calendar"}
	}
	return nil
}

func (e *Engine) validateRoom(id calendar.ResortID, room calendar.RoomType) error {
	resort, err := e.calendar.Resort(id)
	if err != nil {
		return err
	}
	if !resort.HasRoomType(room) {
		return &generic.UnknownRoomTypeError{ResortID: string(id), RoomType: string(room)}
	}
	return nil
}
