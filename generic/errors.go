/*
errors.go - Centralized error types for the stay engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Calendar, pricing, factory and store code return these; the API maps
  them to HTTP statuses with the helpers at the bottom of this file.

ERROR CATEGORIES:
  1. Reference data errors - unknown resort, unknown room type
  2. Request errors - invalid stay (nights <= 0, check-in outside calendar)
  3. Chart errors - missing pricing for a night
  4. Document errors - overlapping periods, malformed resort data
  5. Configuration errors - unknown mode or discount policy, negative rates

PROPAGATION:
  Reference data and request errors are fatal to a single quote and are
  returned unmodified. MissingChartDataError is fatal for the requested
  room type but skipped (and logged) by the all-room-types aggregator.
  No error is retryable: every failure is deterministic for its inputs.

USAGE:
  if errors.Is(err, generic.ErrUnknownRoomType) { ... }

  var missing *generic.MissingChartDataError
  if errors.As(err, &missing) {
      log.Printf("no chart for %s on %s", missing.RoomType, missing.Date)
  }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownResort is returned when a resort id is not configured.
	ErrUnknownResort = errors.New("unknown resort")

	// ErrUnknownRoomType is returned when a room type has no chart entry at all
	// for the resort.
	ErrUnknownRoomType = errors.New("unknown room type")

	// ErrInvalidStay is returned for nights <= 0 or a check-in outside every
	// configured calendar year.
	ErrInvalidStay = errors.New("invalid stay")

	// ErrMissingChartData is returned when a known room type has no price for
	// some night of the stay.
	ErrMissingChartData = errors.New("missing chart data")

	// ErrOverlappingHolidays is returned at load time when two holiday
	// periods of one resort share a night.
	ErrOverlappingHolidays = errors.New("overlapping holiday periods")

	// ErrOverlappingSeasons is returned at load time when two season periods
	// of one resort share a day.
	ErrOverlappingSeasons = errors.New("overlapping season periods")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidDocument is returned when resort or settings data cannot be parsed.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidConfiguration is returned when rates or discount parameters
	// are unusable (unknown mode or policy, negative rate).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrProfileNotFound is returned when a saved settings profile doesn't exist.
	ErrProfileNotFound = errors.New("settings profile not found")

	// ErrQuoteNotFound is returned when a recorded quote id doesn't exist.
	ErrQuoteNotFound = errors.New("quote not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownResortError names the resort that was not found.
type UnknownResortError struct {
	ResortID string
}

func (e *UnknownResortError) Error() string {
	return fmt.Sprintf("unknown resort: %q", e.ResortID)
}

func (e *UnknownResortError) Unwrap() error { return ErrUnknownResort }

// UnknownRoomTypeError names the room type absent from a resort's chart.
type UnknownRoomTypeError struct {
	ResortID string
	RoomType string
}

func (e *UnknownRoomTypeError) Error() string {
	return fmt.Sprintf("unknown room type %q for resort %q", e.RoomType, e.ResortID)
}

func (e *UnknownRoomTypeError) Unwrap() error { return ErrUnknownRoomType }

// InvalidStayError explains why a stay request was rejected.
type InvalidStayError struct {
	CheckIn TimePoint
	Nights  int
	Reason  string
}

func (e *InvalidStayError) Error() string {
	return fmt.Sprintf("invalid stay (check-in %s, %d nights): %s", e.CheckIn, e.Nights, e.Reason)
}

func (e *InvalidStayError) Unwrap() error { return ErrInvalidStay }

// MissingChartDataError identifies the first night that could not be priced.
type MissingChartDataError struct {
	ResortID string
	RoomType string
	Date     TimePoint
	Category string // season or holiday name, empty when no season covers the date
}

func (e *MissingChartDataError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("no season defined for resort %q on %s", e.ResortID, e.Date)
	}
	return fmt.Sprintf("no points for room type %q in %q on %s (resort %q)",
		e.RoomType, e.Category, e.Date, e.ResortID)
}

func (e *MissingChartDataError) Unwrap() error { return ErrMissingChartData }

// OverlapError reports two periods of one resort that share a day.
type OverlapError struct {
	ResortID string
	First    string
	Second   string
	Kind     error // ErrOverlappingHolidays or ErrOverlappingSeasons
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("resort %q: %v: %s and %s", e.ResortID, e.Kind, e.First, e.Second)
}

func (e *OverlapError) Unwrap() error { return e.Kind }

// DocumentError points at the offending location in a resort or settings document.
type DocumentError struct {
	Path    string // e.g. "resorts[2].years.2025.seasons[0].periods[1]"
	Message string
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("invalid document at %s: %s", e.Path, e.Message)
}

func (e *DocumentError) Unwrap() error { return ErrInvalidDocument }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidStay) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrOverlappingHolidays) ||
		errors.Is(err, ErrOverlappingSeasons)
}

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownResort) ||
		errors.Is(err, ErrUnknownRoomType) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrQuoteNotFound)
}
