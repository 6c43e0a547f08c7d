/*
handlers.go - HTTP API handlers for the stay cost engine

PURPOSE:
  Exposes the pricing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the calendar and pricing packages.

ENDPOINTS:
  Resorts:
    GET    /api/resorts                        List resorts, west to east
    GET    /api/resorts/{id}                   Get resort details
    DELETE /api/resorts/{id}                   Remove a resort
    POST   /api/resorts/import                 Import a data document (JSON or YAML)
    GET    /api/resorts/{id}/room-types        Room types (?date= adds the night's chart)
    GET    /api/resorts/{id}/timeline/{year}   Season and holiday bars
    GET    /api/export                         Stored data document

  Quotes:
    POST   /api/quotes                         Price one stay
    POST   /api/quotes/all-room-types          Price every room type
    POST   /api/quotes/compare                 Compare chosen room types
    GET    /api/quotes                         Recent quotes (?limit=)
    GET    /api/quotes/{id}                    One stored quote

  Profiles:
    GET    /api/profiles                       List saved settings
    POST   /api/profiles                       Save settings
    GET    /api/profiles/{id}                  Get saved settings
    DELETE /api/profiles/{id}                  Delete saved settings

ARCHITECTURE:
  Handler holds the store and the active calendar. The calendar is rebuilt
  from the store after every import or delete and swapped in together with
  a new engine; requests in flight keep the engine they started with.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid stay, configuration or document
  - 404: Unknown resort, room type, profile or quote
  - 422: Missing chart data for a night
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/stay-engine/calendar"
	"github.com/warp/stay-engine/factory"
	"github.com/warp/stay-engine/generic"
	"github.com/warp/stay-engine/logging"
	"github.com/warp/stay-engine/metrics"
	"github.com/warp/stay-engine/pricing"
	"github.com/warp/stay-engine/store/sqlite"
	"go.uber.org/zap"
)

const maxDocumentBytes = 16 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.ResortFactory

	// Defaults price quotes that carry no configuration of their own.
	Defaults factory.SettingsDoc

	logger  *zap.Logger
	metrics *metrics.Collector

	mu     sync.RWMutex
	model  *calendar.Model
	engine *pricing.Engine
}

// NewHandler creates a handler with an empty calendar. Call Reload to load
// the stored resorts.
func NewHandler(store *sqlite.Store, logger *zap.Logger, m *metrics.Collector) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	h := &Handler{
		Store:    store,
		Factory:  factory.NewResortFactory(),
		Defaults: factory.DefaultSettings(),
		logger:   logger,
		metrics:  m,
	}
	empty, _ := calendar.NewModel()
	h.swap(empty)
	return h
}

// Reload rebuilds the calendar from the store.
func (h *Handler) Reload(ctx context.Context) error {
	model, err := h.Store.LoadCalendar(ctx)
	if err != nil {
		return fmt.Errorf("failed to load calendar: %w", err)
	}
	h.swap(model)
	h.logger.Info("calendar loaded", zap.Int("resorts", len(model.Resorts())))
	return nil
}

func (h *Handler) swap(model *calendar.Model) {
	engine := pricing.NewEngine(model, pricing.WithLogger(h.logger))

	h.mu.Lock()
	h.model = model
	h.engine = engine
	h.mu.Unlock()

	h.metrics.SetResorts(len(model.Resorts()))
}

func (h *Handler) current() (*calendar.Model, *pricing.Engine) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.model, h.engine
}

// Health reports database reachability and the loaded resort count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	model, _ := h.current()
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Resorts: len(model.Resorts())})
}

// =============================================================================
// RESORT HANDLERS
// =============================================================================

// ListResorts returns all resorts ordered west to east.
func (h *Handler) ListResorts(w http.ResponseWriter, r *http.Request) {
	model, _ := h.current()

	resorts := model.ResortsWestToEast()
	dtos := make([]ResortDTO, len(resorts))
	for i, res := range resorts {
		dtos[i] = toResortDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetResort returns a single resort.
func (h *Handler) GetResort(w http.ResponseWriter, r *http.Request) {
	model, _ := h.current()

	res, err := model.Resort(calendar.ResortID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResortDTO(res))
}

// DeleteResort removes a resort and reloads the calendar.
func (h *Handler) DeleteResort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteResortDocument(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Reload(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ImportResorts stores a data document and reloads the calendar. The body
// is YAML when the Content-Type says so, JSON otherwise.
func (h *Handler) ImportResorts(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	var doc *factory.DataDocument
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		doc, err = h.Factory.DecodeDocumentYAML(body)
	} else {
		doc, err = h.Factory.DecodeDocument(body)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Store.ImportDocument(r.Context(), doc); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Reload(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}

	model, _ := h.current()
	logging.FromContext(r.Context(), h.logger).Info("resorts imported",
		zap.Int("imported", len(doc.Resorts)),
		zap.Int("resorts", len(model.Resorts())),
	)
	writeJSON(w, http.StatusCreated, ImportResultDTO{Imported: len(doc.Resorts), Resorts: len(model.Resorts())})
}

// ExportResorts returns the stored data document.
func (h *Handler) ExportResorts(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.LoadDocument(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.Factory.EncodeDocument(doc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// GetRoomTypes lists a resort's room types. With ?date=YYYY-MM-DD each row
// carries the chart and points of that night; rooms without chart data for
// the night are listed bare.
func (h *Handler) GetRoomTypes(w http.ResponseWriter, r *http.Request) {
	model, engine := h.current()
	id := calendar.ResortID(chi.URLParam(r, "id"))

	rooms, err := model.RoomTypes(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var night generic.TimePoint
	if q := r.URL.Query().Get("date"); q != "" {
		night, err = generic.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	dtos := make([]RoomTypeDTO, 0, len(rooms))
	for _, room := range rooms {
		dto := RoomTypeDTO{RoomType: string(room)}
		if !night.IsZero() {
			entry, err := engine.PriceNight(id, room, night)
			switch {
			case errors.Is(err, generic.ErrMissingChartData):
			case err != nil:
				h.fail(w, r, err)
				return
			default:
				dto.Chart = entry.Key.String()
				dto.Holiday = entry.Holiday
				dto.Points = pointsString(entry.Points)
			}
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTimeline returns the season and holiday bars of a resort year.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	model, _ := h.current()

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	bars, err := model.Timeline(calendar.ResortID(chi.URLParam(r, "id")), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dtos := make([]TimelineBarDTO, len(bars))
	for i, b := range bars {
		dtos[i] = TimelineBarDTO{
			Label:  b.Label,
			Start:  b.Period.Start.String(),
			End:    b.Period.End.String(),
			Bucket: string(b.Bucket),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// QUOTE HANDLERS
// =============================================================================

// CreateQuote prices one stay and records it.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	stayReq, cfg, err := h.prepare(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_, engine := h.current()

	q, err := engine.ComputeStay(stayReq, cfg)
	if err != nil {
		h.metrics.RecordQuote(string(cfg.Mode), errorCode(err))
		h.fail(w, r, err)
		return
	}
	h.metrics.RecordQuote(string(cfg.Mode), "ok")
	h.metrics.RecordStay(q.Stay.Nights, reasonKinds(q.Stay.Reasons))

	rec := sqlite.QuoteRecord{
		ID:              uuid.NewString(),
		ResortID:        string(q.Request.ResortID),
		RoomType:        string(q.Request.RoomType),
		CheckIn:         q.Request.CheckIn,
		Nights:          q.Request.Nights,
		AdjustedCheckIn: q.Stay.CheckIn,
		AdjustedNights:  q.Stay.Nights,
		Mode:            string(q.Cost.Mode),
		TotalPoints:     q.Cost.TotalPoints.Value,
		NetCost:         q.Cost.NetCost.Value,
	}
	if err := h.Store.SaveQuote(r.Context(), rec); err != nil {
		h.fail(w, r, err)
		return
	}

	logging.FromContext(r.Context(), h.logger).Info("quote computed",
		zap.String("quote_id", rec.ID),
		zap.String("resort_id", rec.ResortID),
		zap.String("room_type", rec.RoomType),
		zap.String("stay", q.Stay.Summary()),
		zap.Bool("adjusted", q.Stay.Changed),
		zap.String("net_cost", money(q.Cost.NetCost)),
	)

	writeJSON(w, http.StatusCreated, QuoteDTO{
		ID:        rec.ID,
		Requested: toRequestedDTO(q.Request),
		Stay:      toStayDTO(q.Stay),
		Nights:    toNightDTOs(q.Nights),
		Cost:      toCostDTO(q.Cost),
	})
}

// QuoteAllRoomTypes prices the stay for every room type of the resort.
func (h *Handler) QuoteAllRoomTypes(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	stayReq, cfg, err := h.prepare(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	model, engine := h.current()

	rows, err := engine.ComputeAllRoomTypes(stayReq.ResortID, stayReq.CheckIn, stayReq.Nights, cfg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stay, err := engine.AdjustForHolidays(stayReq)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rooms, err := model.RoomTypes(stayReq.ResortID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dto := AllRoomTypesDTO{
		Stay:    toStayDTO(stay),
		Rooms:   make([]RoomTypeSummaryDTO, len(rows)),
		Skipped: []string{},
	}
	priced := make(map[calendar.RoomType]bool, len(rows))
	for i, row := range rows {
		priced[row.RoomType] = true
		dto.Rooms[i] = RoomTypeSummaryDTO{
			RoomType:    string(row.RoomType),
			TotalPoints: pointsString(row.TotalPoints),
			NetCost:     money(row.NetCost),
		}
	}
	for _, room := range rooms {
		if !priced[room] {
			dto.Skipped = append(dto.Skipped, string(room))
		}
	}
	h.metrics.RecordSkipped(string(stayReq.ResortID), len(dto.Skipped))

	writeJSON(w, http.StatusOK, dto)
}

// CompareQuotes prices the stay for the chosen room types side by side.
func (h *Handler) CompareQuotes(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.RoomTypes) == 0 {
		writeError(w, http.StatusBadRequest, "room_types is required", nil)
		return
	}

	stayReq, cfg, err := h.prepare(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_, engine := h.current()

	rooms := make([]calendar.RoomType, len(req.RoomTypes))
	for i, rt := range req.RoomTypes {
		rooms[i] = calendar.RoomType(rt)
	}
	c, err := engine.CompareRoomTypes(stayReq.ResortID, rooms, stayReq.CheckIn, stayReq.Nights, cfg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonDTO(c))
}

// ListQuotes returns the most recent quotes.
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	quotes, err := h.Store.ListQuotes(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]QuoteRecordDTO, len(quotes))
	for i, q := range quotes {
		dtos[i] = toQuoteRecordDTO(q)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetQuote returns one stored quote.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.Store.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteRecordDTO(*q))
}

// prepare parses the stay of a quote request and resolves its configuration.
func (h *Handler) prepare(ctx context.Context, req QuoteRequest) (pricing.StayRequest, pricing.Configuration, error) {
	stay := pricing.StayRequest{
		ResortID: calendar.ResortID(req.ResortID),
		RoomType: calendar.RoomType(req.RoomType),
		Nights:   req.Nights,
	}
	checkIn, err := generic.ParseDate(req.CheckIn)
	if err != nil {
		return stay, pricing.Configuration{}, &generic.InvalidStayError{
			Nights: req.Nights,
			Reason: fmt.Sprintf("check_in %q is not a YYYY-MM-DD date", req.CheckIn),
		}
	}
	stay.CheckIn = checkIn

	cfg, err := h.resolveConfig(ctx, req)
	return stay, cfg, err
}

// resolveConfig picks the configuration of a quote request: an explicit
// config, inline settings, a saved profile, or the server defaults.
func (h *Handler) resolveConfig(ctx context.Context, req QuoteRequest) (pricing.Configuration, error) {
	mode := pricing.Mode(req.Mode)
	if mode == "" {
		mode = pricing.ModeOwner
	}
	if !mode.Valid() {
		return pricing.Configuration{}, fmt.Errorf("%w: unknown mode %q", generic.ErrInvalidConfiguration, req.Mode)
	}

	switch {
	case req.Config != nil:
		cfg := req.Config.Configuration()
		if cfg.Mode == "" {
			cfg.Mode = mode
		}
		return cfg, nil

	case len(req.Settings) > 0:
		settings, err := factory.ParseSettings(req.Settings)
		if err != nil {
			return pricing.Configuration{}, err
		}
		return settings.Configuration(mode), nil

	case req.ProfileID != "":
		p, err := h.Store.GetProfile(ctx, req.ProfileID)
		if err != nil {
			return pricing.Configuration{}, err
		}
		return p.Settings.Configuration(mode), nil

	default:
		return h.Defaults.Configuration(mode), nil
	}
}

func reasonKinds(reasons []pricing.Reason) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = string(r.Kind)
	}
	return out
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// ListProfiles returns all saved settings profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]ProfileDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = toProfileDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProfile saves a settings profile under a new id.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	raw := req.Settings
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	settings, err := factory.ParseSettings(raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := uuid.NewString()
	if err := h.Store.SaveProfile(r.Context(), sqlite.ProfileRecord{ID: id, Name: req.Name, Settings: settings}); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Store.GetProfile(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileDTO(*p))
}

// GetProfile returns one saved settings profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*p))
}

// DeleteProfile removes a saved settings profile.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteProfile(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	empty, _ := calendar.NewModel()
	h.swap(empty)

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps a domain error to its status and logs server-side failures.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context(), h.logger).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: errorCode(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, generic.ErrMissingChartData):
		return http.StatusUnprocessableEntity
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, generic.ErrMissingChartData):
		return "missing_chart_data"
	case errors.Is(err, generic.ErrUnknownResort):
		return "unknown_resort"
	case errors.Is(err, generic.ErrUnknownRoomType):
		return "unknown_room_type"
	case errors.Is(err, generic.ErrProfileNotFound):
		return "profile_not_found"
	case errors.Is(err, generic.ErrQuoteNotFound):
		return "quote_not_found"
	case errors.Is(err, generic.ErrInvalidStay):
		return "invalid_stay"
	case errors.Is(err, generic.ErrInvalidConfiguration):
		return "invalid_configuration"
	case generic.IsClientError(err):
		return "invalid_document"
	default:
		return "internal"
	}
}
