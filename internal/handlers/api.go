package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/kpi"
	"superstore-dashboard/internal/services"
)

// CacheMaxAge is the Cache-Control value for dashboard responses.
const CacheMaxAge = "public, max-age=300"

var cacheHeaders = map[string]string{
	"Cache-Control": CacheMaxAge,
}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// queryError maps service errors onto the JSON error envelope codes.
func queryError(err error) error {
	switch {
	case stderrors.Is(err, services.ErrBadQuery):
		return errors.BadRequestWrap(err, "Invalid query parameters")
	case stderrors.Is(err, kpi.ErrInvalidArgument):
		return errors.ValidationWrap(err, "Invalid analysis parameters")
	default:
		return err
	}
}

func (h *APIHandlers) parseQuery(r *http.Request) (services.Query, error) {
	q := r.URL.Query()
	return h.analytics.ParseQuery(q.Get("end_date"), q.Get("period"))
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		errors.WriteError(w, r, h.logger, queryError(err))
		return
	}

	result, err := h.analytics.Compare(r.Context(), q)
	if err != nil {
		errors.WriteError(w, r, h.logger, queryError(err))
		return
	}

	errors.WriteSuccessWithHeaders(w, result, cacheHeaders)
}

func (h *APIHandlers) HandleBreakdown(w http.ResponseWriter, r *http.Request) {
	dimension, err := kpi.ParseDimension(r.PathValue("dimension"))
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.NotFound(err.Error()))
		return
	}

	q, err := h.parseQuery(r)
	if err != nil {
		errors.WriteError(w, r, h.logger, queryError(err))
		return
	}

	rows, err := h.analytics.Breakdown(r.Context(), q, dimension)
	if err != nil {
		errors.WriteError(w, r, h.logger, queryError(err))
		return
	}

	errors.WriteSuccessWithHeaders(w, rows, cacheHeaders)
}

func (h *APIHandlers) HandleDailySeries(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		errors.WriteError(w, r, h.logger, queryError(err))
		return
	}

	points, err := h.analytics.DailySeries(r.Context(), q)
	if err != nil {
		errors.WriteError(w, r, h.logger, queryError(err))
		return
	}

	errors.WriteSuccessWithHeaders(w, points, cacheHeaders)
}

func (h *APIHandlers) HandleDateRange(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.DateRange(), cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
