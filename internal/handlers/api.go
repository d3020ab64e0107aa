package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"retail-insights/internal/analysis"
	"retail-insights/internal/errors"
	"retail-insights/internal/models"
	"retail-insights/internal/services"
)

const cacheMaxAge = "public, max-age=300"

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

// report resolves the request's query parameters into a report. On failure
// the error response is already written and ok is false.
func (h *APIHandlers) report(w http.ResponseWriter, r *http.Request) (*models.Report, reportParams, bool) {
	params, err := paramsFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return nil, params, false
	}
	q, err := params.query()
	if err != nil {
		h.fail(w, r, err)
		return nil, params, false
	}
	report, err := h.analytics.Report(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return nil, params, false
	}
	return report, params, true
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, r, h.logger, serviceError(err))
}

func serviceError(err error) error {
	if stderrors.Is(err, services.ErrNotLoaded) {
		return errors.Wrap(err, errors.CodeServiceUnavail, "No dataset is loaded yet")
	}
	return err
}

func cacheHeaders() map[string]string {
	return map[string]string{
		"Cache-Control": cacheMaxAge,
	}
}

type kpiResponse struct {
	KPIs         models.KPIs      `json:"kpis"`
	Transactions int              `json:"transactions"`
	Warnings     []models.Warning `json:"warnings,omitempty"`
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	report, _, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, kpiResponse{
		KPIs:         report.KPIs,
		Transactions: report.Transactions,
		Warnings:     report.Warnings,
	}, cacheHeaders())
}

// HandleCountryRevenue returns the configured top-N ranking, or the first
// limit countries when limit is given.
func (h *APIHandlers) HandleCountryRevenue(w http.ResponseWriter, r *http.Request) {
	report, params, ok := h.report(w, r)
	if !ok {
		return
	}

	data := report.TopCountries
	if params.Limit > 0 {
		data = analysis.RankCountries(report.Countries, params.Limit)
	}
	errors.WriteSuccessWithHeaders(w, r, data, cacheHeaders())
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	report, _, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, report.Monthly, cacheHeaders())
}

func (h *APIHandlers) HandleWeekdayRevenue(w http.ResponseWriter, r *http.Request) {
	report, _, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, report.Weekday, cacheHeaders())
}

type abcResponse struct {
	Products    []models.ProductRevenueRow `json:"products"`
	TierSummary []models.TierCount         `json:"tier_summary"`
	Total       int                        `json:"total"`
}

func (h *APIHandlers) HandleABC(w http.ResponseWriter, r *http.Request) {
	report, params, ok := h.report(w, r)
	if !ok {
		return
	}

	products := report.Products
	if params.Limit > 0 && params.Limit < len(products) {
		products = products[:params.Limit]
	}
	errors.WriteSuccessWithHeaders(w, r, abcResponse{
		Products:    products,
		TierSummary: report.TierSummary,
		Total:       len(report.Products),
	}, cacheHeaders())
}

type clusterResponse struct {
	Clusters int                     `json:"clusters"`
	Segments []models.CountrySegment `json:"segments"`
	Warnings []models.Warning        `json:"warnings,omitempty"`
}

func (h *APIHandlers) HandleClusters(w http.ResponseWriter, r *http.Request) {
	report, _, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, clusterResponse{
		Clusters: report.Clusters,
		Segments: report.Segments,
		Warnings: report.Warnings,
	}, cacheHeaders())
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, _, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, r, report, cacheHeaders())
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	selection, err := h.analytics.Selection()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, r, selection, cacheHeaders())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now().Format(time.RFC3339),
		"version":        "1.0.0",
		"dataset_loaded": h.analytics.Ready(),
	}

	errors.WriteSuccess(w, r, healthData)
}

// HandleReady reports 503 until a dataset is loaded.
func (h *APIHandlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	if !h.analytics.Ready() {
		h.fail(w, r, services.ErrNotLoaded)
		return
	}

	errors.WriteSuccess(w, r, map[string]string{"status": "ready"})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.analytics.Stats())
}
