package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"retail-insights/internal/errors"
	"retail-insights/internal/models"
	"retail-insights/internal/services"
	"retail-insights/internal/ui/templates"
)

const maxTableRows = 50

var templateFuncs = template.FuncMap{
	"currency": templates.FormatCurrency,
	"count":    templates.FormatInt,
	"inc":      func(i int) int { return i + 1 },
}

var kpiCardsTemplate = template.Must(template.New("kpiCards").Funcs(templateFuncs).Parse(`
<section id="kpi-cards" class="kpis">
<div class="kpi-card"><h3>Total Revenue</h3><p>{{currency .KPIs.TotalRevenue 0}}</p></div>
<div class="kpi-card"><h3>Orders</h3><p>{{count .KPIs.Orders}}</p></div>
<div class="kpi-card"><h3>Average Ticket</h3><p>{{currency .KPIs.AverageOrderValue 2}}</p></div>
<div class="kpi-card"><h3>Transactions</h3><p>{{count .Transactions}}</p></div>
</section>`))

var countryTableTemplate = template.Must(template.New("countryTable").Funcs(templateFuncs).Parse(`
<div id="country-content">
<table class="modern-table">
<thead><tr><th>#</th><th>Country</th><th>Revenue</th><th>Orders</th><th>Quantity</th><th>Average Ticket</th></tr></thead>
<tbody>
{{range $i, $c := .}}<tr>
<td>{{inc $i}}</td>
<td>{{$c.Country}}</td>
<td><strong>{{currency $c.Revenue 0}}</strong></td>
<td>{{count $c.Orders}}</td>
<td>{{$c.Quantity}}</td>
<td>{{currency $c.AverageOrderValue 2}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var warningsTemplate = template.Must(template.New("warnings").Parse(`
<section id="warnings" class="panel">{{range .}}
<p class="warning" data-code="{{.Code}}">{{.Message}}</p>{{end}}
</section>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// report resolves the dashboard signals into a report before the event
// stream is opened, so failures still get a JSON error response.
func (h *SSEHandlers) report(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	params, err := paramsFromSignals(r)
	if err == nil {
		var q services.Query
		if q, err = params.query(); err == nil {
			var report *models.Report
			if report, err = h.analytics.Report(r.Context(), q); err == nil {
				return report, true
			}
		}
	}
	errors.WriteError(w, r, h.logger, serviceError(err))
	return nil, false
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) renderKPICards(report *models.Report) (string, error) {
	return render(kpiCardsTemplate, report)
}

func (h *SSEHandlers) renderCountryTable(countries []models.CountryAggregate) (string, error) {
	if len(countries) > maxTableRows {
		countries = countries[:maxTableRows]
	}
	return render(countryTableTemplate, countries)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	html, err := h.renderKPICards(report)
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(html)
	flush(w)
}

func (h *SSEHandlers) HandleCountryRevenue(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	html, err := h.renderCountryTable(report.TopCountries)
	if err != nil {
		h.logger.Error("render country table", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(html)
	flush(w)
}

func (h *SSEHandlers) patchSignals(w http.ResponseWriter, r *http.Request, signals map[string]any) {
	data, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchSignals(data)
	flush(w)
}

func (h *SSEHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	h.patchSignals(w, r, map[string]any{"monthlyData": report.Monthly})
}

func (h *SSEHandlers) HandleWeekdayRevenue(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	h.patchSignals(w, r, map[string]any{"weekdayData": report.Weekday})
}

func (h *SSEHandlers) HandleABC(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	h.patchSignals(w, r, map[string]any{"tierData": report.TierSummary})
}

func (h *SSEHandlers) HandleClusters(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	h.patchSignals(w, r, map[string]any{"clusterData": report.Segments})
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	cards, err := h.renderKPICards(report)
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	table, err := h.renderCountryTable(report.TopCountries)
	if err != nil {
		h.logger.Error("render country table", "error", err)
		return
	}
	warnings, err := render(warningsTemplate, report.Warnings)
	if err != nil {
		h.logger.Error("render warnings", "error", err)
		return
	}

	// Send all signals in one call
	allSignals, err := json.Marshal(map[string]any{
		"monthlyData": report.Monthly,
		"weekdayData": report.Weekday,
		"tierData":    report.TierSummary,
		"clusterData": report.Segments,
	})
	if err != nil {
		h.logger.Error("marshal all signals data", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(cards)
	sse.PatchElements(table)
	sse.PatchElements(warnings)
	sse.PatchSignals(allSignals)
	flush(w)
}
