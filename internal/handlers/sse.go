package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"superstore-dashboard/internal/kpi"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

const maxTableRows = 50

var templateFuncs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	"delta": func(v float64) string { return fmt.Sprintf("%+.1f%%", v) },
	"trend": func(v float64) string {
		switch {
		case v > 0:
			return "positive"
		case v < 0:
			return "negative"
		default:
			return "neutral"
		}
	},
	"day": func(w models.DateWindow) string { return w.Start.Format("2006-01-02") },
	"last": func(w models.DateWindow) string {
		return w.LastDay().Format("2006-01-02")
	},
	"sparkWidth":  func() int { return sparkWidth },
	"sparkHeight": func() int { return sparkHeight },
}

var kpiCardsTemplate = template.Must(template.New("kpiCards").Funcs(templateFuncs).Parse(`
<div id="kpi-cards" class="kpi-grid">
<p class="window">{{day .Current.Window}} to {{last .Current.Window}} vs {{day .Previous.Window}} to {{last .Previous.Window}}</p>
<div class="kpi-card"><h3>Orders</h3><strong>{{.Current.OrderCount}}</strong><span class="{{trend .Deltas.OrderCount}}">{{delta .Deltas.OrderCount}}</span><small>prev {{.Previous.OrderCount}}</small>{{template "sparkline" .OrdersTrend}}</div>
<div class="kpi-card"><h3>Customers</h3><strong>{{.Current.CustomerCount}}</strong><small>prev {{.Previous.CustomerCount}}</small></div>
<div class="kpi-card"><h3>Sales</h3><strong>{{money .Current.TotalSales}}</strong><span class="{{trend .Deltas.TotalSales}}">{{delta .Deltas.TotalSales}}</span><small>prev {{money .Previous.TotalSales}}</small>{{template "sparkline" .SalesTrend}}</div>
<div class="kpi-card"><h3>Profit</h3><strong>{{money .Current.TotalProfit}}</strong><span class="{{trend .Deltas.TotalProfit}}">{{delta .Deltas.TotalProfit}}</span><small>prev {{money .Previous.TotalProfit}}</small>{{template "sparkline" .ProfitTrend}}</div>
<div class="kpi-card"><h3>Profit Ratio</h3><strong>{{pct .Current.ProfitRatio}}</strong><span class="{{trend .Deltas.ProfitRatio}}">{{delta .Deltas.ProfitRatio}}</span><small>prev {{pct .Previous.ProfitRatio}}</small></div>
</div>
{{define "sparkline"}}{{if .}}<svg class="sparkline" viewBox="0 0 {{sparkWidth}} {{sparkHeight}}" preserveAspectRatio="none"><polyline fill="none" stroke="currentColor" points="{{.}}"/></svg>{{end}}{{end}}`))

var breakdownTemplate = template.Must(template.New("breakdown").Funcs(templateFuncs).Parse(`
<div id="{{.ID}}">
<table class="modern-table">
<thead><tr><th>{{.Label}}</th><th>Sales</th><th>Profit</th><th>Orders</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.Key}}</td>
<td><strong>{{money .TotalSales}}</strong></td>
<td>{{money .TotalProfit}}</td>
<td>{{.OrderCount}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var recordsTableTemplate = template.Must(template.New("recordsTable").Funcs(templateFuncs).Parse(`
<div id="records-content">
<table class="modern-table">
<thead><tr><th>Date</th><th>Order</th><th>Customer</th><th>Product</th><th>Category</th><th>Region</th><th>Sales</th><th>Profit</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.OrderDate.Format "2006-01-02"}}</td>
<td>{{.OrderID}}</td>
<td>{{.CustomerID}}</td>
<td>{{.ProductName}}</td>
<td><span class="category-badge">{{.Category}}</span></td>
<td>{{.Region}}</td>
<td><strong>{{money .Sales}}</strong></td>
<td>{{money .Profit}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var errorTemplate = template.Must(template.New("error").Parse(`<div id="{{.ID}}" class="error">{{.Message}}</div>`))

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

// dashboardSignals are the client signals the dashboard sends with each
// request. Period arrives as a number or as a string from a select binding.
type dashboardSignals struct {
	EndDate string `json:"endDate"`
	Period  any    `json:"period"`
}

func (s dashboardSignals) period() string {
	switch p := s.Period.(type) {
	case nil:
		return ""
	case string:
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	default:
		return fmt.Sprint(p)
	}
}

// query resolves the analysis window from datastar signals, falling back to
// the end_date and period query parameters.
func (h *SSEHandlers) query(r *http.Request) (services.Query, error) {
	values := r.URL.Query()
	if !values.Has("datastar") {
		return h.analytics.ParseQuery(values.Get("end_date"), values.Get("period"))
	}

	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return services.Query{}, fmt.Errorf("%w: %v", services.ErrBadQuery, err)
	}
	return h.analytics.ParseQuery(signals.EndDate, signals.period())
}

func render(t *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := t.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) renderError(sse *datastar.ServerSentEventGenerator, id string, err error) {
	html, renderErr := render(errorTemplate, map[string]string{"ID": id, "Message": err.Error()})
	if renderErr != nil {
		h.logger.Error("render error fragment", "error", renderErr)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch error fragment", "error", err)
	}
}

// kpiCardsView adds the current window's daily trend lines to the comparison.
type kpiCardsView struct {
	models.ComparisonResult
	SalesTrend  string
	ProfitTrend string
	OrdersTrend string
}

func (h *SSEHandlers) renderKPICards(result models.ComparisonResult, series []models.SeriesPoint) (string, error) {
	sales := make([]float64, len(series))
	profit := make([]float64, len(series))
	orders := make([]float64, len(series))
	for i, p := range series {
		sales[i] = p.Sales
		profit[i] = p.Profit
		orders[i] = float64(p.OrderCount)
	}
	return render(kpiCardsTemplate, kpiCardsView{
		ComparisonResult: result,
		SalesTrend:       sparklinePoints(sales),
		ProfitTrend:      sparklinePoints(profit),
		OrdersTrend:      sparklinePoints(orders),
	})
}

const (
	sparkWidth  = 100
	sparkHeight = 24
)

// sparklinePoints scales values into an SVG polyline points list spanning
// the sparkline box. A flat series is drawn through the middle.
func sparklinePoints(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	if len(values) == 1 {
		values = []float64{values[0], values[0]}
	}

	lo, hi := slices.Min(values), slices.Max(values)
	step := float64(sparkWidth) / float64(len(values)-1)

	points := make([]string, len(values))
	for i, v := range values {
		y := float64(sparkHeight) / 2
		if hi > lo {
			y = float64(sparkHeight) * (hi - v) / (hi - lo)
		}
		points[i] = strconv.FormatFloat(float64(i)*step, 'f', 1, 64) + "," + strconv.FormatFloat(y, 'f', 1, 64)
	}
	return strings.Join(points, " ")
}

func (h *SSEHandlers) renderBreakdown(id, label string, rows []models.BreakdownRow) (string, error) {
	return render(breakdownTemplate, map[string]any{"ID": id, "Label": label, "Rows": rows})
}

func (h *SSEHandlers) renderRecordsTable(records []models.Record) (string, error) {
	if len(records) > maxTableRows {
		records = records[:maxTableRows]
	}
	return render(recordsTableTemplate, records)
}

func (h *SSEHandlers) patchKPIs(r *http.Request, sse *datastar.ServerSentEventGenerator, q services.Query) error {
	result, err := h.analytics.Compare(r.Context(), q)
	if err != nil {
		return err
	}
	series, err := h.analytics.DailySeries(r.Context(), q)
	if err != nil {
		return err
	}

	signals, err := json.Marshal(map[string]any{
		"kpiData": result,
	})
	if err != nil {
		return fmt.Errorf("marshal kpi signals: %w", err)
	}
	if err := sse.PatchSignals(signals); err != nil {
		return err
	}

	html, err := h.renderKPICards(result, series)
	if err != nil {
		return fmt.Errorf("render kpi cards: %w", err)
	}
	return sse.PatchElements(html)
}

func (h *SSEHandlers) patchBreakdowns(r *http.Request, sse *datastar.ServerSentEventGenerator, q services.Query) error {
	categories, err := h.analytics.Breakdown(r.Context(), q, kpi.DimensionCategory)
	if err != nil {
		return err
	}
	regions, err := h.analytics.Breakdown(r.Context(), q, kpi.DimensionRegion)
	if err != nil {
		return err
	}

	signals, err := json.Marshal(map[string]any{
		"categoryData": categories,
		"regionData":   regions,
	})
	if err != nil {
		return fmt.Errorf("marshal breakdown signals: %w", err)
	}
	if err := sse.PatchSignals(signals); err != nil {
		return err
	}

	for _, part := range []struct {
		id, label string
		rows      []models.BreakdownRow
	}{
		{"category-content", "Category", categories},
		{"region-content", "Region", regions},
	} {
		html, err := h.renderBreakdown(part.id, part.label, part.rows)
		if err != nil {
			return fmt.Errorf("render %s: %w", part.id, err)
		}
		if err := sse.PatchElements(html); err != nil {
			return err
		}
	}
	return nil
}

func (h *SSEHandlers) patchRecords(r *http.Request, sse *datastar.ServerSentEventGenerator, q services.Query) error {
	records, err := h.analytics.Records(r.Context(), q, maxTableRows)
	if err != nil {
		return err
	}
	html, err := h.renderRecordsTable(records)
	if err != nil {
		return fmt.Errorf("render records table: %w", err)
	}
	return sse.PatchElements(html)
}

type patchFunc func(*http.Request, *datastar.ServerSentEventGenerator, services.Query) error

// stream runs the patches in order over one SSE response. Errors are shown
// in place of the target element.
func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, target string, patches ...patchFunc) {
	q, queryErr := h.query(r)
	sse := datastar.NewSSE(w, r)

	if queryErr != nil {
		h.renderError(sse, target, queryErr)
		return
	}

	for _, patch := range patches {
		if err := patch(r, sse, q); err != nil {
			h.logger.Warn("sse patch failed", "target", target, "error", err)
			h.renderError(sse, target, err)
			return
		}
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "kpi-cards", h.patchKPIs)
}

func (h *SSEHandlers) HandleBreakdowns(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "category-content", h.patchBreakdowns)
}

func (h *SSEHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "records-content", h.patchRecords)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "kpi-cards", h.patchKPIs, h.patchBreakdowns, h.patchRecords)
}
