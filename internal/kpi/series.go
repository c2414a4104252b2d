package kpi

import (
	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

// DailySeries returns one point per day of the window, days without orders
// included as zeros. Records outside the window are ignored.
func DailySeries(w models.DateWindow, records []models.Record) []models.SeriesPoint {
	type day struct {
		sales  decimal.Decimal
		profit decimal.Decimal
		orders map[string]struct{}
	}

	days := make(map[string]*day)
	for _, r := range records {
		if !w.Contains(r.OrderDate) {
			continue
		}
		k := r.OrderDate.Format(dateLayout)
		d := days[k]
		if d == nil {
			d = &day{orders: make(map[string]struct{})}
			days[k] = d
		}
		d.sales = d.sales.Add(amount(r.Sales))
		d.profit = d.profit.Add(amount(r.Profit))
		if r.OrderID != "" {
			d.orders[r.OrderID] = struct{}{}
		}
	}

	points := make([]models.SeriesPoint, 0, w.Days())
	for t := w.Start; t.Before(w.End); t = t.AddDate(0, 0, 1) {
		k := t.Format(dateLayout)
		p := models.SeriesPoint{Date: k}
		if d := days[k]; d != nil {
			p.Sales = d.sales.InexactFloat64()
			p.Profit = d.profit.InexactFloat64()
			p.OrderCount = len(d.orders)
		}
		points = append(points, p)
	}
	return points
}
