// Package kpi computes comparative sales metrics for a trailing date window
// against the window of equal length immediately before it.
package kpi

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Dataset is the read side of the record store the comparator needs.
type Dataset interface {
	FilterRange(w models.DateWindow) []models.Record
}

// Windows derives the current and previous windows for a query. The current
// window covers [end-periodDays, end] inclusive, the previous one the
// periodDays before it; previous.End equals current.Start.
func Windows(endDate time.Time, periodDays int) (current, previous models.DateWindow, err error) {
	if periodDays <= 0 {
		return current, previous, fmt.Errorf("%w: period must be a positive number of days, got %d", ErrInvalidArgument, periodDays)
	}
	end := dataset.Day(endDate)
	current = models.DateWindow{
		Start: end.AddDate(0, 0, -periodDays),
		End:   end.AddDate(0, 0, 1),
	}
	previous = models.DateWindow{
		Start: current.Start.AddDate(0, 0, -periodDays),
		End:   current.Start,
	}
	return current, previous, nil
}

// Compare aggregates both windows and the percent deltas between them.
func Compare(ds Dataset, endDate time.Time, periodDays int) (models.ComparisonResult, error) {
	current, previous, err := Windows(endDate, periodDays)
	if err != nil {
		return models.ComparisonResult{}, err
	}

	cur := Aggregate(current, ds.FilterRange(current))
	prev := Aggregate(previous, ds.FilterRange(previous))

	return models.ComparisonResult{
		PeriodDays: periodDays,
		Current:    cur,
		Previous:   prev,
		Deltas: models.Deltas{
			OrderCount:  Delta(float64(cur.OrderCount), float64(prev.OrderCount)),
			TotalSales:  Delta(cur.TotalSales, prev.TotalSales),
			TotalProfit: Delta(cur.TotalProfit, prev.TotalProfit),
			ProfitRatio: Delta(cur.ProfitRatio, prev.ProfitRatio),
		},
	}, nil
}

// Aggregate reduces the records of one window to its metrics. Blank order or
// customer ids do not count towards the distinct counts.
func Aggregate(w models.DateWindow, records []models.Record) models.PeriodMetrics {
	orders := make(map[string]struct{})
	customers := make(map[string]struct{})
	sales := decimal.Zero
	profit := decimal.Zero

	for _, r := range records {
		if r.OrderID != "" {
			orders[r.OrderID] = struct{}{}
		}
		if r.CustomerID != "" {
			customers[r.CustomerID] = struct{}{}
		}
		sales = sales.Add(amount(r.Sales))
		profit = profit.Add(amount(r.Profit))
	}

	return models.PeriodMetrics{
		Window:        w,
		OrderCount:    len(orders),
		CustomerCount: len(customers),
		TotalSales:    sales.InexactFloat64(),
		TotalProfit:   profit.InexactFloat64(),
		ProfitRatio:   ProfitRatio(sales, profit),
	}
}

// amount converts a record amount for summing. NaN and infinite values count
// as zero.
func amount(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// ProfitRatio is 100*profit/sales, and 0 when sales is exactly zero.
func ProfitRatio(sales, profit decimal.Decimal) float64 {
	if sales.IsZero() {
		return 0
	}
	return profit.Mul(decimal.NewFromInt(100)).Div(sales).InexactFloat64()
}

// Delta is the percent change from prev to curr. A zero previous value yields
// 0 rather than an infinite change.
func Delta(curr, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (curr - prev) / prev * 100
}
