package kpi

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/models"
)

type Dimension string

const (
	DimensionCategory    Dimension = "category"
	DimensionSubCategory Dimension = "sub-category"
	DimensionRegion      Dimension = "region"
)

var Dimensions = []Dimension{DimensionCategory, DimensionSubCategory, DimensionRegion}

func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	if d == "subcategory" {
		d = DimensionSubCategory
	}
	if !slices.Contains(Dimensions, d) {
		return "", fmt.Errorf("%w: unknown dimension %q", ErrInvalidArgument, s)
	}
	return d, nil
}

func (d Dimension) key(r models.Record) string {
	switch d {
	case DimensionSubCategory:
		return r.SubCategory
	case DimensionRegion:
		return r.Region
	default:
		return r.Category
	}
}

type group struct {
	sales  decimal.Decimal
	profit decimal.Decimal
	orders map[string]struct{}
}

// Breakdown groups records by dimension, sorted by sales descending and then
// by key. Records with a blank key are grouped under "Unknown".
func Breakdown(records []models.Record, d Dimension) []models.BreakdownRow {
	groups := make(map[string]*group)
	for _, r := range records {
		k := d.key(r)
		if k == "" {
			k = "Unknown"
		}
		g := groups[k]
		if g == nil {
			g = &group{orders: make(map[string]struct{})}
			groups[k] = g
		}
		g.sales = g.sales.Add(amount(r.Sales))
		g.profit = g.profit.Add(amount(r.Profit))
		if r.OrderID != "" {
			g.orders[r.OrderID] = struct{}{}
		}
	}

	rows := make([]models.BreakdownRow, 0, len(groups))
	for k, g := range groups {
		rows = append(rows, models.BreakdownRow{
			Key:         k,
			TotalSales:  g.sales.InexactFloat64(),
			TotalProfit: g.profit.InexactFloat64(),
			OrderCount:  len(g.orders),
		})
	}
	slices.SortFunc(rows, func(a, b models.BreakdownRow) int {
		if a.TotalSales > b.TotalSales {
			return -1
		}
		if a.TotalSales < b.TotalSales {
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
	return rows
}
