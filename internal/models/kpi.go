package models

// PeriodMetrics holds the aggregates of one date window.
type PeriodMetrics struct {
	Window        DateWindow `json:"window"`
	OrderCount    int        `json:"order_count"`
	CustomerCount int        `json:"customer_count"`
	TotalSales    float64    `json:"total_sales"`
	TotalProfit   float64    `json:"total_profit"`
	ProfitRatio   float64    `json:"profit_ratio"`
}

// Deltas are percent changes from the previous window to the current one.
type Deltas struct {
	OrderCount  float64 `json:"order_count"`
	TotalSales  float64 `json:"total_sales"`
	TotalProfit float64 `json:"total_profit"`
	ProfitRatio float64 `json:"profit_ratio"`
}

type ComparisonResult struct {
	PeriodDays int           `json:"period_days"`
	Current    PeriodMetrics `json:"current"`
	Previous   PeriodMetrics `json:"previous"`
	Deltas     Deltas        `json:"deltas"`
}

type BreakdownRow struct {
	Key         string  `json:"key"`
	TotalSales  float64 `json:"total_sales"`
	TotalProfit float64 `json:"total_profit"`
	OrderCount  int     `json:"order_count"`
}

type SeriesPoint struct {
	Date       string  `json:"date"`
	Sales      float64 `json:"sales"`
	Profit     float64 `json:"profit"`
	OrderCount int     `json:"order_count"`
}

type DatasetRange struct {
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
	Records int    `json:"records"`
	Periods []int  `json:"periods"`
	Default int    `json:"default_period"`
}
