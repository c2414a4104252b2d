package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/kpi"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

const (
	dateLayout = "2006-01-02"

	// DefaultMaxPeriod applies when the dashboard config leaves MaxPeriod unset.
	DefaultMaxPeriod = 3650
)

// ErrBadQuery reports a query parameter that could not be parsed.
var ErrBadQuery = errors.New("bad query")

// Query selects the analysis window: the trailing PeriodDays up to EndDate.
type Query struct {
	EndDate    time.Time
	PeriodDays int
}

// Analytics serves dashboard queries from one immutable dataset snapshot.
// Loading a new dataset swaps the snapshot; queries already running keep
// using the one they started with.
type Analytics struct {
	mu         sync.RWMutex
	store      *dataset.Store
	comparator *kpi.Comparator
	source     string
	loadedAt   time.Time

	dashboard config.DashboardConfig
	logger    *slog.Logger
}

func NewAnalytics(dashboard config.DashboardConfig, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analytics{
		dashboard: dashboard,
		logger:    logger,
	}
	a.swap(dataset.New(nil), "")
	return a
}

func (a *Analytics) swap(store *dataset.Store, source string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store = store
	a.comparator = kpi.NewComparator(store)
	a.source = source
	a.loadedAt = time.Now()
}

func (a *Analytics) snapshot() (*dataset.Store, *kpi.Comparator) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.store, a.comparator
}

// SetData replaces the dataset with the given records.
func (a *Analytics) SetData(records []models.Record) {
	a.swap(dataset.New(records), "memory")
}

func (a *Analytics) LoadFromCSV(ctx context.Context, db config.DatabaseConfig) error {
	opts := []dataset.Option{
		dataset.WithEncoding(db.Encoding),
		dataset.WithLogger(a.logger),
	}
	if db.CacheDir != "" {
		opts = append(opts, dataset.WithCache(db.CacheDir))
	}

	store, err := dataset.LoadCSV(ctx, db.CSVFile, opts...)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	a.swap(store, db.CSVFile)

	minDate, maxDate, _ := store.DateRange()
	a.logger.Info("dataset ready",
		"records", store.Len(),
		"min_date", minDate.Format(dateLayout),
		"max_date", maxDate.Format(dateLayout),
	)
	return nil
}

// DefaultEndDate is the latest order date, or today for an empty dataset.
func (a *Analytics) DefaultEndDate() time.Time {
	store, _ := a.snapshot()
	if _, maxDate, ok := store.DateRange(); ok {
		return maxDate
	}
	return dataset.Day(time.Now())
}

func (a *Analytics) maxPeriod() int {
	if a.dashboard.MaxPeriod > 0 {
		return a.dashboard.MaxPeriod
	}
	return DefaultMaxPeriod
}

// ParseQuery resolves raw end date and period values, applying defaults for
// blank ones. Non-positive periods are left for the comparator to reject;
// periods above the configured maximum are a bad query.
func (a *Analytics) ParseQuery(endDate, period string) (Query, error) {
	q := Query{
		EndDate:    a.DefaultEndDate(),
		PeriodDays: a.dashboard.DefaultPeriod,
	}

	if endDate = strings.TrimSpace(endDate); endDate != "" {
		t, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return Query{}, fmt.Errorf("%w: end date %q must be YYYY-MM-DD", ErrBadQuery, endDate)
		}
		q.EndDate = t
	}

	if period = strings.TrimSpace(period); period != "" {
		n, err := strconv.Atoi(period)
		if err != nil {
			return Query{}, fmt.Errorf("%w: period %q is not a number of days", ErrBadQuery, period)
		}
		if n > a.maxPeriod() {
			return Query{}, fmt.Errorf("%w: period %d exceeds the maximum of %d days", ErrBadQuery, n, a.maxPeriod())
		}
		q.PeriodDays = n
	}

	return q, nil
}

func (a *Analytics) Compare(ctx context.Context, q Query) (models.ComparisonResult, error) {
	_, span := observability.StartSpan(ctx, "kpi.compare")
	defer span.Finish(a.logger)
	span.SetTag("period_days", strconv.Itoa(q.PeriodDays))

	_, comparator := a.snapshot()
	res, err := comparator.Compare(q.EndDate, q.PeriodDays)
	if err != nil {
		span.SetError(err)
		return models.ComparisonResult{}, err
	}
	return res, nil
}

// currentRecords returns the records of the query's current window.
func (a *Analytics) currentRecords(q Query) (models.DateWindow, []models.Record, error) {
	current, _, err := kpi.Windows(q.EndDate, q.PeriodDays)
	if err != nil {
		return models.DateWindow{}, nil, err
	}
	store, _ := a.snapshot()
	return current, store.FilterRange(current), nil
}

func (a *Analytics) Breakdown(ctx context.Context, q Query, d kpi.Dimension) ([]models.BreakdownRow, error) {
	_, span := observability.StartSpan(ctx, "kpi.breakdown")
	defer span.Finish(a.logger)
	span.SetTag("dimension", string(d))

	_, records, err := a.currentRecords(q)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return kpi.Breakdown(records, d), nil
}

func (a *Analytics) DailySeries(ctx context.Context, q Query) ([]models.SeriesPoint, error) {
	_, span := observability.StartSpan(ctx, "kpi.daily_series")
	defer span.Finish(a.logger)

	window, records, err := a.currentRecords(q)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return kpi.DailySeries(window, records), nil
}

// Records returns up to limit records of the current window, most recent first.
func (a *Analytics) Records(ctx context.Context, q Query, limit int) ([]models.Record, error) {
	_, records, err := a.currentRecords(q)
	if err != nil {
		return nil, err
	}
	slices.Reverse(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (a *Analytics) DateRange() models.DatasetRange {
	store, _ := a.snapshot()
	r := models.DatasetRange{
		Records: store.Len(),
		Periods: slices.Clone(a.dashboard.Periods),
		Default: a.dashboard.DefaultPeriod,
	}
	if minDate, maxDate, ok := store.DateRange(); ok {
		r.MinDate = minDate.Format(dateLayout)
		r.MaxDate = maxDate.Format(dateLayout)
	}
	return r
}

// Stats is a monitoring summary of the loaded dataset.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"record_count":      a.store.Len(),
		"source":            a.source,
		"loaded_at":         a.loadedAt,
		"cached_comparison": a.comparator.Cached(),
	}
	if minDate, maxDate, ok := a.store.DateRange(); ok {
		stats["min_date"] = minDate.Format(dateLayout)
		stats["max_date"] = maxDate.Format(dateLayout)
	}
	return stats
}
