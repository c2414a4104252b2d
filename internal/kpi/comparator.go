package kpi

import (
	"sync"
	"time"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

const defaultMemoSize = 256

type memoKey struct {
	end    time.Time
	period int
}

// Comparator runs Compare against one dataset handle and memoises results by
// (end date, period). The dataset must not change for the comparator's lifetime.
type Comparator struct {
	ds      Dataset
	maxSize int

	mu   sync.RWMutex
	memo map[memoKey]models.ComparisonResult
}

func NewComparator(ds Dataset) *Comparator {
	return &Comparator{
		ds:      ds,
		maxSize: defaultMemoSize,
		memo:    make(map[memoKey]models.ComparisonResult),
	}
}

func (c *Comparator) Compare(endDate time.Time, periodDays int) (models.ComparisonResult, error) {
	key := memoKey{end: dataset.Day(endDate), period: periodDays}

	c.mu.RLock()
	res, ok := c.memo[key]
	c.mu.RUnlock()
	if ok {
		return res, nil
	}

	res, err := Compare(c.ds, endDate, periodDays)
	if err != nil {
		return models.ComparisonResult{}, err
	}

	c.mu.Lock()
	if len(c.memo) >= c.maxSize {
		clear(c.memo)
	}
	c.memo[key] = res
	c.mu.Unlock()

	return res, nil
}

// Cached reports how many results are memoised.
func (c *Comparator) Cached() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memo)
}
