package dataset

import (
	"slices"
	"sort"
	"time"

	"superstore-dashboard/internal/models"
)

// Store is an immutable, date-ordered table of order lines. All methods are
// read-only and safe for concurrent use.
type Store struct {
	records []models.Record
}

// New copies records, truncates every order date to its calendar day and
// sorts the copy by date. The caller's slice is never retained.
func New(records []models.Record) *Store {
	sorted := slices.Clone(records)
	for i := range sorted {
		sorted[i].OrderDate = Day(sorted[i].OrderDate)
	}
	slices.SortStableFunc(sorted, func(a, b models.Record) int {
		return a.OrderDate.Compare(b.OrderDate)
	})
	return &Store{records: sorted}
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Store) Len() int {
	return len(s.records)
}

// Records returns a copy of every record in date order.
func (s *Store) Records() []models.Record {
	return slices.Clone(s.records)
}

// DateRange reports the earliest and latest order dates. ok is false for an
// empty store.
func (s *Store) DateRange() (minDate, maxDate time.Time, ok bool) {
	if len(s.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.records[0].OrderDate, s.records[len(s.records)-1].OrderDate, true
}

// FilterByDate returns the records dated within [start, endInclusive].
func (s *Store) FilterByDate(start, endInclusive time.Time) []models.Record {
	return s.FilterRange(models.DateWindow{
		Start: Day(start),
		End:   Day(endInclusive).AddDate(0, 0, 1),
	})
}

// FilterRange returns the records dated within the half-open window.
func (s *Store) FilterRange(w models.DateWindow) []models.Record {
	lo := s.search(w.Start)
	hi := s.search(w.End)
	if lo >= hi {
		return nil
	}
	return slices.Clone(s.records[lo:hi])
}

// search returns the index of the first record dated on or after t.
func (s *Store) search(t time.Time) int {
	return sort.Search(len(s.records), func(i int) bool {
		return !s.records[i].OrderDate.Before(t)
	})
}
