package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testRecords() []models.Record {
	return []models.Record{
		{OrderID: "O3", OrderDate: date(2014, 3, 1), Sales: 3},
		{OrderID: "O1", OrderDate: date(2014, 1, 1).Add(13 * time.Hour), Sales: 1},
		{OrderID: "O2", OrderDate: date(2014, 2, 1), Sales: 2},
		{OrderID: "O2", OrderDate: date(2014, 2, 1), Sales: 2.5},
	}
}

func TestNew_SortsAndTruncates(t *testing.T) {
	input := testRecords()
	s := New(input)

	require.Equal(t, 4, s.Len())
	records := s.Records()
	assert.Equal(t, "O1", records[0].OrderID)
	assert.True(t, records[0].OrderDate.Equal(date(2014, 1, 1)))
	assert.Equal(t, "O3", records[3].OrderID)

	// input is not retained
	input[0].OrderID = "mutated"
	assert.Equal(t, "O3", s.Records()[3].OrderID)
}

func TestStore_DateRange(t *testing.T) {
	minDate, maxDate, ok := New(testRecords()).DateRange()
	require.True(t, ok)
	assert.True(t, minDate.Equal(date(2014, 1, 1)))
	assert.True(t, maxDate.Equal(date(2014, 3, 1)))

	_, _, ok = New(nil).DateRange()
	assert.False(t, ok)
}

func TestStore_FilterByDate(t *testing.T) {
	s := New(testRecords())

	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"all", date(2013, 1, 1), date(2015, 1, 1), 4},
		{"inclusive bounds", date(2014, 2, 1), date(2014, 3, 1), 3},
		{"single day", date(2014, 2, 1), date(2014, 2, 1), 2},
		{"end time of day ignored", date(2014, 1, 1), date(2014, 1, 1).Add(time.Minute), 1},
		{"before data", date(2010, 1, 1), date(2010, 12, 31), 0},
		{"inverted", date(2014, 3, 1), date(2014, 1, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, s.FilterByDate(tt.start, tt.end), tt.want)
		})
	}
}

func TestStore_FilterRangeIsHalfOpen(t *testing.T) {
	s := New(testRecords())

	got := s.FilterRange(models.DateWindow{Start: date(2014, 1, 1), End: date(2014, 2, 1)})
	require.Len(t, got, 1)
	assert.Equal(t, "O1", got[0].OrderID)

	// results are copies
	got[0].Sales = 1000
	assert.Equal(t, 1.0, s.Records()[0].Sales)
}
