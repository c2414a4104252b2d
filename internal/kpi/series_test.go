package kpi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/models"
)

func TestDailySeries(t *testing.T) {
	cur, _, err := Windows(anchor, 3)
	require.NoError(t, err)

	records := []models.Record{
		{OrderID: "A", OrderDate: daysBefore(3), Sales: 10, Profit: 1},
		{OrderID: "A", OrderDate: daysBefore(3), Sales: 5, Profit: 1},
		{OrderID: "B", OrderDate: daysBefore(1), Sales: 7, Profit: -2},
		{OrderID: "Z", OrderDate: daysBefore(9), Sales: 99},
	}

	points := DailySeries(cur, records)
	require.Len(t, points, 4)

	assert.Equal(t, "2014-12-28", points[0].Date)
	assert.Equal(t, 15.0, points[0].Sales)
	assert.Equal(t, 2.0, points[0].Profit)
	assert.Equal(t, 1, points[0].OrderCount)

	assert.Zero(t, points[1].Sales)
	assert.Equal(t, 7.0, points[2].Sales)
	assert.Equal(t, "2014-12-31", points[3].Date)
}

func TestDailySeries_NonFiniteAmounts(t *testing.T) {
	cur, _, err := Windows(anchor, 1)
	require.NoError(t, err)

	points := DailySeries(cur, []models.Record{
		{OrderID: "A", OrderDate: anchor, Sales: math.NaN(), Profit: math.Inf(-1)},
		{OrderID: "B", OrderDate: anchor, Sales: 2, Profit: 1},
	})
	require.Len(t, points, 2)
	assert.Equal(t, 2.0, points[1].Sales)
	assert.Equal(t, 1.0, points[1].Profit)
	assert.Equal(t, 2, points[1].OrderCount)
}
