package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/models"
)

const ordersCSV = `Row ID,Order ID,Order Date,Customer ID,Category,Region,Sales,Profit
1,O-1,2014-12-05,C-1,Technology,West,100,20
2,O-2,2014-12-20,C-2,Furniture,East,40,4
3,O-2,2014-12-20,C-2,Technology,East,10,1
4,O-3,2014-12-31,C-3,Furniture,West,25,-5
`

func writeOrders(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(ordersCSV), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompare_JSON(t *testing.T) {
	path := writeOrders(t)

	out, err := execute(t, "compare", "--csv", path, "--encoding", "utf8", "--end", "2014-12-31", "--period", "14", "--json")
	require.NoError(t, err)

	var res models.ComparisonResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.Equal(t, 14, res.PeriodDays)
	assert.Equal(t, 2, res.Current.OrderCount)
	assert.Equal(t, 1, res.Previous.OrderCount)
	assert.InDelta(t, 75.0, res.Current.TotalSales, 1e-9)
	assert.InDelta(t, 100.0, res.Previous.TotalSales, 1e-9)
	assert.InDelta(t, -25.0, res.Deltas.TotalSales, 1e-9)
	assert.InDelta(t, 100.0, res.Deltas.OrderCount, 1e-9)
}

func TestCompare_Table(t *testing.T) {
	path := writeOrders(t)

	out, err := execute(t, "compare", "--csv", path, "--encoding", "utf8", "--period", "14")
	require.NoError(t, err)

	assert.Contains(t, out, "2014-12-17 .. 2014-12-31")
	assert.Contains(t, out, "+100.00%")
	assert.Contains(t, out, "-25.00%")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 7)
}

func TestCompare_InvalidPeriod(t *testing.T) {
	path := writeOrders(t)

	_, err := execute(t, "compare", "--csv", path, "--encoding", "utf8", "--period", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "period")
}

func TestCompare_MissingCSVFlag(t *testing.T) {
	_, err := execute(t, "compare")
	require.Error(t, err)
}

func TestRange(t *testing.T) {
	path := writeOrders(t)

	out, err := execute(t, "range", "--csv", path, "--encoding", "utf8")
	require.NoError(t, err)
	assert.Equal(t, "2014-12-05 to 2014-12-31 (4 records)\n", out)
}
