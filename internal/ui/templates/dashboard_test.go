package templates

import (
	"context"
	"strings"
	"testing"

	"superstore-dashboard/internal/models"
)

func TestDashboard_Render(t *testing.T) {
	view := DashboardView{
		Title: "Superstore <Sales> Dashboard",
		Range: models.DatasetRange{
			MinDate: "2011-01-01",
			MaxDate: "2014-12-31",
			Records: 51290,
			Periods: []int{7, 28, 90, 365},
			Default: 28,
		},
	}

	var b strings.Builder
	if err := Dashboard(view).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	html := b.String()

	expected := []string{
		"Superstore &lt;Sales&gt; Dashboard",
		`max="2014-12-31"`,
		`<option value="28" selected>28 days</option>`,
		`<option value="365">365 days</option>`,
		"51290 order lines",
		`id="kpi-cards"`,
		`id="category-content"`,
		`id="region-content"`,
		`id="records-content"`,
		"/sse/refresh-all",
		`data-signals="{endDate: &#39;2014-12-31&#39;, period: 28}"`,
	}
	for _, s := range expected {
		if !strings.Contains(html, s) {
			t.Errorf("expected page to contain %q", s)
		}
	}

	if strings.Contains(html, "<Sales>") {
		t.Error("title should be escaped")
	}
}

func TestDashboard_EscapesAttributes(t *testing.T) {
	view := DashboardView{
		Title: "Dashboard",
		Range: models.DatasetRange{MinDate: `2011-01-01" onfocus="alert(1)`, MaxDate: "2014-12-31", Periods: []int{7}, Default: 7},
	}

	var b strings.Builder
	if err := Dashboard(view).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() failed: %v", err)
	}

	if strings.Contains(b.String(), `" onfocus="`) {
		t.Error("attribute values should be escaped")
	}
	if !strings.Contains(b.String(), `min="2011-01-01&#34; onfocus=&#34;alert(1)"`) {
		t.Error("expected escaped min attribute")
	}
}
