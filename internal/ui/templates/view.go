package templates

import (
	"fmt"

	"superstore-dashboard/internal/models"
)

// DashboardView is what the page needs to render its controls.
type DashboardView struct {
	Title string
	Range models.DatasetRange
}

func (v DashboardView) endDate() string {
	return v.Range.MaxDate
}

func (v DashboardView) signals() string {
	return fmt.Sprintf("{endDate: '%s', period: %d}", v.endDate(), v.Range.Default)
}
