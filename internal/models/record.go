package models

import "time"

// Record is a single order line. An order spanning several products has
// several records sharing the same OrderID.
type Record struct {
	RowID       int
	OrderID     string
	OrderDate   time.Time
	CustomerID  string
	Segment     string
	Country     string
	Market      string
	Region      string
	ProductName string
	Category    string
	SubCategory string
	Sales       float64
	Quantity    int
	Profit      float64
}

type DateWindow struct {
	Start time.Time `json:"start"`
	// End is exclusive.
	End time.Time `json:"end"`
}

func (w DateWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// LastDay returns the last calendar day covered by the window.
func (w DateWindow) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

const secondsPerDay = 24 * 60 * 60

// Days counts the calendar days in the window. It works on Unix seconds since
// time.Duration overflows for windows longer than about 292 years.
func (w DateWindow) Days() int {
	return int((w.End.Unix() - w.Start.Unix()) / secondsPerDay)
}
