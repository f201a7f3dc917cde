package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period is a closed date range [Start, End], both inclusive.
// "As of" statements (Balance Sheet) use a single-date period.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewPeriod(start, end time.Time) Period {
	return Period{Start: start, End: end}
}

// AsOf builds a single-date period for point-in-time statements.
func AsOf(date time.Time) Period {
	return Period{Start: date, End: date}
}

// Months counts calendar months covered by the period, minimum 1.
// A January-to-December range counts as 12.
func (p Period) Months() int {
	months := (p.End.Year()-p.Start.Year())*12 + int(p.End.Month()) - int(p.Start.Month()) + 1
	if months < 1 {
		return 1
	}
	return months
}

// Scale returns Months/12 as a decimal, used to scale annualized figures.
func (p Period) Scale() decimal.Decimal {
	return decimal.NewFromInt(int64(p.Months())).Div(decimal.NewFromInt(12))
}

func (p Period) String() string {
	return fmt.Sprintf("%s -> %s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}
