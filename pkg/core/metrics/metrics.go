// Package metrics provides deterministic derived-metric calculations
// over finalized canonical statements: ratios, margins, burn, runway,
// and recurring-revenue normalization. Everything here is a pure
// function; denominator-zero cases return zero, never an error.
package metrics

import (
	"findash/pkg/models"

	"github.com/shopspring/decimal"
)

var (
	hundred       = decimal.NewFromInt(100)
	twelve        = decimal.NewFromInt(12)
	weeksPerMonth = decimal.NewFromFloat(4.33)
)

// Ratio divides num by den, returning 0 when den is zero.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den).Round(4)
}

// MarginPct is metric / revenue * 100, defined as 0 for zero revenue.
func MarginPct(metric, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return metric.Div(revenue).Mul(hundred).Round(2)
}

// MonthlyBurnRate is |netChange| / months when the period burned cash
// (negative net change), else 0.
func MonthlyBurnRate(netChange decimal.Decimal, months int) decimal.Decimal {
	if netChange.Sign() >= 0 {
		return decimal.Zero
	}
	if months < 1 {
		months = 1
	}
	return netChange.Abs().Div(decimal.NewFromInt(int64(months))).Round(2)
}

// RunwayMonths is ending cash divided by monthly burn, rounded to whole
// months. A zero or negative burn means the company is not burning cash
// and runway is tagged infinite rather than a sentinel number.
func RunwayMonths(endingCash, monthlyBurn decimal.Decimal) models.Runway {
	if monthlyBurn.Sign() <= 0 {
		return models.Runway{Infinite: true}
	}
	return models.Runway{Months: endingCash.Div(monthlyBurn).Round(0).IntPart()}
}

// NormalizeMonthly converts a recurring charge to its monthly run-rate:
// annual cadence divides by 12, weekly multiplies by 4.33 (average weeks
// per month), monthly passes through unchanged.
func NormalizeMonthly(amount decimal.Decimal, cadence models.Cadence) decimal.Decimal {
	switch cadence {
	case models.CadenceYear:
		return amount.Div(twelve)
	case models.CadenceWeek:
		return amount.Mul(weeksPerMonth)
	default:
		return amount
	}
}

// ARR annualizes a monthly recurring revenue figure.
func ARR(mrr decimal.Decimal) decimal.Decimal {
	return mrr.Mul(twelve)
}
