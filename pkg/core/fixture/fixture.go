// Package fixture implements the source adapter capability set with
// deterministic synthetic data for a ~$2M ARR B2B SaaS startup. It is
// the primary source whenever the general ledger is unconfigured or demo
// mode is on, and it emits full nested report trees so the dashboard and
// the whole normalize/enrich/metrics pipeline behave exactly as they do
// against live data. Fixture statements satisfy every accounting
// invariant (the balance sheet balances exactly via the retained
// earnings plug).
package fixture

import (
	"context"
	"fmt"
	"time"

	"findash/pkg/core/normalize"
	"findash/pkg/models"

	"github.com/shopspring/decimal"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "fixture" }

// Annualized demo figures, scaled by period length where flow-based.
var (
	demoMRR           = decimal.NewFromInt(151_667)
	demoBeginningCash = decimal.NewFromInt(1_450_000)
)

// FetchReport builds the requested demo report tree.
func (a *Adapter) FetchReport(ctx context.Context, kind models.ReportKind, period models.Period) (*models.RawReportTree, error) {
	switch kind {
	case models.ReportProfitAndLoss:
		return profitAndLossTree(period), nil
	case models.ReportBalanceSheet:
		return balanceSheetTree(), nil
	case models.ReportCashFlow:
		return cashFlowTree(period), nil
	}
	return nil, fmt.Errorf("fixture: unknown report kind %q", kind)
}

// FetchMetric mirrors the scalar metrics the live secondaries expose.
// Values line up with the report trees so reconciliation differences
// come out zero in pure demo mode.
func (a *Adapter) FetchMetric(ctx context.Context, name string, period models.Period) (decimal.Decimal, error) {
	switch name {
	case "mrr":
		return demoMRR, nil
	case "total_cash":
		return decimal.NewFromInt(1_240_000), nil
	case "net_cash_movement":
		return netChange(period), nil
	case "payroll_cost":
		// Payroll lines across COGS and OpEx buckets.
		return scaleFlow(1_670_000, period), nil
	}
	return decimal.Zero, fmt.Errorf("fixture: unknown metric %q", name)
}

// FetchTransactions emits one inflow and one outflow per month whose
// net equals the demo cash-flow net change for the period.
func (a *Adapter) FetchTransactions(ctx context.Context, period models.Period) ([]models.Transaction, error) {
	months := period.Months()
	monthlyIn := scaleFlow(2_000_000, period).Div(decimal.NewFromInt(int64(months)))
	monthlyOut := monthlyIn.Sub(netChange(period).Div(decimal.NewFromInt(int64(months))))

	var out []models.Transaction
	for i := 0; i < months; i++ {
		ts := time.Date(period.Start.Year(), period.Start.Month(), 15, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		out = append(out,
			models.Transaction{Amount: monthlyIn.Round(2), Kind: "credit", Category: "Revenue", Timestamp: ts},
			models.Transaction{Amount: monthlyOut.Round(2), Kind: "debit", Category: "Operating Spend", Timestamp: ts},
		)
	}
	return out, nil
}

// scaleFlow scales an annualized figure to the period and rounds to
// whole dollars, matching the published demo numbers at scale 1.
func scaleFlow(annual int64, period models.Period) decimal.Decimal {
	return decimal.NewFromInt(annual).Mul(period.Scale()).Round(0)
}

// netChange sums the same per-line scaled amounts the cash flow tree
// carries, so the fixture's cash movement metric reconciles to zero at
// any period length despite per-line rounding.
func netChange(period models.Period) decimal.Decimal {
	lines := []int64{
		-368_200, 12_000, 96_000, // net income + adjustments
		-42_000, 72_000, 18_000, 8_000, -6_000, // working capital
		-18_000, -6_000, // investing
	}
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(scaleFlow(line, period))
	}
	return total
}

// =============================================================================
// REPORT TREE BUILDERS
// =============================================================================

func dataRow(label string, amount decimal.Decimal) models.ReportRow {
	return models.ReportRow{
		Type:    models.RowData,
		ColData: []models.Col{{Value: label}, {Value: amount.String()}},
	}
}

func sectionRow(group, label string, rows ...models.ReportRow) models.ReportRow {
	return models.ReportRow{
		Type:    models.RowSection,
		Group:   group,
		ColData: []models.Col{{Value: label}},
		Rows:    rows,
	}
}

// bucketRow is a nested ungrouped section (an OpEx bucket or cash-flow
// sub-grouping) identified by label only.
func bucketRow(label string, rows ...models.ReportRow) models.ReportRow {
	return models.ReportRow{
		Type:    models.RowSection,
		ColData: []models.Col{{Value: label}},
		Rows:    rows,
	}
}

// summaryRow is a section carrying only a summary amount, no detail.
func summaryRow(group, label string, amount decimal.Decimal) models.ReportRow {
	return models.ReportRow{
		Type:    models.RowSection,
		Group:   group,
		ColData: []models.Col{{Value: label}},
		Summary: &models.ReportRow{
			Type:    models.RowData,
			ColData: []models.Col{{Value: label}, {Value: amount.String()}},
		},
	}
}

func profitAndLossTree(period models.Period) *models.RawReportTree {
	s := func(annual int64) decimal.Decimal { return scaleFlow(annual, period) }

	return &models.RawReportTree{
		ReportName: "ProfitAndLoss",
		Rows: []models.ReportRow{
			sectionRow(normalize.GroupIncome, "Income",
				dataRow("Subscription Revenue", s(1_820_000)),
				dataRow("Professional Services", s(180_000)),
			),
			sectionRow(normalize.GroupCOGS, "Cost of Goods Sold",
				dataRow("Hosting & Infrastructure", s(91_000)),
				dataRow("Customer Success (Payroll)", s(210_000)),
				dataRow("Third-Party Software (COGS)", s(36_400)),
				dataRow("Payment Processing Fees", s(18_200)),
			),
			sectionRow(normalize.GroupExpenses, "Expenses",
				bucketRow(normalize.BucketSalesMarketing,
					dataRow("Sales Payroll", s(480_000)),
					dataRow("Marketing Payroll", s(180_000)),
					dataRow("Advertising & Demand Gen", s(240_000)),
					dataRow("Sales Tools & Software", s(36_000)),
				),
				bucketRow(normalize.BucketResearchDev,
					dataRow("Engineering Payroll", s(560_000)),
					dataRow("R&D Software & Tools", s(48_000)),
				),
				bucketRow(normalize.BucketGeneralAdmin,
					dataRow("G&A Payroll", s(240_000)),
					dataRow("Legal & Professional", s(72_000)),
					dataRow("Office & Facilities", s(36_000)),
					dataRow("Insurance", s(18_000)),
					dataRow("Other G&A", s(24_000)),
				),
			),
			summaryRow(normalize.GroupDepreciation, "Depreciation", s(12_000)),
			summaryRow(normalize.GroupInterest, "Interest Expense", s(4_800)),
		},
	}
}

func balanceSheetTree() *models.RawReportTree {
	n := decimal.NewFromInt

	// The retained earnings deficit is the plug that makes
	// Assets = Liabilities + Equity hold exactly.
	totalAssets := n(1_240_000 + 48_300 + 210_000 + 36_000 + 42_000 + 18_000 + 12_000)
	totalLiabilities := n(68_000 + 24_000 + 62_000 + 145_000 + 18_000 + 0 + 8_000)
	retained := totalAssets.Sub(totalLiabilities).Sub(n(5_000)).Sub(n(4_800_000))

	return &models.RawReportTree{
		ReportName: "BalanceSheet",
		Rows: []models.ReportRow{
			sectionRow(normalize.GroupCurrentAssets, "Current Assets",
				dataRow(models.LabelCash, n(1_240_000)),
				dataRow(models.LabelStripeBalance, n(48_300)),
				dataRow("Accounts Receivable", n(210_000)),
				dataRow("Prepaid Expenses", n(36_000)),
			),
			sectionRow(normalize.GroupNonCurrentAssets, "Non-Current Assets",
				dataRow("Property & Equipment (Net)", n(42_000)),
				dataRow("Intangible Assets", n(18_000)),
				dataRow("Security Deposits", n(12_000)),
			),
			sectionRow(normalize.GroupCurrentLiabilities, "Current Liabilities",
				dataRow("Accounts Payable", n(68_000)),
				dataRow(models.LabelCardBalance, n(24_000)),
				dataRow(models.LabelAccruedPayroll, n(62_000)),
				dataRow(models.LabelDeferredRevenue, n(145_000)),
				dataRow("Other Accrued Liabilities", n(18_000)),
			),
			sectionRow(normalize.GroupNonCurrentLiabilities, "Non-Current Liabilities",
				dataRow("Long-Term Debt", n(0)),
				dataRow("Deferred Rent", n(8_000)),
			),
			sectionRow(normalize.GroupTotalEquity, "Equity",
				dataRow("Common Stock", n(5_000)),
				dataRow("Additional Paid-In Capital", n(4_800_000)),
				dataRow("Retained Earnings (Deficit)", retained),
			),
		},
	}
}

func cashFlowTree(period models.Period) *models.RawReportTree {
	s := func(annual int64) decimal.Decimal { return scaleFlow(annual, period) }

	return &models.RawReportTree{
		ReportName: "CashFlow",
		Rows: []models.ReportRow{
			sectionRow(normalize.GroupOperatingActivities, "Operating Activities",
				dataRow("Net Income", s(-368_200)),
				bucketRow("Adjustments",
					dataRow("Depreciation & Amortization", s(12_000)),
					dataRow("Stock-Based Compensation", s(96_000)),
				),
				bucketRow("Working Capital Changes",
					dataRow("Increase in Accounts Receivable", s(-42_000)),
					dataRow("Increase in Deferred Revenue", s(72_000)),
					dataRow("Increase in Accounts Payable", s(18_000)),
					dataRow("Change in Accrued Liabilities", s(8_000)),
					dataRow("Change in Prepaid Expenses", s(-6_000)),
				),
			),
			sectionRow(normalize.GroupInvestingActivities, "Investing Activities",
				dataRow("Capital Expenditures", s(-18_000)),
				dataRow("Purchase of Intangibles", s(-6_000)),
			),
			sectionRow(normalize.GroupFinancingActivities, "Financing Activities",
				dataRow("Proceeds from Stock Issuance", decimal.Zero),
				dataRow("Repayment of Debt", decimal.Zero),
			),
			summaryRow(normalize.GroupBeginningCash, "Beginning Cash", demoBeginningCash),
		},
	}
}
