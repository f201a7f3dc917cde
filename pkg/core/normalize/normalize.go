// Package normalize converts raw vendor report trees into canonical
// statements. The walk recurses fully into nested Section/Data rows so
// multi-level GL detail survives into the canonical shape; totals are
// always recomputed from collected line items (or taken from the section
// summary when a section carries no detail) and never trusted from the
// raw tree. A missing group or non-numeric value defaults that line to
// zero; one bad row never aborts the parse.
package normalize

import (
	"findash/pkg/core/metrics"
	"findash/pkg/models"

	"github.com/shopspring/decimal"
)

// Report group vocabulary. Adapters translate vendor jargon into these
// keys at their boundary; the normalizer only ever sees this set.
const (
	GroupIncome       = "Income"
	GroupCOGS         = "COGS"
	GroupExpenses     = "Expenses"
	GroupDepreciation = "Depreciation"
	GroupInterest     = "Interest"
	GroupNetIncome    = "NetIncome"

	GroupCurrentAssets         = "CurrentAssets"
	GroupNonCurrentAssets      = "NonCurrentAssets"
	GroupTotalAssets           = "TotalAssets"
	GroupCurrentLiabilities    = "CurrentLiabilities"
	GroupNonCurrentLiabilities = "NonCurrentLiabilities"
	GroupTotalLiabilities      = "TotalLiabilities"
	GroupTotalEquity           = "TotalEquity"

	GroupOperatingActivities = "OperatingActivities"
	GroupInvestingActivities = "InvestingActivities"
	GroupFinancingActivities = "FinancingActivities"
	GroupBeginningCash       = "BeginningCash"
)

// OpEx bucket names the canonical Income Statement understands.
const (
	BucketSalesMarketing = "Sales & Marketing"
	BucketResearchDev    = "Research & Development"
	BucketGeneralAdmin   = "General & Administrative"
)

// sectionData is the flattened view of one vendor group: its direct
// line items, nested one-level buckets, and the recomputed total.
type sectionData struct {
	items   []models.LineItem
	buckets []models.Section
	total   decimal.Decimal
}

// flatReport maps every Section group found anywhere in the tree.
type flatReport map[string]sectionData

// flatten walks the report tree depth-first and collects every
// Section-typed row keyed by its group.
func flatten(tree *models.RawReportTree) flatReport {
	flat := make(flatReport)
	if tree == nil {
		return flat
	}
	collectSections(tree.Rows, flat)
	return flat
}

func collectSections(rows []models.ReportRow, flat flatReport) {
	for _, row := range rows {
		if row.Type == models.RowSection && row.Group != "" {
			flat[row.Group] = collectSection(row)
		}
		// Grouped sections can appear below anonymous wrapper rows.
		collectSections(row.Rows, flat)
	}
}

// collectSection gathers a section's detail: direct Data rows become
// line items, nested Section rows become buckets (their own children
// flattened, the canonical shape is at most two levels deep). The
// total is the sum of collected detail, or the summary amount when the
// section carries no detail (the shallow live-report case).
func collectSection(row models.ReportRow) sectionData {
	var data sectionData
	for _, child := range row.Rows {
		switch child.Type {
		case models.RowData:
			data.items = append(data.items, models.LineItem{
				Label:  colValue(child.ColData, 0),
				Amount: parseAmountCol(child.ColData, 1),
			})
		case models.RowSection:
			// Nested groups are also recorded at the top level by the
			// caller; here they become a named bucket.
			bucket := models.Section{Name: bucketName(child)}
			bucket.Items = flattenItems(child)
			data.buckets = append(data.buckets, bucket)
		}
	}

	if len(data.items) == 0 && len(data.buckets) == 0 {
		data.total = summaryAmount(row)
		return data
	}
	total := decimal.Zero
	for _, it := range data.items {
		total = total.Add(it.Amount)
	}
	for _, b := range data.buckets {
		total = total.Add(b.Total())
	}
	data.total = total
	return data
}

// flattenItems collapses a subsection (and anything below it) into a
// flat item list.
func flattenItems(row models.ReportRow) []models.LineItem {
	var items []models.LineItem
	for _, child := range row.Rows {
		switch child.Type {
		case models.RowData:
			items = append(items, models.LineItem{
				Label:  colValue(child.ColData, 0),
				Amount: parseAmountCol(child.ColData, 1),
			})
		case models.RowSection:
			items = append(items, flattenItems(child)...)
		}
	}
	if len(items) == 0 {
		if total := summaryAmount(row); !total.IsZero() {
			items = append(items, models.LineItem{Label: bucketName(row), Amount: total})
		}
	}
	return items
}

func bucketName(row models.ReportRow) string {
	if name := colValue(row.ColData, 0); name != "" {
		return name
	}
	return row.Group
}

func summaryAmount(row models.ReportRow) decimal.Decimal {
	if row.Summary != nil {
		return parseAmountCol(row.Summary.ColData, 1)
	}
	return parseAmountCol(row.ColData, 1)
}

func colValue(cols []models.Col, i int) string {
	if i >= len(cols) {
		return ""
	}
	return cols[i].Value
}

// parseAmountCol reads the amount column; anything missing or
// non-numeric defaults to zero.
func parseAmountCol(cols []models.Col, i int) decimal.Decimal {
	if i >= len(cols) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cols[i].Value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (f flatReport) total(group string) decimal.Decimal {
	return f[group].total
}

// section materializes a group into a canonical Section. When the group
// carried no detail rows, its recomputed total becomes a single line
// item under the given fallback label.
func (f flatReport) section(group, name, fallbackLabel string) models.Section {
	data := f[group]
	section := models.Section{Name: name}
	if len(data.items) > 0 {
		section.Items = append(section.Items, data.items...)
		return section
	}
	if !data.total.IsZero() {
		section.Set(fallbackLabel, data.total)
	}
	return section
}

// IncomeStatement normalizes a P&L report tree.
func IncomeStatement(tree *models.RawReportTree, period models.Period) *models.IncomeStatement {
	flat := flatten(tree)

	stmt := &models.IncomeStatement{
		Period:  period,
		Revenue: flat.section(GroupIncome, "Revenue", "Total Revenue"),
		COGS:    flat.section(GroupCOGS, "Cost of Goods Sold", "Total COGS"),
	}

	expenses := flat[GroupExpenses]
	if len(expenses.buckets) > 0 {
		stmt.OpEx = expenses.buckets
	} else {
		stmt.OpEx = []models.Section{flat.section(GroupExpenses, "Operating Expenses", "Total OpEx")}
	}

	stmt.TotalRevenue = flat.total(GroupIncome)
	stmt.TotalCOGS = flat.total(GroupCOGS)
	stmt.TotalOpEx = flat.total(GroupExpenses)
	stmt.Depreciation = flat.total(GroupDepreciation)
	stmt.Interest = flat.total(GroupInterest)

	for _, bucket := range stmt.OpEx {
		switch bucket.Name {
		case BucketSalesMarketing:
			stmt.TotalSM = bucket.Total()
		case BucketResearchDev:
			stmt.TotalRD = bucket.Total()
		case BucketGeneralAdmin:
			stmt.TotalGA = bucket.Total()
		}
	}

	RecomputeIncome(stmt)
	return stmt
}

// RecomputeIncome rebuilds every derived Income Statement figure from
// the base totals. Enrichment calls this after an override so the
// identities hold by construction.
func RecomputeIncome(stmt *models.IncomeStatement) {
	stmt.GrossProfit = stmt.TotalRevenue.Sub(stmt.TotalCOGS)
	stmt.EBITDA = stmt.GrossProfit.Sub(stmt.TotalOpEx)
	stmt.EBIT = stmt.EBITDA.Sub(stmt.Depreciation)
	stmt.NetIncome = stmt.EBIT.Sub(stmt.Interest)

	stmt.GrossMarginPct = metrics.MarginPct(stmt.GrossProfit, stmt.TotalRevenue)
	stmt.EBITDAMarginPct = metrics.MarginPct(stmt.EBITDA, stmt.TotalRevenue)
	stmt.NetMarginPct = metrics.MarginPct(stmt.NetIncome, stmt.TotalRevenue)
}

// BalanceSheet normalizes a balance sheet report tree as of a date.
func BalanceSheet(tree *models.RawReportTree, period models.Period) *models.BalanceSheet {
	flat := flatten(tree)

	stmt := &models.BalanceSheet{
		AsOf:                  period.End,
		CurrentAssets:         flat.section(GroupCurrentAssets, "Current Assets", "Total Current Assets"),
		NonCurrentAssets:      flat.section(GroupNonCurrentAssets, "Non-Current Assets", "Total Non-Current Assets"),
		CurrentLiabilities:    flat.section(GroupCurrentLiabilities, "Current Liabilities", "Total Current Liabilities"),
		NonCurrentLiabilities: flat.section(GroupNonCurrentLiabilities, "Non-Current Liabilities", "Total Non-Current Liabilities"),
		Equity:                flat.section(GroupTotalEquity, "Equity", "Total Equity"),
	}

	// Shallow live reports sometimes carry only grand totals. Derive the
	// missing side rather than dropping it.
	if _, ok := flat[GroupNonCurrentAssets]; !ok {
		gap := flat.total(GroupTotalAssets).Sub(flat.total(GroupCurrentAssets))
		if !gap.IsZero() {
			stmt.NonCurrentAssets.Set("Total Non-Current Assets", gap)
		}
	}
	if _, ok := flat[GroupNonCurrentLiabilities]; !ok {
		gap := flat.total(GroupTotalLiabilities).Sub(flat.total(GroupCurrentLiabilities))
		if !gap.IsZero() {
			stmt.NonCurrentLiabilities.Set("Total Non-Current Liabilities", gap)
		}
	}

	RecomputeBalance(stmt)
	return stmt
}

// RecomputeBalance rebuilds balance sheet totals and ratios bottom-up
// from the section line items.
func RecomputeBalance(stmt *models.BalanceSheet) {
	stmt.TotalCurrentAssets = stmt.CurrentAssets.Total()
	stmt.TotalNonCurrentAssets = stmt.NonCurrentAssets.Total()
	stmt.TotalAssets = stmt.TotalCurrentAssets.Add(stmt.TotalNonCurrentAssets)
	stmt.TotalCurrentLiabilities = stmt.CurrentLiabilities.Total()
	stmt.TotalNonCurrentLiabilities = stmt.NonCurrentLiabilities.Total()
	stmt.TotalLiabilities = stmt.TotalCurrentLiabilities.Add(stmt.TotalNonCurrentLiabilities)
	stmt.TotalEquity = stmt.Equity.Total()
	stmt.TotalLiabilitiesAndEquity = stmt.TotalLiabilities.Add(stmt.TotalEquity)

	stmt.CurrentRatio = metrics.Ratio(stmt.TotalCurrentAssets, stmt.TotalCurrentLiabilities)
	cash, _ := stmt.CurrentAssets.Get(models.LabelCash)
	stmt.CashRatio = metrics.Ratio(cash, stmt.TotalCurrentLiabilities)
}

// CashFlowStatement normalizes a cash flow report tree (indirect method).
func CashFlowStatement(tree *models.RawReportTree, period models.Period) *models.CashFlowStatement {
	flat := flatten(tree)

	stmt := &models.CashFlowStatement{
		Period:         period,
		Adjustments:    models.NewSection("Adjustments"),
		WorkingCapital: models.NewSection("Working Capital Changes"),
		Investing:      flat.section(GroupInvestingActivities, "Investing Activities", "Net Cash from Investing"),
		Financing:      flat.section(GroupFinancingActivities, "Financing Activities", "Net Cash from Financing"),
	}

	operating := flat[GroupOperatingActivities]
	for _, it := range operating.items {
		if it.Label == "Net Income" {
			stmt.NetIncome = it.Amount
		}
	}
	for _, bucket := range operating.buckets {
		switch bucket.Name {
		case "Adjustments":
			stmt.Adjustments = bucket
		case "Working Capital Changes":
			stmt.WorkingCapital = bucket
		}
	}

	stmt.CFO = flat.total(GroupOperatingActivities)
	stmt.CFI = flat.total(GroupInvestingActivities)
	stmt.CFF = flat.total(GroupFinancingActivities)
	stmt.BeginningCash = flat.total(GroupBeginningCash)

	RecomputeCashFlow(stmt, period.Months())
	return stmt
}

// RecomputeCashFlow rebuilds the roll-forward and burn metrics from the
// three activity totals.
func RecomputeCashFlow(stmt *models.CashFlowStatement, months int) {
	stmt.TotalAdjustments = stmt.Adjustments.Total()
	stmt.TotalWCChanges = stmt.WorkingCapital.Total()
	stmt.NetChangeInCash = stmt.CFO.Add(stmt.CFI).Add(stmt.CFF)
	stmt.EndingCash = stmt.BeginningCash.Add(stmt.NetChangeInCash)
	stmt.MonthlyBurnRate = metrics.MonthlyBurnRate(stmt.NetChangeInCash, months)
	stmt.Runway = metrics.RunwayMonths(stmt.EndingCash, stmt.MonthlyBurnRate)
}
