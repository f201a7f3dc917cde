package enrich

import (
	"context"
	"errors"
	"testing"

	"findash/pkg/core/normalize"
	"findash/pkg/models"

	"github.com/shopspring/decimal"
)

func fetchValue(v int64) func(ctx context.Context) (decimal.Decimal, error) {
	return func(ctx context.Context) (decimal.Decimal, error) {
		return decimal.NewFromInt(v), nil
	}
}

func fetchError(msg string) func(ctx context.Context) (decimal.Decimal, error) {
	return func(ctx context.Context) (decimal.Decimal, error) {
		return decimal.Zero, errors.New(msg)
	}
}

func TestRun_CapturesErrorsWithoutAborting(t *testing.T) {
	steps := []Step{
		{Source: "mercury", Field: models.LabelCash, Policy: Override, Fetch: fetchValue(900)},
		{Source: "stripe", Field: models.LabelStripeBalance, Policy: Override, Fetch: fetchError("api down")},
		{Source: "gusto", Field: models.LabelAccruedPayroll, Policy: Override, Fetch: fetchValue(70)},
	}

	results := Run(context.Background(), steps)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("first step expected success, got %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("second step expected captured error")
	}
	if results[2].Err != nil {
		t.Errorf("third step must still run after a failure, got %v", results[2].Err)
	}
}

func demoBalanceSheet() *models.BalanceSheet {
	stmt := &models.BalanceSheet{
		CurrentAssets:      models.NewSection("Current Assets"),
		NonCurrentAssets:   models.NewSection("Non-Current Assets"),
		CurrentLiabilities: models.NewSection("Current Liabilities"),
		Equity:             models.NewSection("Equity"),
	}
	stmt.CurrentAssets.Set(models.LabelCash, decimal.NewFromInt(1000))
	stmt.CurrentAssets.Set("Accounts Receivable", decimal.NewFromInt(200))
	stmt.CurrentLiabilities.Set("Accounts Payable", decimal.NewFromInt(300))
	stmt.Equity.Set("Retained Earnings", decimal.NewFromInt(900))
	normalize.RecomputeBalance(stmt)
	return stmt
}

func TestApplyBalanceSheet_OverrideShiftsTotalsByDelta(t *testing.T) {
	stmt := demoBalanceSheet()
	before := stmt.TotalAssets

	results := Run(context.Background(), []Step{
		{Source: "mercury", Field: models.LabelCash, Policy: Override, Fetch: fetchValue(1250)},
	})
	ApplyBalanceSheet(stmt, results)

	// Total assets must move by exactly the cash delta (+250).
	if got := stmt.TotalAssets.Sub(before); got.String() != "250" {
		t.Errorf("TotalAssets delta expected 250, got %s", got)
	}
	if cash, _ := stmt.CurrentAssets.Get(models.LabelCash); cash.String() != "1250" {
		t.Errorf("cash expected 1250, got %s", cash)
	}
	// Cash ratio tracks the new cash figure: 1250 / 300.
	if stmt.CashRatio.String() != "4.1667" {
		t.Errorf("CashRatio expected 4.1667, got %s", stmt.CashRatio)
	}
}

func TestApplyBalanceSheet_Idempotent(t *testing.T) {
	stmt := demoBalanceSheet()
	results := Run(context.Background(), []Step{
		{Source: "mercury", Field: models.LabelCash, Policy: Override, Fetch: fetchValue(1250)},
		{Source: "brex", Field: models.LabelCardBalance, Policy: Override, Fetch: fetchValue(45)},
	})

	ApplyBalanceSheet(stmt, results)
	firstAssets := stmt.TotalAssets
	firstLiabilities := stmt.TotalLiabilities
	firstItemCount := len(stmt.CurrentAssets.Items)

	ApplyBalanceSheet(stmt, results)

	if !stmt.TotalAssets.Equal(firstAssets) {
		t.Errorf("second apply changed TotalAssets: %s vs %s", stmt.TotalAssets, firstAssets)
	}
	if !stmt.TotalLiabilities.Equal(firstLiabilities) {
		t.Errorf("second apply changed TotalLiabilities: %s vs %s", stmt.TotalLiabilities, firstLiabilities)
	}
	if len(stmt.CurrentAssets.Items) != firstItemCount {
		t.Errorf("second apply duplicated line items: %d vs %d", len(stmt.CurrentAssets.Items), firstItemCount)
	}
}

func TestApplyBalanceSheet_FailedStepKeepsCanonicalValue(t *testing.T) {
	stmt := demoBalanceSheet()
	results := Run(context.Background(), []Step{
		{Source: "mercury", Field: models.LabelCash, Policy: Override, Fetch: fetchError("timeout")},
	})
	ApplyBalanceSheet(stmt, results)

	if cash, _ := stmt.CurrentAssets.Get(models.LabelCash); cash.String() != "1000" {
		t.Errorf("failed override must not touch the field: expected 1000, got %s", cash)
	}
}

func TestApplyIncomeStatement_MRROverrideAndCompareOnly(t *testing.T) {
	stmt := &models.IncomeStatement{
		TotalRevenue: decimal.NewFromInt(2_000_000),
	}

	results := Run(context.Background(), []Step{
		{Source: "stripe", Field: FieldMRR, Policy: Override, Fetch: fetchValue(155_000)},
		{Source: "hubspot", Field: FieldTotalRevenue, Policy: CompareOnly, Fetch: fetchValue(1_950_000)},
	})
	ApplyIncomeStatement(stmt, results)

	if stmt.MRR.String() != "155000" {
		t.Errorf("MRR expected 155000, got %s", stmt.MRR)
	}
	if stmt.ARR.String() != "1860000" {
		t.Errorf("ARR expected 1860000, got %s", stmt.ARR)
	}
	// Compare-only never mutates the canonical figure.
	if stmt.TotalRevenue.String() != "2000000" {
		t.Errorf("TotalRevenue must stay 2000000, got %s", stmt.TotalRevenue)
	}
	if len(stmt.Reconciliations) != 1 {
		t.Fatalf("expected 1 reconciliation, got %d", len(stmt.Reconciliations))
	}
	rec := stmt.Reconciliations[0]
	if rec.Difference.String() != "50000" {
		t.Errorf("reconciliation difference expected 50000, got %s", rec.Difference)
	}
	if rec.Source != "hubspot" {
		t.Errorf("reconciliation source expected hubspot, got %s", rec.Source)
	}
}

func TestApplyIncomeStatement_PayrollCanonicalSumsPayrollLines(t *testing.T) {
	stmt := &models.IncomeStatement{
		COGS: models.Section{Name: "Cost of Goods Sold", Items: []models.LineItem{
			{Label: "Customer Success (Payroll)", Amount: decimal.NewFromInt(210_000)},
			{Label: "Hosting & Infrastructure", Amount: decimal.NewFromInt(91_000)},
		}},
		OpEx: []models.Section{
			{Name: normalize.BucketSalesMarketing, Items: []models.LineItem{
				{Label: "Sales Payroll", Amount: decimal.NewFromInt(480_000)},
				{Label: "Advertising & Demand Gen", Amount: decimal.NewFromInt(240_000)},
			}},
			{Name: normalize.BucketResearchDev, Items: []models.LineItem{
				{Label: "Engineering Payroll", Amount: decimal.NewFromInt(560_000)},
			}},
		},
	}

	results := Run(context.Background(), []Step{
		{Source: "gusto", Field: FieldPayrollCost, Policy: CompareOnly, Fetch: fetchValue(1_260_000)},
	})
	ApplyIncomeStatement(stmt, results)

	if len(stmt.Reconciliations) != 1 {
		t.Fatalf("expected 1 reconciliation, got %d", len(stmt.Reconciliations))
	}
	// Canonical: 210,000 + 480,000 + 560,000 = 1,250,000.
	rec := stmt.Reconciliations[0]
	if rec.Canonical.String() != "1250000" {
		t.Errorf("payroll canonical expected 1250000, got %s", rec.Canonical)
	}
	if rec.Difference.String() != "-10000" {
		t.Errorf("difference expected -10000, got %s", rec.Difference)
	}
}

func TestApplyCashFlow_CompareOnly(t *testing.T) {
	stmt := &models.CashFlowStatement{
		CFO:             decimal.NewFromInt(-210_200),
		NetChangeInCash: decimal.NewFromInt(-234_200),
	}

	results := Run(context.Background(), []Step{
		{Source: "mercury", Field: FieldNetChangeInCash, Policy: CompareOnly, Fetch: fetchValue(-230_000)},
	})
	ApplyCashFlow(stmt, results)

	if stmt.NetChangeInCash.String() != "-234200" {
		t.Errorf("canonical net change must not move, got %s", stmt.NetChangeInCash)
	}
	if len(stmt.Reconciliations) != 1 {
		t.Fatalf("expected 1 reconciliation, got %d", len(stmt.Reconciliations))
	}
	if stmt.Reconciliations[0].Difference.String() != "-4200" {
		t.Errorf("difference expected -4200, got %s", stmt.Reconciliations[0].Difference)
	}
}
