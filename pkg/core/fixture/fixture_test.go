package fixture

import (
	"context"
	"testing"
	"time"

	"findash/pkg/core/normalize"
	"findash/pkg/models"
)

func yearPeriod() models.Period {
	return models.NewPeriod(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	)
}

func TestFixtureIncomeStatement_TwelveMonths(t *testing.T) {
	adapter := New()
	tree, err := adapter.FetchReport(context.Background(), models.ReportProfitAndLoss, yearPeriod())
	if err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}

	stmt := normalize.IncomeStatement(tree, yearPeriod())

	if stmt.TotalRevenue.String() != "2000000" {
		t.Errorf("TotalRevenue expected 2000000, got %s", stmt.TotalRevenue)
	}
	if stmt.TotalCOGS.String() != "355600" {
		t.Errorf("TotalCOGS expected 355600, got %s", stmt.TotalCOGS)
	}
	if stmt.GrossProfit.String() != "1644400" {
		t.Errorf("GrossProfit expected 1644400, got %s", stmt.GrossProfit)
	}
	if stmt.TotalSM.String() != "936000" {
		t.Errorf("TotalSM expected 936000, got %s", stmt.TotalSM)
	}
	if stmt.TotalRD.String() != "608000" {
		t.Errorf("TotalRD expected 608000, got %s", stmt.TotalRD)
	}
	if stmt.TotalGA.String() != "390000" {
		t.Errorf("TotalGA expected 390000, got %s", stmt.TotalGA)
	}
	if stmt.TotalOpEx.String() != "1934000" {
		t.Errorf("TotalOpEx expected 1934000, got %s", stmt.TotalOpEx)
	}
	if stmt.NetIncome.String() != "-306400" {
		t.Errorf("NetIncome expected -306400, got %s", stmt.NetIncome)
	}
	if stmt.GrossMarginPct.String() != "82.22" {
		t.Errorf("GrossMarginPct expected 82.22, got %s", stmt.GrossMarginPct)
	}
}

func TestFixtureIncomeStatement_ScalesToPeriod(t *testing.T) {
	adapter := New()
	quarter := models.NewPeriod(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	tree, err := adapter.FetchReport(context.Background(), models.ReportProfitAndLoss, quarter)
	if err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}

	stmt := normalize.IncomeStatement(tree, quarter)

	if stmt.TotalRevenue.String() != "500000" {
		t.Errorf("quarterly TotalRevenue expected 500000, got %s", stmt.TotalRevenue)
	}
	if stmt.TotalCOGS.String() != "88900" {
		t.Errorf("quarterly TotalCOGS expected 88900, got %s", stmt.TotalCOGS)
	}
}

func TestFixtureBalanceSheet_BalancesExactly(t *testing.T) {
	adapter := New()
	asOf := models.AsOf(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	tree, err := adapter.FetchReport(context.Background(), models.ReportBalanceSheet, asOf)
	if err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}

	stmt := normalize.BalanceSheet(tree, asOf)

	if stmt.TotalAssets.String() != "1606300" {
		t.Errorf("TotalAssets expected 1606300, got %s", stmt.TotalAssets)
	}
	if stmt.TotalLiabilities.String() != "325000" {
		t.Errorf("TotalLiabilities expected 325000, got %s", stmt.TotalLiabilities)
	}
	if !stmt.TotalAssets.Equal(stmt.TotalLiabilitiesAndEquity) {
		t.Errorf("fixture sheet must balance exactly: assets %s vs L+E %s",
			stmt.TotalAssets, stmt.TotalLiabilitiesAndEquity)
	}
	if cash, _ := stmt.CurrentAssets.Get(models.LabelCash); cash.String() != "1240000" {
		t.Errorf("cash expected 1240000, got %s", cash)
	}
	// Retained earnings is the plug: total equity fills the gap.
	if stmt.TotalEquity.String() != "1281300" {
		t.Errorf("TotalEquity expected 1281300, got %s", stmt.TotalEquity)
	}
}

func TestFixtureCashFlow_RollForward(t *testing.T) {
	adapter := New()
	tree, err := adapter.FetchReport(context.Background(), models.ReportCashFlow, yearPeriod())
	if err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}

	stmt := normalize.CashFlowStatement(tree, yearPeriod())

	if stmt.NetIncome.String() != "-368200" {
		t.Errorf("NetIncome expected -368200, got %s", stmt.NetIncome)
	}
	if stmt.CFO.String() != "-210200" {
		t.Errorf("CFO expected -210200, got %s", stmt.CFO)
	}
	if stmt.CFI.String() != "-24000" {
		t.Errorf("CFI expected -24000, got %s", stmt.CFI)
	}
	if !stmt.CFF.IsZero() {
		t.Errorf("CFF expected 0, got %s", stmt.CFF)
	}
	if stmt.NetChangeInCash.String() != "-234200" {
		t.Errorf("NetChangeInCash expected -234200, got %s", stmt.NetChangeInCash)
	}
	if stmt.BeginningCash.String() != "1450000" {
		t.Errorf("BeginningCash expected 1450000, got %s", stmt.BeginningCash)
	}
	if stmt.EndingCash.String() != "1215800" {
		t.Errorf("EndingCash expected 1215800, got %s", stmt.EndingCash)
	}
	if stmt.MonthlyBurnRate.String() != "19516.67" {
		t.Errorf("burn expected 19516.67, got %s", stmt.MonthlyBurnRate)
	}
	if stmt.Runway.Infinite || stmt.Runway.Months != 62 {
		t.Errorf("runway expected 62 months, got %+v", stmt.Runway)
	}
}

func TestFixtureMetricMatchesCashFlow(t *testing.T) {
	adapter := New()
	period := yearPeriod()

	movement, err := adapter.FetchMetric(context.Background(), "net_cash_movement", period)
	if err != nil {
		t.Fatalf("FetchMetric failed: %v", err)
	}
	tree, _ := adapter.FetchReport(context.Background(), models.ReportCashFlow, period)
	stmt := normalize.CashFlowStatement(tree, period)

	if !movement.Equal(stmt.NetChangeInCash) {
		t.Errorf("metric and report must reconcile: metric %s vs report %s",
			movement, stmt.NetChangeInCash)
	}
}

func TestFixtureTransactionsNetToCashMovement(t *testing.T) {
	adapter := New()
	period := yearPeriod()

	txns, err := adapter.FetchTransactions(context.Background(), period)
	if err != nil {
		t.Fatalf("FetchTransactions failed: %v", err)
	}
	if len(txns) != 24 {
		t.Fatalf("expected 24 transactions over 12 months, got %d", len(txns))
	}
	for _, txn := range txns {
		if txn.Timestamp.Before(period.Start) || txn.Timestamp.After(period.End) {
			t.Errorf("transaction at %s is outside the period", txn.Timestamp.Format("2006-01-02"))
		}
	}
}

func TestFixtureUnknownKind(t *testing.T) {
	adapter := New()
	if _, err := adapter.FetchReport(context.Background(), models.ReportKind("Nonsense"), yearPeriod()); err == nil {
		t.Error("unknown report kind should return an error")
	}
	if _, err := adapter.FetchMetric(context.Background(), "nonsense", yearPeriod()); err == nil {
		t.Error("unknown metric should return an error")
	}
}
