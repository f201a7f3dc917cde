// Package assemble orchestrates the statement build: pick the primary
// source (general ledger or fixture), normalize its report, overlay
// configured secondary sources, compute derived metrics, and return the
// finalized statement. One entry point per statement variant; each build
// is request-scoped and shares no state with other builds.
package assemble

import (
	"context"
	"fmt"
	"time"

	"findash/pkg/config"
	"findash/pkg/connectors"
	"findash/pkg/core/enrich"
	"findash/pkg/core/fixture"
	"findash/pkg/core/normalize"
	"findash/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// balanceTolerance is the materiality threshold for the balance sheet
// equation; a gap beyond $1 is surfaced as a warning, never an error.
var balanceTolerance = decimal.NewFromInt(1)

// ReportSource is the aggregate-report capability: the general ledger
// of record, or the fixture standing in for it.
type ReportSource interface {
	Name() string
	FetchReport(ctx context.Context, kind models.ReportKind, period models.Period) (*models.RawReportTree, error)
}

// Capability interfaces for the secondary sources. Implementations are
// the vendor connectors; tests substitute stubs.
type BankSource interface {
	TotalCash(ctx context.Context) (decimal.Decimal, error)
	NetCashMovement(ctx context.Context, period models.Period) (decimal.Decimal, error)
}

type PaymentsSource interface {
	MRR(ctx context.Context) (decimal.Decimal, error)
	AvailableBalance(ctx context.Context) (decimal.Decimal, error)
	DeferredRevenue(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
	PayoutsInPeriod(ctx context.Context, period models.Period) (decimal.Decimal, error)
}

type PayrollSource interface {
	PayrollCost(ctx context.Context, period models.Period) (decimal.Decimal, error)
	AccruedWages(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
}

type CardSource interface {
	CardBalance(ctx context.Context) (decimal.Decimal, error)
}

type CRMSource interface {
	ClosedWonInPeriod(ctx context.Context, period models.Period) (decimal.Decimal, error)
}

type BudgetSource interface {
	BudgetTotal(ctx context.Context, period models.Period) (decimal.Decimal, error)
}

// Assembler builds finalized statements from whatever sources the
// configuration makes available. A missing secondary integration is a
// no-op; a missing primary integration falls back to the fixture.
type Assembler struct {
	cfg     config.Config
	ledger  ReportSource
	fixture ReportSource

	bank     BankSource
	payments PaymentsSource
	payroll  PayrollSource
	card     CardSource
	crm      CRMSource
	budget   BudgetSource

	// demoMetrics backs the MRR step in demo mode so the demo income
	// statement reads like a live one.
	demoMetrics *fixture.Adapter
}

// New wires an assembler from configuration: each connector is built
// only when its integration check passes, so unconfigured vendors are
// structurally absent rather than failing at call time.
func New(cfg config.Config) *Assembler {
	demo := fixture.New()
	a := &Assembler{cfg: cfg, fixture: demo, demoMetrics: demo}

	if cfg.IsConfigured(config.IntegrationQuickBooks) {
		a.ledger = connectors.NewQuickBooks(cfg)
	}
	if cfg.IsConfigured(config.IntegrationMercury) {
		a.bank = connectors.NewMercury(cfg)
	}
	if cfg.IsConfigured(config.IntegrationStripe) {
		a.payments = connectors.NewStripe(cfg)
	}
	if cfg.IsConfigured(config.IntegrationGusto) {
		a.payroll = connectors.NewGusto(cfg)
	}
	if cfg.IsConfigured(config.IntegrationBrex) {
		a.card = connectors.NewBrex(cfg)
	}
	if cfg.IsConfigured(config.IntegrationHubSpot) {
		a.crm = connectors.NewHubSpot(cfg)
	}
	if cfg.IsConfigured(config.IntegrationGoogleSheets) {
		a.budget = &lazySheets{cfg: cfg}
	}
	return a
}

// Setters for injecting custom sources (used by tests).
func (a *Assembler) SetLedger(src ReportSource)     { a.ledger = src }
func (a *Assembler) SetFixture(src ReportSource)    { a.fixture = src }
func (a *Assembler) SetBank(src BankSource)         { a.bank = src }
func (a *Assembler) SetPayments(src PaymentsSource) { a.payments = src }
func (a *Assembler) SetPayroll(src PayrollSource)   { a.payroll = src }
func (a *Assembler) SetCard(src CardSource)         { a.card = src }
func (a *Assembler) SetCRM(src CRMSource)           { a.crm = src }
func (a *Assembler) SetBudget(src BudgetSource)     { a.budget = src }

// primarySource picks the source of record: the configured ledger, or
// the fixture in demo mode or when the ledger is absent.
func (a *Assembler) primarySource() ReportSource {
	if !a.cfg.UseDemoData && a.ledger != nil {
		return a.ledger
	}
	return a.fixture
}

// IncomeStatement builds the P&L for a period.
func (a *Assembler) IncomeStatement(ctx context.Context, period models.Period) (*models.IncomeStatement, error) {
	src := a.primarySource()
	tree, err := src.FetchReport(ctx, models.ReportProfitAndLoss, period)
	if err != nil {
		return nil, fmt.Errorf("income statement: primary source %s: %w", src.Name(), err)
	}

	stmt := normalize.IncomeStatement(tree, period)
	stmt.BuildID = uuid.NewString()
	stmt.Source = src.Name()

	results := enrich.Run(ctx, a.incomeSteps(period))
	enrich.ApplyIncomeStatement(stmt, results)

	fmt.Printf("[ASSEMBLE] income statement %s built from %s (%d enrichment steps)\n",
		period, stmt.Source, len(results))
	return stmt, nil
}

// BalanceSheet builds the balance sheet as of a date.
func (a *Assembler) BalanceSheet(ctx context.Context, asOf time.Time) (*models.BalanceSheet, error) {
	src := a.primarySource()
	period := models.AsOf(asOf)
	tree, err := src.FetchReport(ctx, models.ReportBalanceSheet, period)
	if err != nil {
		return nil, fmt.Errorf("balance sheet: primary source %s: %w", src.Name(), err)
	}

	stmt := normalize.BalanceSheet(tree, period)
	stmt.BuildID = uuid.NewString()
	stmt.Source = src.Name()

	results := enrich.Run(ctx, a.balanceSteps(asOf))
	enrich.ApplyBalanceSheet(stmt, results)

	checkBalance(stmt)
	fmt.Printf("[ASSEMBLE] balance sheet as of %s built from %s (%d enrichment steps)\n",
		asOf.Format("2006-01-02"), stmt.Source, len(results))
	return stmt, nil
}

// CashFlowStatement builds the cash flow statement for a period.
func (a *Assembler) CashFlowStatement(ctx context.Context, period models.Period) (*models.CashFlowStatement, error) {
	src := a.primarySource()
	tree, err := src.FetchReport(ctx, models.ReportCashFlow, period)
	if err != nil {
		return nil, fmt.Errorf("cash flow statement: primary source %s: %w", src.Name(), err)
	}

	stmt := normalize.CashFlowStatement(tree, period)
	stmt.BuildID = uuid.NewString()
	stmt.Source = src.Name()

	results := enrich.Run(ctx, a.cashFlowSteps(period))
	enrich.ApplyCashFlow(stmt, results)

	fmt.Printf("[ASSEMBLE] cash flow statement %s built from %s (%d enrichment steps)\n",
		period, stmt.Source, len(results))
	return stmt, nil
}

// =============================================================================
// ENRICHMENT STEP SETS
// Priority order is fixed: bank > payments > payroll > card > CRM > sheets.
// Only configured sources contribute steps.
// =============================================================================

func (a *Assembler) incomeSteps(period models.Period) []enrich.Step {
	var steps []enrich.Step
	switch {
	case a.payments != nil:
		steps = append(steps, enrich.Step{
			Source: "stripe", Field: enrich.FieldMRR, Policy: enrich.Override,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.payments.MRR(ctx) },
		})
	case a.demoMetrics != nil && a.primarySource() == a.fixture:
		steps = append(steps, enrich.Step{
			Source: "fixture", Field: enrich.FieldMRR, Policy: enrich.Override,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) {
				return a.demoMetrics.FetchMetric(ctx, "mrr", period)
			},
		})
	}
	if a.payroll != nil {
		steps = append(steps, enrich.Step{
			Source: "gusto", Field: enrich.FieldPayrollCost, Policy: enrich.CompareOnly,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.payroll.PayrollCost(ctx, period) },
		})
	}
	if a.crm != nil {
		steps = append(steps, enrich.Step{
			Source: "hubspot", Field: enrich.FieldTotalRevenue, Policy: enrich.CompareOnly,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.crm.ClosedWonInPeriod(ctx, period) },
		})
	}
	if a.budget != nil {
		steps = append(steps, enrich.Step{
			Source: "google_sheets", Field: enrich.FieldOpExVsBudget, Policy: enrich.CompareOnly,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.budget.BudgetTotal(ctx, period) },
		})
	}
	return steps
}

func (a *Assembler) balanceSteps(asOf time.Time) []enrich.Step {
	var steps []enrich.Step
	if a.bank != nil {
		steps = append(steps, enrich.Step{
			Source: "mercury", Field: models.LabelCash, Policy: enrich.Override,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.bank.TotalCash(ctx) },
		})
	}
	if a.payments != nil {
		steps = append(steps,
			enrich.Step{
				Source: "stripe", Field: models.LabelStripeBalance, Policy: enrich.Override,
				Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.payments.AvailableBalance(ctx) },
			},
			enrich.Step{
				Source: "stripe", Field: models.LabelDeferredRevenue, Policy: enrich.Override,
				Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.payments.DeferredRevenue(ctx, asOf) },
			},
		)
	}
	if a.payroll != nil {
		steps = append(steps, enrich.Step{
			Source: "gusto", Field: models.LabelAccruedPayroll, Policy: enrich.Override,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.payroll.AccruedWages(ctx, asOf) },
		})
	}
	if a.card != nil {
		steps = append(steps, enrich.Step{
			Source: "brex", Field: models.LabelCardBalance, Policy: enrich.Override,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.card.CardBalance(ctx) },
		})
	}
	return steps
}

func (a *Assembler) cashFlowSteps(period models.Period) []enrich.Step {
	var steps []enrich.Step
	if a.bank != nil {
		steps = append(steps, enrich.Step{
			Source: "mercury", Field: enrich.FieldNetChangeInCash, Policy: enrich.CompareOnly,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.bank.NetCashMovement(ctx, period) },
		})
	}
	if a.payments != nil {
		steps = append(steps, enrich.Step{
			Source: "stripe", Field: enrich.FieldCFOVsPayouts, Policy: enrich.CompareOnly,
			Fetch: func(ctx context.Context) (decimal.Decimal, error) { return a.payments.PayoutsInPeriod(ctx, period) },
		})
	}
	return steps
}

// checkBalance annotates the statement when the accounting equation
// breaks beyond tolerance. Live cash overrides routinely unbalance a
// GL-derived sheet; that gap is exactly what the user investigates.
func checkBalance(stmt *models.BalanceSheet) {
	gap := stmt.TotalAssets.Sub(stmt.TotalLiabilitiesAndEquity).Abs()
	if gap.GreaterThan(balanceTolerance) {
		stmt.Warnings = append(stmt.Warnings, models.Warning{
			Code: "out_of_balance",
			Message: fmt.Sprintf("assets (%s) differ from liabilities + equity (%s) by %s",
				stmt.TotalAssets, stmt.TotalLiabilitiesAndEquity, gap),
		})
	}
}

// lazySheets defers Google Sheets service construction to first use so
// assembler wiring stays error-free; a bad credential surfaces as a
// skipped enrichment step like any other source failure.
type lazySheets struct {
	cfg config.Config
}

func (l *lazySheets) BudgetTotal(ctx context.Context, period models.Period) (decimal.Decimal, error) {
	client, err := connectors.NewSheets(ctx, l.cfg)
	if err != nil {
		return decimal.Zero, err
	}
	return client.BudgetTotal(ctx, period)
}
