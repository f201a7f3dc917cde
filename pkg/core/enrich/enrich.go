// Package enrich overlays canonical statements with readings from
// secondary sources under a strict policy: a source either owns a field
// outright (Override: the line item is replaced wholesale and every
// dependent total recomputed bottom-up) or it is compare-only (the
// reading is stored as a reconciliation difference and never touches
// canonical totals). Steps run in fixed priority order and every step
// is individually fallible; a failed step is skipped and the field
// keeps its primary-source value. The base GL report is always enough
// to return a statement even if every secondary source is down.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"findash/pkg/core/metrics"
	"findash/pkg/core/normalize"
	"findash/pkg/models"

	"github.com/shopspring/decimal"
)

type Policy int

const (
	Override Policy = iota
	CompareOnly
)

// Named non-line-item fields steps may target. Balance sheet overrides
// target canonical line labels (models.LabelCash etc.) directly.
const (
	FieldMRR             = "mrr"
	FieldTotalRevenue    = "total_revenue"
	FieldPayrollCost     = "payroll_cost"
	FieldOpExVsBudget    = "total_opex_vs_budget"
	FieldNetChangeInCash = "net_change_in_cash"
	FieldCFOVsPayouts    = "cfo_vs_stripe_payouts"
)

// Step is one secondary-source enrichment: fetch a single value and
// apply it to the statement field under the given policy.
type Step struct {
	Source string
	Field  string
	Policy Policy
	Fetch  func(ctx context.Context) (decimal.Decimal, error)
}

// Reading is a successfully fetched step value.
type Reading struct {
	Source string
	Field  string
	Policy Policy
	Value  decimal.Decimal
}

// StepResult makes the best-effort policy explicit: every step yields
// either a reading or an error, and only readings are applied.
type StepResult struct {
	Reading Reading
	Err     error
}

// Run executes the steps sequentially in the order given (priority
// order) and collects one result per step. Errors are captured, never
// propagated: enrichment is best-effort by contract.
func Run(ctx context.Context, steps []Step) []StepResult {
	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		value, err := step.Fetch(ctx)
		if err != nil {
			fmt.Printf("[ENRICH] Warning: %s/%s skipped: %v\n", step.Source, step.Field, err)
			results = append(results, StepResult{
				Reading: Reading{Source: step.Source, Field: step.Field, Policy: step.Policy},
				Err:     err,
			})
			continue
		}
		results = append(results, StepResult{
			Reading: Reading{Source: step.Source, Field: step.Field, Policy: step.Policy, Value: value},
		})
	}
	return results
}

// ApplyBalanceSheet applies successful readings to a balance sheet.
// Override readings replace their owned line item; totals and ratios
// are recomputed bottom-up once after the overlay. Applying the same
// readings twice yields the same statement.
func ApplyBalanceSheet(stmt *models.BalanceSheet, results []StepResult) {
	touched := false
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		r := res.Reading
		if r.Policy == CompareOnly {
			recordReconciliation(&stmt.Reconciliations, r, balanceCanonical(stmt, r.Field))
			continue
		}
		switch r.Field {
		case models.LabelCash, models.LabelStripeBalance:
			stmt.CurrentAssets.Set(r.Field, r.Value)
			touched = true
		case models.LabelDeferredRevenue, models.LabelAccruedPayroll, models.LabelCardBalance:
			stmt.CurrentLiabilities.Set(r.Field, r.Value)
			touched = true
		default:
			fmt.Printf("[ENRICH] Warning: no balance sheet field owns %q, ignoring\n", r.Field)
		}
	}
	if touched {
		normalize.RecomputeBalance(stmt)
	}
}

// ApplyIncomeStatement applies successful readings to an income
// statement. MRR is the only override field; everything else is
// compare-only against the canonical figure it names.
func ApplyIncomeStatement(stmt *models.IncomeStatement, results []StepResult) {
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		r := res.Reading
		if r.Policy == Override && r.Field == FieldMRR {
			stmt.MRR = r.Value
			stmt.ARR = metrics.ARR(r.Value)
			continue
		}
		recordReconciliation(&stmt.Reconciliations, r, incomeCanonical(stmt, r.Field))
	}
}

// ApplyCashFlow applies successful readings to a cash flow statement.
// Cash-movement readings are compare-only by contract: net change in
// cash is never recomputed from an external observation.
func ApplyCashFlow(stmt *models.CashFlowStatement, results []StepResult) {
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		r := res.Reading
		recordReconciliation(&stmt.Reconciliations, r, cashFlowCanonical(stmt, r.Field))
	}
}

func recordReconciliation(list *[]models.Reconciliation, r Reading, canonical decimal.Decimal) {
	*list = models.UpsertReconciliation(*list, models.Reconciliation{
		Field:      r.Field,
		Source:     r.Source,
		Canonical:  canonical,
		External:   r.Value,
		Difference: canonical.Sub(r.Value),
	})
}

func balanceCanonical(stmt *models.BalanceSheet, field string) decimal.Decimal {
	if v, ok := stmt.CurrentAssets.Get(field); ok {
		return v
	}
	if v, ok := stmt.CurrentLiabilities.Get(field); ok {
		return v
	}
	return decimal.Zero
}

func incomeCanonical(stmt *models.IncomeStatement, field string) decimal.Decimal {
	switch field {
	case FieldTotalRevenue:
		return stmt.TotalRevenue
	case FieldOpExVsBudget:
		return stmt.TotalOpEx
	case FieldPayrollCost:
		return payrollLines(stmt)
	}
	return decimal.Zero
}

// payrollLines sums every payroll-tagged line across COGS and the OpEx
// buckets, the canonical counterpart of the payroll provider's total
// employer cost.
func payrollLines(stmt *models.IncomeStatement) decimal.Decimal {
	total := decimal.Zero
	for _, it := range stmt.COGS.Items {
		if isPayrollLine(it.Label) {
			total = total.Add(it.Amount)
		}
	}
	for _, bucket := range stmt.OpEx {
		for _, it := range bucket.Items {
			if isPayrollLine(it.Label) {
				total = total.Add(it.Amount)
			}
		}
	}
	return total
}

func isPayrollLine(label string) bool {
	return strings.Contains(label, "Payroll")
}

func cashFlowCanonical(stmt *models.CashFlowStatement, field string) decimal.Decimal {
	switch field {
	case FieldNetChangeInCash:
		return stmt.NetChangeInCash
	case FieldCFOVsPayouts:
		return stmt.CFO
	}
	return decimal.Zero
}
