package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical statement line labels that secondary sources are allowed to
// override. Keeping them in one place pins the enrichment contract.
const (
	LabelCash            = "Cash & Cash Equivalents"
	LabelStripeBalance   = "Stripe Balance (Available)"
	LabelDeferredRevenue = "Deferred Revenue"
	LabelAccruedPayroll  = "Accrued Payroll & Benefits"
	LabelCardBalance     = "Brex Card Balance"
)

// Runway expresses months of remaining cash at the current burn rate.
// Infinite means there is no burn (cash-flow positive or flat).
type Runway struct {
	Months   int64 `json:"-"`
	Infinite bool  `json:"-"`
}

func (r Runway) MarshalJSON() ([]byte, error) {
	if r.Infinite {
		return json.Marshal("infinite")
	}
	return json.Marshal(r.Months)
}

func (r *Runway) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Infinite = s == "infinite"
		return nil
	}
	r.Infinite = false
	return json.Unmarshal(data, &r.Months)
}

// IncomeStatement (P&L) for a period. OpEx nests one level: the three
// operating buckets each hold their own line items.
type IncomeStatement struct {
	BuildID string `json:"build_id"`
	Source  string `json:"source"`
	Period  Period `json:"period"`

	Revenue Section   `json:"revenue"`
	COGS    Section   `json:"cogs"`
	OpEx    []Section `json:"opex"`

	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCOGS    decimal.Decimal `json:"total_cogs"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	TotalSM      decimal.Decimal `json:"total_sm"`
	TotalRD      decimal.Decimal `json:"total_rd"`
	TotalGA      decimal.Decimal `json:"total_ga"`
	TotalOpEx    decimal.Decimal `json:"total_opex"`
	EBITDA       decimal.Decimal `json:"ebitda"`
	Depreciation decimal.Decimal `json:"depreciation"`
	EBIT         decimal.Decimal `json:"ebit"`
	Interest     decimal.Decimal `json:"interest"`
	NetIncome    decimal.Decimal `json:"net_income"`

	GrossMarginPct  decimal.Decimal `json:"gross_margin_pct"`
	EBITDAMarginPct decimal.Decimal `json:"ebitda_margin_pct"`
	NetMarginPct    decimal.Decimal `json:"net_margin_pct"`

	// SaaS run-rate enrichment (payments processor), zero when unavailable.
	MRR decimal.Decimal `json:"mrr"`
	ARR decimal.Decimal `json:"arr"`

	Warnings        []Warning        `json:"warnings,omitempty"`
	Reconciliations []Reconciliation `json:"reconciliations,omitempty"`
}

// BalanceSheet as of a single date.
type BalanceSheet struct {
	BuildID string    `json:"build_id"`
	Source  string    `json:"source"`
	AsOf    time.Time `json:"as_of"`

	CurrentAssets         Section `json:"current_assets"`
	NonCurrentAssets      Section `json:"noncurrent_assets"`
	CurrentLiabilities    Section `json:"current_liabilities"`
	NonCurrentLiabilities Section `json:"noncurrent_liabilities"`
	Equity                Section `json:"equity"`

	TotalCurrentAssets        decimal.Decimal `json:"total_current_assets"`
	TotalNonCurrentAssets     decimal.Decimal `json:"total_noncurrent_assets"`
	TotalAssets               decimal.Decimal `json:"total_assets"`
	TotalCurrentLiabilities   decimal.Decimal `json:"total_current_liabilities"`
	TotalNonCurrentLiabilities decimal.Decimal `json:"total_noncurrent_liabilities"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	TotalEquity               decimal.Decimal `json:"total_equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`

	CurrentRatio decimal.Decimal `json:"current_ratio"`
	CashRatio    decimal.Decimal `json:"cash_ratio"`

	Warnings        []Warning        `json:"warnings,omitempty"`
	Reconciliations []Reconciliation `json:"reconciliations,omitempty"`
}

// CashFlowStatement (indirect method) for a period.
type CashFlowStatement struct {
	BuildID string `json:"build_id"`
	Source  string `json:"source"`
	Period  Period `json:"period"`

	NetIncome      decimal.Decimal `json:"net_income"`
	Adjustments    Section         `json:"adjustments"`
	WorkingCapital Section         `json:"working_capital_changes"`
	Investing      Section         `json:"investing_activities"`
	Financing      Section         `json:"financing_activities"`

	TotalAdjustments decimal.Decimal `json:"total_adjustments"`
	TotalWCChanges   decimal.Decimal `json:"total_wc_changes"`
	CFO              decimal.Decimal `json:"cash_from_operations"`
	CFI              decimal.Decimal `json:"cash_from_investing"`
	CFF              decimal.Decimal `json:"cash_from_financing"`
	NetChangeInCash  decimal.Decimal `json:"net_change_in_cash"`
	BeginningCash    decimal.Decimal `json:"beginning_cash"`
	EndingCash       decimal.Decimal `json:"ending_cash"`

	MonthlyBurnRate decimal.Decimal `json:"monthly_burn_rate"`
	Runway          Runway          `json:"runway_months"`

	Warnings        []Warning        `json:"warnings,omitempty"`
	Reconciliations []Reconciliation `json:"reconciliations,omitempty"`
}
