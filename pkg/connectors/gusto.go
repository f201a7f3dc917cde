package connectors

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"findash/pkg/config"
	"findash/pkg/models"

	"github.com/shopspring/decimal"
)

const gustoBaseURL = "https://api.gusto.com"

// Gusto is the payroll source of truth, usually the largest cost line.
// It feeds the Income Statement (payroll cost cross-check), Cash Flow
// (payroll outflows), and Balance Sheet (accrued wages at period end).
type Gusto struct {
	rest      *restClient
	companyID string
}

func NewGusto(cfg config.Config) *Gusto {
	rest := newRESTClient("gusto", gustoBaseURL, cfg.GustoAccessToken)
	rest.headers = map[string]string{"X-Gusto-API-Version": "2024-03-01"}
	return &Gusto{rest: rest, companyID: cfg.GustoCompanyID}
}

func (g *Gusto) Name() string { return "gusto" }

type gustoPayroll struct {
	CheckDate      string `json:"check_date"`
	PayPeriodStart string `json:"pay_period_start_date"`
	PayPeriodEnd   string `json:"pay_period_end_date"`
	Totals         struct {
		GrossPay      string `json:"gross_pay"`
		EmployerTaxes string `json:"employer_taxes"`
		Benefits      string `json:"benefits"`
	} `json:"totals"`
}

func (g *Gusto) payrolls(ctx context.Context, period models.Period, processed bool) ([]gustoPayroll, error) {
	params := url.Values{}
	params.Set("processed", strconv.FormatBool(processed))
	params.Set("start_date", period.Start.Format("2006-01-02"))
	params.Set("end_date", period.End.Format("2006-01-02"))

	var list []gustoPayroll
	path := fmt.Sprintf("/v1/companies/%s/payrolls", g.companyID)
	if err := g.rest.getJSON(ctx, path, params, rangeReadTimeout, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// PayrollCost aggregates the full employer cost for the period:
// gross wages + employer taxes + benefits. Gusto reports totals as
// decimal strings; anything unparseable counts as zero.
func (g *Gusto) PayrollCost(ctx context.Context, period models.Period) (decimal.Decimal, error) {
	payrolls, err := g.payrolls(ctx, period, true)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range payrolls {
		total = total.Add(parseAmount(p.Totals.GrossPay))
		total = total.Add(parseAmount(p.Totals.EmployerTaxes))
		total = total.Add(parseAmount(p.Totals.Benefits))
	}
	return total, nil
}

// AccruedWages estimates wages earned but not yet paid as of a date:
// unprocessed payrolls whose pay period has started on or before it.
func (g *Gusto) AccruedWages(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	window := models.Period{Start: asOf.AddDate(0, -1, 0), End: asOf.AddDate(0, 1, 0)}
	payrolls, err := g.payrolls(ctx, window, false)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	cutoff := asOf.Format("2006-01-02")
	for _, p := range payrolls {
		if p.PayPeriodStart != "" && p.PayPeriodStart <= cutoff && p.CheckDate > cutoff {
			total = total.Add(parseAmount(p.Totals.GrossPay))
			total = total.Add(parseAmount(p.Totals.Benefits))
		}
	}
	return total, nil
}

type gustoEmployee struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
}

// EmployeesByDepartment groups employees by department, the basis for
// allocating wages to P&L buckets (Engineering -> R&D, Sales -> S&M, ...).
func (g *Gusto) EmployeesByDepartment(ctx context.Context) (map[string][]string, error) {
	params := url.Values{}
	params.Set("include", "jobs")

	var employees []gustoEmployee
	path := fmt.Sprintf("/v1/companies/%s/employees", g.companyID)
	if err := g.rest.getJSON(ctx, path, params, rangeReadTimeout, &employees); err != nil {
		return nil, err
	}
	byDept := make(map[string][]string)
	for _, emp := range employees {
		dept := emp.Department
		if dept == "" {
			dept = "Unassigned"
		}
		byDept[dept] = append(byDept[dept], emp.FirstName+" "+emp.LastName)
	}
	return byDept, nil
}

// FetchMetric implements the scalar-metric capability.
func (g *Gusto) FetchMetric(ctx context.Context, name string, period models.Period) (decimal.Decimal, error) {
	switch name {
	case "payroll_cost":
		return g.PayrollCost(ctx, period)
	case "accrued_wages":
		return g.AccruedWages(ctx, period.End)
	}
	return decimal.Zero, fmt.Errorf("gusto: unknown metric %q", name)
}

func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
