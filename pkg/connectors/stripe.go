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

const stripeBaseURL = "https://api.stripe.com/v1"

// weeksPerMonth is the average number of weeks in a month, used to
// normalize weekly subscription cadences.
var weeksPerMonth = decimal.NewFromFloat(4.33)

// Stripe enriches the Income Statement (MRR/ARR, revenue cross-check),
// Balance Sheet (available balance, deferred revenue from annual plans)
// and Cash Flow Statement (payout timing). All Stripe amounts arrive in
// cents and are divided by 100 here.
type Stripe struct {
	rest *restClient
}

func NewStripe(cfg config.Config) *Stripe {
	return &Stripe{rest: newRESTClient("stripe", stripeBaseURL, cfg.StripeSecretKey)}
}

func (s *Stripe) Name() string { return "stripe" }

type stripeBalanceEntry struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type stripeBalance struct {
	Available []stripeBalanceEntry `json:"available"`
	Pending   []stripeBalanceEntry `json:"pending"`
}

// AvailableBalance is the live USD balance Stripe holds before payout.
func (s *Stripe) AvailableBalance(ctx context.Context) (decimal.Decimal, error) {
	var bal stripeBalance
	if err := s.rest.getJSON(ctx, "/balance", nil, pointReadTimeout, &bal); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, entry := range bal.Available {
		if entry.Currency == "usd" {
			total = total.Add(decimal.New(entry.Amount, -2))
		}
	}
	return total, nil
}

type stripePrice struct {
	UnitAmount int64 `json:"unit_amount"`
	Recurring  struct {
		Interval string `json:"interval"`
	} `json:"recurring"`
}

type stripeSubItem struct {
	Price stripePrice `json:"price"`
}

type stripeSubscription struct {
	ID               string `json:"id"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Items            struct {
		Data []stripeSubItem `json:"data"`
	} `json:"items"`
}

type stripeSubList struct {
	Data    []stripeSubscription `json:"data"`
	HasMore bool                 `json:"has_more"`
}

func (s *Stripe) activeSubscriptions(ctx context.Context) ([]stripeSubscription, error) {
	var all []stripeSubscription
	startingAfter := ""
	for {
		params := url.Values{}
		params.Set("status", "active")
		params.Set("limit", "100")
		if startingAfter != "" {
			params.Set("starting_after", startingAfter)
		}
		var page stripeSubList
		if err := s.rest.getJSON(ctx, "/subscriptions", params, rangeReadTimeout, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasMore || len(page.Data) == 0 {
			break
		}
		startingAfter = page.Data[len(page.Data)-1].ID
	}
	return all, nil
}

// MRR sums active subscription amounts normalized to a monthly cadence:
// annual plans divide by 12, weekly plans multiply by 4.33.
func (s *Stripe) MRR(ctx context.Context) (decimal.Decimal, error) {
	subs, err := s.activeSubscriptions(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, sub := range subs {
		for _, item := range sub.Items.Data {
			amount := decimal.New(item.Price.UnitAmount, -2)
			switch item.Price.Recurring.Interval {
			case "year":
				amount = amount.Div(decimal.NewFromInt(12))
			case "week":
				amount = amount.Mul(weeksPerMonth)
			}
			total = total.Add(amount)
		}
	}
	return total, nil
}

// DeferredRevenue estimates the unearned portion of active annual plans:
// the paid amount prorated over the months left in the billing period.
// Annual billing collects cash up front; the liability unwinds monthly.
func (s *Stripe) DeferredRevenue(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	subs, err := s.activeSubscriptions(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, sub := range subs {
		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		if !periodEnd.After(asOf) {
			continue
		}
		monthsLeft := int64(periodEnd.Sub(asOf).Hours() / (24 * 30))
		if monthsLeft <= 0 {
			continue
		}
		if monthsLeft > 12 {
			monthsLeft = 12
		}
		for _, item := range sub.Items.Data {
			if item.Price.Recurring.Interval != "year" {
				continue
			}
			annual := decimal.New(item.Price.UnitAmount, -2)
			total = total.Add(annual.Div(decimal.NewFromInt(12)).Mul(decimal.NewFromInt(monthsLeft)))
		}
	}
	return total, nil
}

type stripeInvoice struct {
	AmountPaid int64 `json:"amount_paid"`
}

type stripeInvoiceList struct {
	Data    []stripeInvoice `json:"data"`
	HasMore bool            `json:"has_more"`
}

// RevenueInPeriod sums paid invoices created in the period, the
// cross-check against the GL revenue line.
func (s *Stripe) RevenueInPeriod(ctx context.Context, period models.Period) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("status", "paid")
	params.Set("created[gte]", strconv.FormatInt(period.Start.Unix(), 10))
	params.Set("created[lte]", strconv.FormatInt(endOfDay(period.End).Unix(), 10))
	params.Set("limit", "100")

	var list stripeInvoiceList
	if err := s.rest.getJSON(ctx, "/invoices", params, rangeReadTimeout, &list); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, inv := range list.Data {
		total = total.Add(decimal.New(inv.AmountPaid, -2))
	}
	return total, nil
}

type stripePayout struct {
	Amount int64 `json:"amount"`
}

type stripePayoutList struct {
	Data []stripePayout `json:"data"`
}

// PayoutsInPeriod is cash actually paid out to the bank in the period.
func (s *Stripe) PayoutsInPeriod(ctx context.Context, period models.Period) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("status", "paid")
	params.Set("arrival_date[gte]", strconv.FormatInt(period.Start.Unix(), 10))
	params.Set("arrival_date[lte]", strconv.FormatInt(endOfDay(period.End).Unix(), 10))
	params.Set("limit", "100")

	var list stripePayoutList
	if err := s.rest.getJSON(ctx, "/payouts", params, rangeReadTimeout, &list); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range list.Data {
		total = total.Add(decimal.New(p.Amount, -2))
	}
	return total, nil
}

// FetchMetric implements the scalar-metric capability.
func (s *Stripe) FetchMetric(ctx context.Context, name string, period models.Period) (decimal.Decimal, error) {
	switch name {
	case "mrr":
		return s.MRR(ctx)
	case "available_balance":
		return s.AvailableBalance(ctx)
	case "deferred_revenue":
		return s.DeferredRevenue(ctx, period.End)
	case "revenue":
		return s.RevenueInPeriod(ctx, period)
	case "payouts":
		return s.PayoutsInPeriod(ctx, period)
	}
	return decimal.Zero, fmt.Errorf("stripe: unknown metric %q", name)
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
}
