package connectors

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"findash/pkg/config"
	"findash/pkg/models"

	"github.com/shopspring/decimal"
)

const brexBaseURL = "https://platform.brexapis.com"

// Brex supplies the outstanding corporate card balance (a current
// liability) and card spend by merchant category. Brex amounts arrive
// in cents and are divided by 100 here.
type Brex struct {
	rest *restClient
}

func NewBrex(cfg config.Config) *Brex {
	return &Brex{rest: newRESTClient("brex", brexBaseURL, cfg.BrexAPIToken)}
}

func (b *Brex) Name() string { return "brex" }

type brexCardAccount struct {
	CurrentBalance struct {
		Amount int64 `json:"amount"`
	} `json:"current_balance"`
}

// CardBalance is the outstanding card balance, reported as a positive
// liability amount regardless of the sign convention Brex uses.
func (b *Brex) CardBalance(ctx context.Context) (decimal.Decimal, error) {
	var acct brexCardAccount
	if err := b.rest.getJSON(ctx, "/v2/accounts/card", nil, pointReadTimeout, &acct); err != nil {
		return decimal.Zero, err
	}
	return decimal.New(acct.CurrentBalance.Amount, -2).Abs(), nil
}

type brexCardTxn struct {
	MerchantCategory string `json:"merchant_category"`
	PostedAtDate     string `json:"posted_at_date"`
	Amount           struct {
		Amount int64 `json:"amount"`
	} `json:"amount"`
}

type brexCardTxnList struct {
	Items []brexCardTxn `json:"items"`
}

// FetchTransactions returns corporate card transactions for the period,
// tagged with merchant category for expense classification.
func (b *Brex) FetchTransactions(ctx context.Context, period models.Period) ([]models.Transaction, error) {
	params := url.Values{}
	params.Set("posted_at_start", period.Start.Format("2006-01-02")+"T00:00:00Z")
	params.Set("posted_at_end", period.End.Format("2006-01-02")+"T23:59:59Z")

	var list brexCardTxnList
	if err := b.rest.getJSON(ctx, "/v2/transactions/card/primary", params, rangeReadTimeout, &list); err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(list.Items))
	for _, t := range list.Items {
		ts, _ := time.Parse("2006-01-02", t.PostedAtDate)
		out = append(out, models.Transaction{
			Amount:    decimal.New(t.Amount.Amount, -2),
			Kind:      "debit",
			Category:  t.MerchantCategory,
			Timestamp: ts,
		})
	}
	return out, nil
}

// SpendByCategory aggregates card spend per merchant category.
func (b *Brex) SpendByCategory(ctx context.Context, period models.Period) (map[string]decimal.Decimal, error) {
	txns, err := b.FetchTransactions(ctx, period)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string]decimal.Decimal)
	for _, t := range txns {
		category := t.Category
		if category == "" {
			category = "Uncategorized"
		}
		byCategory[category] = byCategory[category].Add(t.Amount)
	}
	return byCategory, nil
}

// FetchMetric implements the scalar-metric capability.
func (b *Brex) FetchMetric(ctx context.Context, name string, period models.Period) (decimal.Decimal, error) {
	switch name {
	case "card_balance":
		return b.CardBalance(ctx)
	}
	return decimal.Zero, fmt.Errorf("brex: unknown metric %q", name)
}
