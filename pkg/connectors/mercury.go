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

const mercuryBaseURL = "https://api.mercury.com/api/v1"

// Mercury is the bank source of truth: live balances for the Balance
// Sheet cash line and transaction flows for cash-movement reconciliation.
type Mercury struct {
	rest *restClient
}

func NewMercury(cfg config.Config) *Mercury {
	return &Mercury{rest: newRESTClient("mercury", mercuryBaseURL, cfg.MercuryAPIToken)}
}

func (m *Mercury) Name() string { return "mercury" }

type mercuryAccount struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	CurrentBalance float64 `json:"currentBalance"`
}

type mercuryAccountList struct {
	Accounts []mercuryAccount `json:"accounts"`
}

func (m *Mercury) accounts(ctx context.Context) ([]mercuryAccount, error) {
	var list mercuryAccountList
	if err := m.rest.getJSON(ctx, "/accounts", nil, pointReadTimeout, &list); err != nil {
		return nil, err
	}
	return list.Accounts, nil
}

// TotalCash sums live balances across all Mercury accounts. More
// real-time than the GL cash line, which waits on bank feed syncs.
func (m *Mercury) TotalCash(ctx context.Context) (decimal.Decimal, error) {
	accounts, err := m.accounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, acct := range accounts {
		total = total.Add(decimal.NewFromFloat(acct.CurrentBalance))
	}
	return total, nil
}

type mercuryTxn struct {
	Amount    float64   `json:"amount"`
	Kind      string    `json:"kind"`
	PostedAt  time.Time `json:"postedAt"`
	Reference string    `json:"bankDescription"`
}

type mercuryTxnList struct {
	Transactions []mercuryTxn `json:"transactions"`
}

// FetchTransactions returns all transactions across all accounts for the
// period. Kind is "credit" (money in) or "debit" (money out).
func (m *Mercury) FetchTransactions(ctx context.Context, period models.Period) ([]models.Transaction, error) {
	accounts, err := m.accounts(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Transaction
	for _, acct := range accounts {
		params := url.Values{}
		params.Set("start", period.Start.Format("2006-01-02"))
		params.Set("end", period.End.Format("2006-01-02"))
		params.Set("limit", "500")

		var list mercuryTxnList
		path := fmt.Sprintf("/account/%s/transactions", acct.ID)
		if err := m.rest.getJSON(ctx, path, params, rangeReadTimeout, &list); err != nil {
			return nil, err
		}
		for _, t := range list.Transactions {
			out = append(out, models.Transaction{
				Amount:    decimal.NewFromFloat(t.Amount),
				Kind:      t.Kind,
				Timestamp: t.PostedAt,
			})
		}
	}
	return out, nil
}

// NetCashMovement is inflows minus outflows over the period, used to
// cross-check the GL's net change in cash. A mismatch signals
// unreconciled transactions or timing differences.
func (m *Mercury) NetCashMovement(ctx context.Context, period models.Period) (decimal.Decimal, error) {
	txns, err := m.FetchTransactions(ctx, period)
	if err != nil {
		return decimal.Zero, err
	}
	inflows, outflows := decimal.Zero, decimal.Zero
	for _, t := range txns {
		switch t.Kind {
		case "credit":
			inflows = inflows.Add(t.Amount)
		case "debit":
			outflows = outflows.Add(t.Amount)
		}
	}
	return inflows.Sub(outflows), nil
}

// FetchMetric implements the scalar-metric capability.
func (m *Mercury) FetchMetric(ctx context.Context, name string, period models.Period) (decimal.Decimal, error) {
	switch name {
	case "total_cash":
		return m.TotalCash(ctx)
	case "net_cash_movement":
		return m.NetCashMovement(ctx, period)
	}
	return decimal.Zero, fmt.Errorf("mercury: unknown metric %q", name)
}
