package connectors

import (
	"context"
	"fmt"
	"time"

	"findash/pkg/config"
	"findash/pkg/models"

	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets reads the spreadsheet escape hatch: manual journal entries and
// the budget model that automation has not reached yet. Tab convention:
//
//	"Manual Entries"  date, account, debit, credit, memo
//	"Budget"          month (YYYY-MM), line_item, budgeted_amount
type Sheets struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheets(ctx context.Context, cfg config.Config) (*Sheets, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.GoogleServiceAccountJSON),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Sheets{service: service, spreadsheetID: cfg.GoogleSheetsSpreadsheetID}, nil
}

func (s *Sheets) Name() string { return "google_sheets" }

func (s *Sheets) readTab(ctx context.Context, tab string) ([][]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, rangeReadTimeout)
	defer cancel()

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, &TransportError{Source: "google_sheets", Op: "read " + tab, Err: err}
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}
	// First row is the header.
	return resp.Values[1:], nil
}

// ManualEntry is one hand-keyed journal line from the spreadsheet.
type ManualEntry struct {
	Date    time.Time
	Account string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Memo    string
}

// ManualEntries reads the "Manual Entries" tab. Rows with unparseable
// amounts default those cells to zero rather than failing the read.
func (s *Sheets) ManualEntries(ctx context.Context) ([]ManualEntry, error) {
	rows, err := s.readTab(ctx, "Manual Entries")
	if err != nil {
		return nil, err
	}
	out := make([]ManualEntry, 0, len(rows))
	for _, row := range rows {
		entry := ManualEntry{
			Account: cellString(row, 1),
			Debit:   parseAmount(cellString(row, 2)),
			Credit:  parseAmount(cellString(row, 3)),
			Memo:    cellString(row, 4),
		}
		if d, err := time.Parse("2006-01-02", cellString(row, 0)); err == nil {
			entry.Date = d
		}
		out = append(out, entry)
	}
	return out, nil
}

// BudgetTotal sums budgeted amounts for the months inside the period,
// the compare-only counterpart to actual operating spend.
func (s *Sheets) BudgetTotal(ctx context.Context, period models.Period) (decimal.Decimal, error) {
	rows, err := s.readTab(ctx, "Budget")
	if err != nil {
		return decimal.Zero, err
	}
	startMonth := period.Start.Format("2006-01")
	endMonth := period.End.Format("2006-01")

	total := decimal.Zero
	for _, row := range rows {
		month := cellString(row, 0)
		if month < startMonth || month > endMonth {
			continue
		}
		total = total.Add(parseAmount(cellString(row, 2)))
	}
	return total, nil
}

// FetchMetric implements the scalar-metric capability.
func (s *Sheets) FetchMetric(ctx context.Context, name string, period models.Period) (decimal.Decimal, error) {
	switch name {
	case "budget_total":
		return s.BudgetTotal(ctx, period)
	}
	return decimal.Zero, fmt.Errorf("google_sheets: unknown metric %q", name)
}

func cellString(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return fmt.Sprintf("%v", row[i])
}
