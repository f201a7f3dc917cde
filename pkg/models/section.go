package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a single labeled monetary amount within a section.
// Amounts are signed and currency-agnostic (assumed USD).
type LineItem struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Section is a named, ordered grouping of line items
// (e.g., "Current Assets", "Sales & Marketing").
type Section struct {
	Name  string     `json:"name"`
	Items []LineItem `json:"items"`
}

func NewSection(name string) Section {
	return Section{Name: name}
}

// Set replaces the item with the given label wholesale, or appends it
// if not present. Replacement keeps the original position so repeated
// enrichment passes stay stable.
func (s *Section) Set(label string, amount decimal.Decimal) {
	for i := range s.Items {
		if s.Items[i].Label == label {
			s.Items[i].Amount = amount
			return
		}
	}
	s.Items = append(s.Items, LineItem{Label: label, Amount: amount})
}

// Get returns the amount for a label, and whether the label exists.
func (s Section) Get(label string) (decimal.Decimal, bool) {
	for _, it := range s.Items {
		if it.Label == label {
			return it.Amount, true
		}
	}
	return decimal.Zero, false
}

// Total sums every item in the section.
func (s Section) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Amount)
	}
	return total
}

// Warning is a non-fatal annotation surfaced to the caller, e.g. a
// balance sheet that does not balance within tolerance. Statements
// carrying warnings are still returned so the user can investigate.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Reconciliation records a compare-only reading from a secondary source:
// Difference = Canonical - External. It never mutates canonical totals.
type Reconciliation struct {
	Field      string          `json:"field"`
	Source     string          `json:"source"`
	Canonical  decimal.Decimal `json:"canonical"`
	External   decimal.Decimal `json:"external"`
	Difference decimal.Decimal `json:"difference"`
}

// UpsertReconciliation replaces an existing entry for the same field or
// appends a new one. Keyed replacement keeps enrichment idempotent.
func UpsertReconciliation(list []Reconciliation, rec Reconciliation) []Reconciliation {
	for i := range list {
		if list[i].Field == rec.Field {
			list[i] = rec
			return list
		}
	}
	return append(list, rec)
}

// Transaction is a single money movement from a transaction-capable source.
// Kind is the vendor's direction tag ("credit" = money in, "debit" = money out).
type Transaction struct {
	Amount    decimal.Decimal `json:"amount"`
	Kind      string          `json:"kind"`
	Category  string          `json:"category,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Cadence is the billing interval of a recurring charge.
type Cadence string

const (
	CadenceMonth Cadence = "month"
	CadenceYear  Cadence = "year"
	CadenceWeek  Cadence = "week"
)
