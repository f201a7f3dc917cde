package models

// Generic tagged report tree. Vendor report APIs (the QuickBooks Reports
// API in particular) return nested rows typed Section / Data / GrandTotal;
// adapters translate their wire shape into this neutral tree so the
// normalizer never sees vendor JSON.

type RowType string

const (
	RowSection    RowType = "Section"
	RowData       RowType = "Data"
	RowGrandTotal RowType = "GrandTotal"
)

// Col is one column value of a report row. By convention column 0 is the
// label and column 1 the amount for the report's single period.
type Col struct {
	Value string `json:"value"`
}

// ReportRow is one node of the raw report tree. Section rows carry a
// Group key from the vendor vocabulary (e.g. "Income", "CurrentAssets"),
// a Summary row holding the section total, and nested child rows.
type ReportRow struct {
	Type    RowType     `json:"type"`
	Group   string      `json:"group,omitempty"`
	ColData []Col       `json:"col_data,omitempty"`
	Summary *ReportRow  `json:"summary,omitempty"`
	Rows    []ReportRow `json:"rows,omitempty"`
}

// RawReportTree is a vendor-native nested-section report after adapter
// translation, ready for normalization.
type RawReportTree struct {
	ReportName string      `json:"report_name"`
	Rows       []ReportRow `json:"rows"`
}

// ReportKind selects which aggregate report a report-capable source builds.
type ReportKind string

const (
	ReportProfitAndLoss ReportKind = "ProfitAndLoss"
	ReportBalanceSheet  ReportKind = "BalanceSheet"
	ReportCashFlow      ReportKind = "CashFlow"
)
