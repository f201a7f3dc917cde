package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"findash/pkg/config"
	"findash/pkg/models"
)

// QuickBooks is the general ledger and source of record for all three
// statements. The QBO Reports API returns pre-built P&L, Balance Sheet,
// and Cash Flow trees which are translated into models.RawReportTree here
// so the core never sees QBO wire JSON.
type QuickBooks struct {
	rest         *restClient
	realmID      string
	clientID     string
	clientSecret string
	refreshToken string
	oauthBaseURL string
}

const qbOAuthTokenURL = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"

func NewQuickBooks(cfg config.Config) *QuickBooks {
	return &QuickBooks{
		rest:         newRESTClient("quickbooks", cfg.QBBaseURL(), cfg.QBAccessToken),
		realmID:      cfg.QBRealmID,
		clientID:     cfg.QBClientID,
		clientSecret: cfg.QBClientSecret,
		refreshToken: cfg.QBRefreshToken,
		oauthBaseURL: qbOAuthTokenURL,
	}
}

func (q *QuickBooks) Name() string { return "quickbooks" }

// FetchReport fetches one of the three aggregate reports and translates
// it into the neutral report tree.
func (q *QuickBooks) FetchReport(ctx context.Context, kind models.ReportKind, period models.Period) (*models.RawReportTree, error) {
	params := url.Values{}
	switch kind {
	case models.ReportProfitAndLoss:
		params.Set("start_date", period.Start.Format("2006-01-02"))
		params.Set("end_date", period.End.Format("2006-01-02"))
		params.Set("accounting_method", "Accrual")
	case models.ReportBalanceSheet:
		// As-of report: QBO wants a range ending on the as-of date.
		firstOfMonth := time.Date(period.End.Year(), period.End.Month(), 1, 0, 0, 0, 0, period.End.Location())
		params.Set("start_date", firstOfMonth.Format("2006-01-02"))
		params.Set("end_date", period.End.Format("2006-01-02"))
		params.Set("accounting_method", "Accrual")
	case models.ReportCashFlow:
		params.Set("start_date", period.Start.Format("2006-01-02"))
		params.Set("end_date", period.End.Format("2006-01-02"))
	default:
		return nil, fmt.Errorf("quickbooks: unknown report kind %q", kind)
	}

	var raw qbReport
	path := fmt.Sprintf("/v3/company/%s/reports/%s", q.realmID, string(kind))
	if err := q.rest.getJSON(ctx, path, params, reportTimeout, &raw); err != nil {
		return nil, err
	}
	return raw.toTree(string(kind)), nil
}

// TokenPair is the result of a refresh-token exchange. Access tokens
// expire after an hour; refresh tokens last 100 days.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshAccessToken exchanges the long-lived refresh token for a new
// access token. The token endpoint is the one QBO surface that uses
// HTTP Basic (client id/secret) instead of a bearer token.
func (q *QuickBooks) RefreshAccessToken(ctx context.Context) (*TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, pointReadTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", q.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.oauthBaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{Source: "quickbooks", Op: "token refresh", Err: err}
	}
	req.SetBasicAuth(q.clientID, q.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := q.rest.client.Do(req)
	if err != nil {
		return nil, &TransportError{Source: "quickbooks", Op: "token refresh", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{Source: "quickbooks", Op: "token refresh", Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Source: "quickbooks", Op: "token refresh", Err: err}
	}
	var pair TokenPair
	if err := decodeJSON("quickbooks", "token refresh", raw, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// =============================================================================
// QBO REPORT WIRE FORMAT
// Rows -> Row[] where each Row has type "Section" | "Data" | "GrandTotal",
// a group key, ColData [{label},{amount}], an optional Summary row, and
// nested Rows.
// =============================================================================

type qbReport struct {
	Header struct {
		ReportName string `json:"ReportName"`
	} `json:"Header"`
	Rows qbRows `json:"Rows"`
}

type qbRows struct {
	Row []qbRow `json:"Row"`
}

type qbRow struct {
	Type    string  `json:"type"`
	Group   string  `json:"group"`
	ColData []qbCol `json:"ColData"`
	Summary *qbRow  `json:"Summary"`
	Rows    *qbRows `json:"Rows"`
	Header  *qbRow  `json:"Header"`
}

type qbCol struct {
	Value string `json:"value"`
}

func (r qbReport) toTree(fallbackName string) *models.RawReportTree {
	name := r.Header.ReportName
	if name == "" {
		name = fallbackName
	}
	return &models.RawReportTree{
		ReportName: name,
		Rows:       convertQBRows(r.Rows.Row),
	}
}

func convertQBRows(rows []qbRow) []models.ReportRow {
	out := make([]models.ReportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertQBRow(row))
	}
	return out
}

func convertQBRow(row qbRow) models.ReportRow {
	converted := models.ReportRow{
		Type:    qbRowType(row.Type),
		Group:   row.Group,
		ColData: convertQBCols(row.ColData),
	}
	// Section labels live in the Header row on the wire.
	if len(converted.ColData) == 0 && row.Header != nil {
		converted.ColData = convertQBCols(row.Header.ColData)
	}
	if row.Summary != nil {
		summary := convertQBRow(*row.Summary)
		converted.Summary = &summary
	}
	if row.Rows != nil {
		converted.Rows = convertQBRows(row.Rows.Row)
	}
	return converted
}

func convertQBCols(cols []qbCol) []models.Col {
	out := make([]models.Col, 0, len(cols))
	for _, c := range cols {
		out = append(out, models.Col{Value: c.Value})
	}
	return out
}

func qbRowType(t string) models.RowType {
	switch t {
	case "Section":
		return models.RowSection
	case "GrandTotal":
		return models.RowGrandTotal
	default:
		return models.RowData
	}
}

// decodeReportJSON is exposed for tests that feed captured QBO payloads.
func decodeReportJSON(data []byte) (*qbReport, error) {
	var r qbReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
