package connectors

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"findash/pkg/config"
	"findash/pkg/models"
)

const samplePLReport = `{
  "Header": {"ReportName": "ProfitAndLoss"},
  "Rows": {"Row": [
    {
      "type": "Section",
      "group": "Income",
      "Header": {"ColData": [{"value": "Income"}]},
      "Rows": {"Row": [
        {"type": "Data", "ColData": [{"value": "Subscription Revenue"}, {"value": "120000.00"}]},
        {"type": "Data", "ColData": [{"value": "Services"}, {"value": "8000.00"}]}
      ]},
      "Summary": {"ColData": [{"value": "Total Income"}, {"value": "128000.00"}]}
    },
    {
      "type": "Section",
      "group": "COGS",
      "ColData": [{"value": "Cost of Goods Sold"}],
      "Rows": {"Row": [
        {"type": "Data", "ColData": [{"value": "Hosting"}, {"value": "9000.00"}]}
      ]}
    },
    {"type": "GrandTotal", "group": "NetIncome", "ColData": [{"value": "Net Income"}, {"value": "119000.00"}]}
  ]}
}`

func testQuickBooks(serverURL string) *QuickBooks {
	qb := NewQuickBooks(config.Config{
		QBAccessToken:  "token",
		QBRealmID:      "12345",
		QBClientID:     "client-id",
		QBClientSecret: "client-secret",
		QBRefreshToken: "refresh-token",
	})
	qb.rest.baseURL = serverURL
	return qb
}

func TestFetchReport_ConvertsWireTree(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Write([]byte(samplePLReport))
	}))
	defer server.Close()

	qb := testQuickBooks(server.URL)
	period := models.NewPeriod(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	tree, err := qb.FetchReport(context.Background(), models.ReportProfitAndLoss, period)
	if err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}

	if gotPath != "/v3/company/12345/reports/ProfitAndLoss" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer token" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotQuery["start_date"][0] != "2025-01-01" || gotQuery["end_date"][0] != "2025-12-31" {
		t.Errorf("unexpected period params: %v", gotQuery)
	}
	if gotQuery["accounting_method"][0] != "Accrual" {
		t.Errorf("P&L should request accrual accounting, got %v", gotQuery)
	}

	if tree.ReportName != "ProfitAndLoss" {
		t.Errorf("ReportName expected ProfitAndLoss, got %s", tree.ReportName)
	}
	if len(tree.Rows) != 3 {
		t.Fatalf("expected 3 top-level rows, got %d", len(tree.Rows))
	}

	income := tree.Rows[0]
	if income.Type != models.RowSection || income.Group != "Income" {
		t.Errorf("first row expected Income section, got %+v", income)
	}
	// Section label arrives inside the wire Header row.
	if len(income.ColData) == 0 || income.ColData[0].Value != "Income" {
		t.Errorf("section label from Header expected Income, got %+v", income.ColData)
	}
	if len(income.Rows) != 2 {
		t.Errorf("Income section expected 2 detail rows, got %d", len(income.Rows))
	}
	if income.Summary == nil || income.Summary.ColData[1].Value != "128000.00" {
		t.Errorf("summary row not converted: %+v", income.Summary)
	}
	if tree.Rows[2].Type != models.RowGrandTotal {
		t.Errorf("last row expected GrandTotal, got %v", tree.Rows[2].Type)
	}
}

func TestFetchReport_BalanceSheetUsesAsOfRange(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"Header": {"ReportName": "BalanceSheet"}, "Rows": {"Row": []}}`))
	}))
	defer server.Close()

	qb := testQuickBooks(server.URL)
	asOf := models.AsOf(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	if _, err := qb.FetchReport(context.Background(), models.ReportBalanceSheet, asOf); err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}

	if gotQuery["start_date"][0] != "2025-06-01" {
		t.Errorf("balance sheet should start at first of month, got %v", gotQuery["start_date"])
	}
	if gotQuery["end_date"][0] != "2025-06-15" {
		t.Errorf("balance sheet should end on as-of date, got %v", gotQuery["end_date"])
	}
}

func TestFetchReport_ServerErrorIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	qb := testQuickBooks(server.URL)
	period := models.AsOf(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	_, err := qb.FetchReport(context.Background(), models.ReportProfitAndLoss, period)
	if err == nil {
		t.Fatal("expected error on 500")
	}
	te, ok := err.(*TransportError)
	if !ok {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if te.Status != http.StatusInternalServerError {
		t.Errorf("status expected 500, got %d", te.Status)
	}
	if te.Source != "quickbooks" {
		t.Errorf("source expected quickbooks, got %s", te.Source)
	}
}

func TestRefreshAccessToken(t *testing.T) {
	var gotAuth, gotGrant, gotRefresh string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		r.ParseForm()
		gotGrant = r.PostFormValue("grant_type")
		gotRefresh = r.PostFormValue("refresh_token")
		w.Write([]byte(`{"access_token": "new-access", "refresh_token": "new-refresh", "expires_in": 3600}`))
	}))
	defer server.Close()

	qb := testQuickBooks(server.URL)
	qb.oauthBaseURL = server.URL

	pair, err := qb.RefreshAccessToken(context.Background())
	if err != nil {
		t.Fatalf("RefreshAccessToken failed: %v", err)
	}

	// Token endpoint uses HTTP Basic with client id/secret.
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
	if gotAuth != wantAuth {
		t.Errorf("expected basic auth %q, got %q", wantAuth, gotAuth)
	}
	if gotGrant != "refresh_token" || gotRefresh != "refresh-token" {
		t.Errorf("unexpected form values grant=%q refresh=%q", gotGrant, gotRefresh)
	}
	if pair.AccessToken != "new-access" || pair.RefreshToken != "new-refresh" {
		t.Errorf("unexpected token pair %+v", pair)
	}
	if pair.ExpiresIn != 3600 {
		t.Errorf("expires_in expected 3600, got %d", pair.ExpiresIn)
	}
}

func TestDecodeReportJSON_Sample(t *testing.T) {
	report, err := decodeReportJSON([]byte(samplePLReport))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if report.Header.ReportName != "ProfitAndLoss" {
		t.Errorf("ReportName expected ProfitAndLoss, got %s", report.Header.ReportName)
	}
	tree := report.toTree("fallback")
	if !strings.Contains(tree.Rows[0].Rows[0].ColData[0].Value, "Subscription") {
		t.Errorf("detail row label lost in conversion: %+v", tree.Rows[0].Rows[0])
	}
}
