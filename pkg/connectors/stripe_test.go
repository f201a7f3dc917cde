package connectors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"findash/pkg/config"
	"findash/pkg/models"
)

func testPeriod() models.Period {
	return models.NewPeriod(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	)
}

func testStripe(serverURL string) *Stripe {
	s := NewStripe(config.Config{StripeSecretKey: "sk_test"})
	s.rest.baseURL = serverURL
	return s
}

func TestAvailableBalance_ConvertsCentsAndFiltersCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"available": [
			{"amount": 4830050, "currency": "usd"},
			{"amount": 99999, "currency": "eur"}
		], "pending": []}`))
	}))
	defer server.Close()

	got, err := testStripe(server.URL).AvailableBalance(context.Background())
	if err != nil {
		t.Fatalf("AvailableBalance failed: %v", err)
	}
	if got.String() != "48300.5" {
		t.Errorf("expected 48300.5 dollars, got %s", got)
	}
}

func TestMRR_NormalizesCadences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"has_more": false, "data": [
			{"id": "sub_1", "items": {"data": [{"price": {"unit_amount": 120000, "recurring": {"interval": "year"}}}]}},
			{"id": "sub_2", "items": {"data": [{"price": {"unit_amount": 5000, "recurring": {"interval": "week"}}}]}},
			{"id": "sub_3", "items": {"data": [{"price": {"unit_amount": 8000, "recurring": {"interval": "month"}}}]}}
		]}`))
	}))
	defer server.Close()

	got, err := testStripe(server.URL).MRR(context.Background())
	if err != nil {
		t.Fatalf("MRR failed: %v", err)
	}
	// $1200/yr -> 100, $50/wk -> 216.5, $80/mo -> 80.
	if got.String() != "396.5" {
		t.Errorf("MRR expected 396.5, got %s", got)
	}
}

func TestActiveSubscriptions_Paginates(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("starting_after") == "" {
			fmt.Fprint(w, `{"has_more": true, "data": [{"id": "sub_1", "items": {"data": []}}]}`)
			return
		}
		if r.URL.Query().Get("starting_after") != "sub_1" {
			t.Errorf("cursor expected sub_1, got %s", r.URL.Query().Get("starting_after"))
		}
		fmt.Fprint(w, `{"has_more": false, "data": [{"id": "sub_2", "items": {"data": []}}]}`)
	}))
	defer server.Close()

	subs, err := testStripe(server.URL).activeSubscriptions(context.Background())
	if err != nil {
		t.Fatalf("activeSubscriptions failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 pages, got %d calls", calls)
	}
	if len(subs) != 2 {
		t.Errorf("expected 2 subscriptions, got %d", len(subs))
	}
}

func TestDeferredRevenue_ProratesAnnualPlans(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	// Annual plan with ~6 months left: $12,000 plan -> $6,000 deferred.
	periodEnd := asOf.AddDate(0, 6, 0).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"has_more": false, "data": [
			{"id": "sub_1", "current_period_end": %d,
			 "items": {"data": [{"price": {"unit_amount": 1200000, "recurring": {"interval": "year"}}}]}},
			{"id": "sub_2", "current_period_end": %d,
			 "items": {"data": [{"price": {"unit_amount": 8000, "recurring": {"interval": "month"}}}]}}
		]}`, periodEnd, periodEnd)
	}))
	defer server.Close()

	got, err := testStripe(server.URL).DeferredRevenue(context.Background(), asOf)
	if err != nil {
		t.Fatalf("DeferredRevenue failed: %v", err)
	}
	// Monthly plans carry no deferred revenue; only the annual plan counts.
	if got.String() != "6000" {
		t.Errorf("deferred revenue expected 6000, got %s", got)
	}
}

func TestStripeFetchMetric_Unknown(t *testing.T) {
	s := NewStripe(config.Config{StripeSecretKey: "sk_test"})
	if _, err := s.FetchMetric(context.Background(), "nonsense", testPeriod()); err == nil {
		t.Error("unknown metric should error")
	}
}
