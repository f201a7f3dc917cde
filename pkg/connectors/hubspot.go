package connectors

import (
	"context"
	"fmt"
	"strconv"

	"findash/pkg/config"
	"findash/pkg/models"

	"github.com/shopspring/decimal"
)

const hubspotBaseURL = "https://api.hubapi.com"

// HubSpot bridges the sales pipeline into the financial picture. It is
// compare-only: closed-won revenue cross-checks the GL revenue line but
// never mutates the statement.
type HubSpot struct {
	rest *restClient
}

func NewHubSpot(cfg config.Config) *HubSpot {
	return &HubSpot{rest: newRESTClient("hubspot", hubspotBaseURL, cfg.HubSpotToken)}
}

func (h *HubSpot) Name() string { return "hubspot" }

type hubspotFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type hubspotSearchRequest struct {
	FilterGroups []struct {
		Filters []hubspotFilter `json:"filters"`
	} `json:"filterGroups"`
	Properties []string `json:"properties,omitempty"`
	Limit      int      `json:"limit"`
}

type hubspotDeal struct {
	Properties map[string]string `json:"properties"`
}

type hubspotSearchResponse struct {
	Total   int           `json:"total"`
	Results []hubspotDeal `json:"results"`
}

func closedWonFilters(period models.Period) []hubspotFilter {
	startMs := period.Start.UnixMilli()
	endMs := endOfDay(period.End).UnixMilli()
	return []hubspotFilter{
		{PropertyName: "dealstage", Operator: "EQ", Value: "closedwon"},
		{PropertyName: "closedate", Operator: "GTE", Value: strconv.FormatInt(startMs, 10)},
		{PropertyName: "closedate", Operator: "LTE", Value: strconv.FormatInt(endMs, 10)},
	}
}

func (h *HubSpot) searchDeals(ctx context.Context, filters []hubspotFilter, properties []string) (*hubspotSearchResponse, error) {
	req := hubspotSearchRequest{Properties: properties, Limit: 200}
	req.FilterGroups = append(req.FilterGroups, struct {
		Filters []hubspotFilter `json:"filters"`
	}{Filters: filters})

	var resp hubspotSearchResponse
	if err := h.rest.postJSON(ctx, "/crm/v3/objects/deals/search", req, rangeReadTimeout, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClosedWonInPeriod sums closed-won deal value, the CRM view of revenue
// booked in the period.
func (h *HubSpot) ClosedWonInPeriod(ctx context.Context, period models.Period) (decimal.Decimal, error) {
	resp, err := h.searchDeals(ctx, closedWonFilters(period), []string{"amount", "closedate"})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, deal := range resp.Results {
		total = total.Add(parseAmount(deal.Properties["amount"]))
	}
	return total, nil
}

// PipelineValue totals open pipeline by deal stage.
func (h *HubSpot) PipelineValue(ctx context.Context) (map[string]decimal.Decimal, error) {
	filters := []hubspotFilter{{PropertyName: "dealstage", Operator: "NEQ", Value: "closedlost"}}
	resp, err := h.searchDeals(ctx, filters, []string{"dealname", "amount", "dealstage"})
	if err != nil {
		return nil, err
	}
	byStage := make(map[string]decimal.Decimal)
	for _, deal := range resp.Results {
		stage := deal.Properties["dealstage"]
		if stage == "" {
			stage = "unknown"
		}
		byStage[stage] = byStage[stage].Add(parseAmount(deal.Properties["amount"]))
	}
	return byStage, nil
}

// NewCustomersCount counts closed-won deals in the period, the
// denominator for CAC.
func (h *HubSpot) NewCustomersCount(ctx context.Context, period models.Period) (int, error) {
	resp, err := h.searchDeals(ctx, closedWonFilters(period), nil)
	if err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// FetchMetric implements the scalar-metric capability.
func (h *HubSpot) FetchMetric(ctx context.Context, name string, period models.Period) (decimal.Decimal, error) {
	switch name {
	case "closed_won":
		return h.ClosedWonInPeriod(ctx, period)
	}
	return decimal.Zero, fmt.Errorf("hubspot: unknown metric %q", name)
}
