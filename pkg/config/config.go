// Package config defines the explicit configuration value passed into the
// statement assembler. There is no package-level config singleton: callers
// load a Config once (env, optionally overlaid by a YAML or HJSON file)
// and hand it down, which keeps tests deterministic.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

type Config struct {
	CompanyName          string `yaml:"company_name" json:"company_name"`
	FiscalYearStartMonth int    `yaml:"fiscal_year_start_month" json:"fiscal_year_start_month"`
	UseDemoData          bool   `yaml:"use_demo_data" json:"use_demo_data"`

	// QuickBooks (general ledger, source of record)
	QBClientID     string `yaml:"qb_client_id" json:"qb_client_id"`
	QBClientSecret string `yaml:"qb_client_secret" json:"qb_client_secret"`
	QBRealmID      string `yaml:"qb_realm_id" json:"qb_realm_id"`
	QBAccessToken  string `yaml:"qb_access_token" json:"qb_access_token"`
	QBRefreshToken string `yaml:"qb_refresh_token" json:"qb_refresh_token"`
	QBEnvironment  string `yaml:"qb_environment" json:"qb_environment"`

	StripeSecretKey  string `yaml:"stripe_secret_key" json:"stripe_secret_key"`
	MercuryAPIToken  string `yaml:"mercury_api_token" json:"mercury_api_token"`
	BrexAPIToken     string `yaml:"brex_api_token" json:"brex_api_token"`
	GustoCompanyID   string `yaml:"gusto_company_id" json:"gusto_company_id"`
	GustoAccessToken string `yaml:"gusto_access_token" json:"gusto_access_token"`
	HubSpotToken     string `yaml:"hubspot_access_token" json:"hubspot_access_token"`

	GoogleServiceAccountJSON  string `yaml:"google_service_account_json" json:"google_service_account_json"`
	GoogleSheetsSpreadsheetID string `yaml:"google_sheets_spreadsheet_id" json:"google_sheets_spreadsheet_id"`
}

// FromEnv reads configuration from environment variables. Callers that
// want .env support run godotenv.Load first (the cmd mains do).
func FromEnv() Config {
	return Config{
		CompanyName:          envOr("COMPANY_NAME", "My SaaS Co"),
		FiscalYearStartMonth: envIntOr("FISCAL_YEAR_START_MONTH", 1),
		UseDemoData:          strings.EqualFold(envOr("USE_DEMO_DATA", "true"), "true"),

		QBClientID:     os.Getenv("QB_CLIENT_ID"),
		QBClientSecret: os.Getenv("QB_CLIENT_SECRET"),
		QBRealmID:      os.Getenv("QB_REALM_ID"),
		QBAccessToken:  os.Getenv("QB_ACCESS_TOKEN"),
		QBRefreshToken: os.Getenv("QB_REFRESH_TOKEN"),
		QBEnvironment:  envOr("QB_ENVIRONMENT", "production"),

		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		MercuryAPIToken:  os.Getenv("MERCURY_API_TOKEN"),
		BrexAPIToken:     os.Getenv("BREX_API_TOKEN"),
		GustoCompanyID:   os.Getenv("GUSTO_COMPANY_ID"),
		GustoAccessToken: os.Getenv("GUSTO_ACCESS_TOKEN"),
		HubSpotToken:     os.Getenv("HUBSPOT_ACCESS_TOKEN"),

		GoogleServiceAccountJSON:  os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleSheetsSpreadsheetID: os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"),
	}
}

// LoadFile overlays a config file onto cfg. YAML by default; .hjson files
// are parsed as Hjson (comments, trailing commas) and decoded via JSON.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hjson":
		var node interface{}
		if err := hjson.Unmarshal(data, &node); err != nil {
			return cfg, fmt.Errorf("parse hjson config: %w", err)
		}
		jsonBytes, err := json.Marshal(node)
		if err != nil {
			return cfg, fmt.Errorf("convert hjson config: %w", err)
		}
		if err := json.Unmarshal(jsonBytes, &cfg); err != nil {
			return cfg, fmt.Errorf("decode hjson config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml config: %w", err)
		}
	}
	return cfg, nil
}

// QBBaseURL picks the QuickBooks API host for the configured environment.
func (c Config) QBBaseURL() string {
	if c.QBEnvironment == "sandbox" {
		return "https://sandbox-quickbooks.api.intuit.com"
	}
	return "https://quickbooks.api.intuit.com"
}

// Integration names accepted by IsConfigured.
const (
	IntegrationQuickBooks   = "quickbooks"
	IntegrationStripe       = "stripe"
	IntegrationMercury      = "mercury"
	IntegrationBrex         = "brex"
	IntegrationGusto        = "gusto"
	IntegrationHubSpot      = "hubspot"
	IntegrationGoogleSheets = "google_sheets"
)

// Integrations lists every known integration in a stable order.
func Integrations() []string {
	return []string{
		IntegrationQuickBooks,
		IntegrationStripe,
		IntegrationMercury,
		IntegrationBrex,
		IntegrationGusto,
		IntegrationHubSpot,
		IntegrationGoogleSheets,
	}
}

// IsConfigured reports whether the named integration has every secret it
// needs. An unconfigured integration must never be invoked; the assembler
// treats it as absent rather than as an error.
func (c Config) IsConfigured(integration string) bool {
	switch integration {
	case IntegrationQuickBooks:
		return c.QBAccessToken != "" && c.QBRealmID != ""
	case IntegrationStripe:
		return c.StripeSecretKey != ""
	case IntegrationMercury:
		return c.MercuryAPIToken != ""
	case IntegrationBrex:
		return c.BrexAPIToken != ""
	case IntegrationGusto:
		return c.GustoAccessToken != "" && c.GustoCompanyID != ""
	case IntegrationHubSpot:
		return c.HubSpotToken != ""
	case IntegrationGoogleSheets:
		return c.GoogleServiceAccountJSON != "" && c.GoogleSheetsSpreadsheetID != ""
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}
