package config

import (
	"encoding/json"
	"net/http"

	"findash/pkg/config"
)

// Response is the sanitized configuration surface. Secrets never leave
// the process; only display settings are exposed.
type Response struct {
	CompanyName          string `json:"company_name"`
	FiscalYearStartMonth int    `json:"fiscal_year_start_month"`
	DemoMode             bool   `json:"demo_mode"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Cfg config.Config
}

// NewHandler creates a new config handler
func NewHandler(cfg config.Config) *Handler {
	return &Handler{Cfg: cfg}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers for local dev
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	resp := Response{
		CompanyName:          h.Cfg.CompanyName,
		FiscalYearStartMonth: h.Cfg.FiscalYearStartMonth,
		DemoMode:             h.Cfg.UseDemoData,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
