package status

import (
	"encoding/json"
	"net/http"

	"findash/pkg/config"
)

// Response reports which integrations are configured. Configured means
// credentials are present, not that the vendor is reachable.
type Response struct {
	DemoMode     bool            `json:"demo_mode"`
	Integrations map[string]bool `json:"integrations"`
}

// Handler holds dependencies for status endpoints.
type Handler struct {
	Cfg config.Config
}

func NewHandler(cfg config.Config) *Handler {
	return &Handler{Cfg: cfg}
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers for local dev
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	resp := Response{
		DemoMode:     h.Cfg.UseDemoData,
		Integrations: make(map[string]bool),
	}
	for _, name := range config.Integrations() {
		resp.Integrations[name] = h.Cfg.IsConfigured(name)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
