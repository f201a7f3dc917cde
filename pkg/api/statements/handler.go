package statements

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"findash/pkg/connectors"
	"findash/pkg/core/assemble"
	"findash/pkg/models"
)

// Handler holds dependencies for statement endpoints.
type Handler struct {
	Assembler *assemble.Assembler
}

// NewHandler creates a new statements handler.
func NewHandler(a *assemble.Assembler) *Handler {
	return &Handler{Assembler: a}
}

func cors(w http.ResponseWriter, r *http.Request) bool {
	// Add CORS headers for local dev
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

// parsePeriod reads start/end query params. Defaults to the trailing
// twelve full months ending last month when both are absent.
func parsePeriod(r *http.Request) (models.Period, error) {
	startRaw := r.URL.Query().Get("start")
	endRaw := r.URL.Query().Get("end")
	if startRaw == "" && endRaw == "" {
		now := time.Now().UTC()
		firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := firstOfThisMonth.AddDate(0, 0, -1)
		start := firstOfThisMonth.AddDate(-1, 0, 0)
		return models.NewPeriod(start, end), nil
	}
	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return models.Period{}, fmt.Errorf("bad start date %q: want YYYY-MM-DD", startRaw)
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return models.Period{}, fmt.Errorf("bad end date %q: want YYYY-MM-DD", endRaw)
	}
	if start.After(end) {
		return models.Period{}, fmt.Errorf("start date %s is after end date %s", startRaw, endRaw)
	}
	return models.NewPeriod(start, end), nil
}

// writeStatement serializes a finished statement, mapping a primary
// source failure to 502 (secondary failures never surface as errors).
func writeStatement(w http.ResponseWriter, stmt interface{}, err error) {
	if err != nil {
		var te *connectors.TransportError
		if errors.As(err, &te) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stmt)
}

// HandleIncome serves GET /api/statements/income?start=&end=
func (h *Handler) HandleIncome(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	period, err := parsePeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[API] income statement request %s\n", period)
	stmt, err := h.Assembler.IncomeStatement(r.Context(), period)
	writeStatement(w, stmt, err)
}

// HandleBalance serves GET /api/statements/balance?as_of=
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("bad as_of date %q: want YYYY-MM-DD", raw), http.StatusBadRequest)
			return
		}
		asOf = parsed
	}
	fmt.Printf("[API] balance sheet request as of %s\n", asOf.Format("2006-01-02"))
	stmt, err := h.Assembler.BalanceSheet(r.Context(), asOf)
	writeStatement(w, stmt, err)
}

// HandleCashFlow serves GET /api/statements/cashflow?start=&end=
func (h *Handler) HandleCashFlow(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	period, err := parsePeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[API] cash flow request %s\n", period)
	stmt, err := h.Assembler.CashFlowStatement(r.Context(), period)
	writeStatement(w, stmt, err)
}
