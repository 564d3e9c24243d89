package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"StockLens/internal/analysis"
	"StockLens/internal/export"
	"StockLens/internal/model"
	"StockLens/internal/request"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analyzer         *analysis.Analyzer
	defaultRange     string
	defaultTimeframe string
}

// NewHandler creates a new Handler. Empty defaults fall back to 1 Month / 1 Day.
func NewHandler(analyzer *analysis.Analyzer, defaultRange, defaultTimeframe string) *Handler {
	if defaultRange == "" {
		defaultRange = string(request.Range1Month)
	}
	if defaultTimeframe == "" {
		defaultTimeframe = string(request.Timeframe1Day)
	}
	return &Handler{
		analyzer:         analyzer,
		defaultRange:     defaultRange,
		defaultTimeframe: defaultTimeframe,
	}
}

func (h *Handler) input(r *http.Request, symbol string) analysis.Input {
	q := r.URL.Query()
	in := analysis.Input{
		Symbol:    symbol,
		Range:     q.Get("range"),
		Timeframe: q.Get("timeframe"),
	}
	if in.Range == "" {
		in.Range = h.defaultRange
	}
	if in.Timeframe == "" {
		in.Timeframe = h.defaultTimeframe
	}
	if v := q.Get("commentary"); v != "" {
		in.Commentary, _ = strconv.ParseBool(v)
	}
	return in
}

// Analyze handles GET /analyze. Degraded sections still return 200.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	in := h.input(r, r.URL.Query().Get("symbol"))

	report, err := h.analyzer.Analyze(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Search handles GET /search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	sym, err := h.analyzer.Search(r.Context(), query)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Query  string        `json:"query"`
		Symbol *model.Symbol `json:"symbol"`
	}{query, sym})
}

// DownloadCSV handles GET /history/{symbol}.csv
func (h *Handler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	in := h.input(r, vars["symbol"])

	series, err := h.analyzer.History(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, series); err != nil {
		log.Printf("[ERROR] write csv for %s: %v", series.Symbol, err)
		http.Error(w, "failed to encode csv", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(series.Symbol)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// DateRanges handles GET /options/ranges
func (h *Handler) DateRanges(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, request.DateRanges)
}

// Timeframes handles GET /options/timeframes
func (h *Handler) Timeframes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, request.Timeframes)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// respondError maps a failure kind to a status. Provider details stay in the error log.
func respondError(w http.ResponseWriter, err error) {
	switch analysis.Classify(err) {
	case model.FailureMissingInput:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case model.FailureEmpty:
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "upstream provider error", http.StatusBadGateway)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Printf("[ERROR] encode response: %v", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
