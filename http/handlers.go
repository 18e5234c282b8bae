package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"stockdata/db"
	"stockdata/market"
	"stockdata/report"
)

type handlers struct {
	asm *report.Assembler
	log *zap.SugaredLogger
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/quote/{symbol}", h.handleQuote)
	mux.HandleFunc("GET /api/history/{symbol}", h.handleHistory)
	mux.HandleFunc("GET /api/analyze/{symbol}", h.handleAnalyze)
	mux.HandleFunc("GET /api/ws/analyze/{symbol}", h.handleWSAnalyze)
}

// handleHealth probes every registered adapter. The process answers
// 200 either way; a broken upstream shows up as "degraded".
func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	providers := h.asm.Health()
	status := "ok"
	for _, s := range providers {
		if s != "ok" {
			status = "degraded"
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"providers": providers,
	})
}

func (h *handlers) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol, m, _, ok := requestParams(w, r, market.Period1D)
	if !ok {
		return
	}

	quote, err := h.asm.Quote(r.Context(), symbol, m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *handlers) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	symbol, m, p, ok := requestParams(w, r, market.Period6Mo)
	if !ok {
		return
	}

	rep, err := h.asm.Analyze(r.Context(), symbol, m, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleHistory serves stored bars when the database has them, and
// falls back to a live fetch (which also records) otherwise.
func (h *handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol, m, p, ok := requestParams(w, r, market.Period1Y)
	if !ok {
		return
	}

	limit, err := p.Days()
	if err != nil {
		writeError(w, err)
		return
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	bars, err := db.QueryBars(symbol, m, limit)
	if err != nil || len(bars) == 0 {
		series, _, ferr := h.asm.FetchSeries(r.Context(), symbol, m, p)
		if ferr != nil {
			writeError(w, ferr)
			return
		}
		bars = series.Bars
		if len(bars) > limit {
			bars = bars[len(bars)-limit:]
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"market": m,
		"bars":   bars,
	})
}

// requestParams pulls symbol from the path and market/period from the
// query, writing the error response itself on bad input.
func requestParams(w http.ResponseWriter, r *http.Request, defaultPeriod market.Period) (string, market.Market, market.Period, bool) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		http.Error(w, `{"error":"symbol is required"}`, http.StatusBadRequest)
		return "", "", "", false
	}

	marketTok := r.URL.Query().Get("market")
	if marketTok == "" {
		marketTok = "us"
	}
	m, err := market.ParseMarket(marketTok)
	if err != nil {
		writeError(w, err)
		return "", "", "", false
	}

	periodTok := r.URL.Query().Get("period")
	p := defaultPeriod
	if periodTok != "" {
		if p, err = market.ParsePeriod(periodTok); err != nil {
			writeError(w, err)
			return "", "", "", false
		}
	}
	return symbol, m, p, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. Adapter
// failures pass through with their original message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	var merr *market.Error
	if errors.As(err, &merr) {
		code = merr.Code
		switch merr {
		case market.ErrUnsupportedMarket, market.ErrUnsupportedPeriod:
			status = http.StatusBadRequest
		case market.ErrDataUnavailable, market.ErrInsufficientHistory, market.ErrEmptySeries:
			status = http.StatusNotFound
		case market.ErrUpstream:
			status = http.StatusBadGateway
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}
