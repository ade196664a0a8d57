package rest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilit2011/arto-arrears/internal/service"
	"github.com/nikhilit2011/arto-arrears/internal/transport/auth"
)

func ledgerFilterFromQuery(r *http.Request) service.LedgerFilter {
	f := service.LedgerFilter{
		Status: r.URL.Query().Get("status"),
	}
	if from, ok := queryDate(r, "from"); ok {
		f.From = from
	}
	if to, ok := queryDate(r, "to"); ok {
		f.To = to
	}
	return f
}

func (h *Handler) ledgerRows(w http.ResponseWriter, r *http.Request) {
	rows, err := h.ledger.Build(r.Context(), ledgerFilterFromQuery(r))
	if err != nil {
		log.Printf("[HTTP] build ledger error: %v", err)
		ErrorInternal(w, "failed to build reconciliation view")
		return
	}
	Success(w, "", rows)
}

type runReconcilerRequest struct {
	Vehicles []string `json:"vehicles"`
}

func (h *Handler) runReconciler(w http.ResponseWriter, r *http.Request) {
	var req runReconcilerRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ErrorBadRequest(w, "invalid JSON")
			return
		}
	}

	result, err := h.reconciler.EarliestOnly(r.Context(), req.Vehicles)
	if err != nil {
		log.Printf("[HTTP] reconciler error: %v", err)
		ErrorInternal(w, "reconciliation failed")
		return
	}
	Success(w, fmt.Sprintf("Reconciled %d vehicles.", result.Vehicles), result)
}

func (h *Handler) exportLedgerCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.ledger.Build(r.Context(), ledgerFilterFromQuery(r))
	if err != nil {
		log.Printf("[HTTP] ledger export error: %v", err)
		ErrorInternal(w, "failed to build reconciliation view")
		return
	}

	fileName := fmt.Sprintf("reconciliation-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := service.WriteLedgerCSV(w, rows); err != nil {
		log.Printf("[HTTP] ledger csv write error: %v", err)
	}
}

func (h *Handler) startLedgerExport(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "unauthorized")
		return
	}

	exportID, err := h.exports.StartLedgerExport(r.Context(), ledgerFilterFromQuery(r), userID)
	if err != nil {
		log.Printf("[HTTP] start ledger export error: %v", err)
		ErrorInternal(w, "failed to start export")
		return
	}
	SuccessAccepted(w, "Export started.", map[string]string{"export_id": exportID})
}

func (h *Handler) listLedgerExports(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "unauthorized")
		return
	}

	exports, err := h.exports.GetExports(r.Context(), userID)
	if err != nil {
		log.Printf("[HTTP] list exports error: %v", err)
		ErrorInternal(w, "failed to list exports")
		return
	}
	Success(w, "", exports)
}

func (h *Handler) getLedgerExport(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "unauthorized")
		return
	}

	exportID := chi.URLParam(r, "export_id")
	status, err := h.exports.GetExport(r.Context(), exportID, userID)
	if err != nil {
		ErrorNotFound(w, "export not found")
		return
	}
	Success(w, "", status)
}

func queryDate(r *http.Request, name string) (*time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, false
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, false
	}
	return &t, true
}
