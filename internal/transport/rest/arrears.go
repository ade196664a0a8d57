package rest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/nikhilit2011/arto-arrears/internal/repository"
)

func (h *Handler) listArrears(w http.ResponseWriter, r *http.Request) {
	f := repository.ArrearCasesFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if key := r.URL.Query().Get("vehicle"); key != "" {
		f.NormalizedKey = &key
	}
	if paid := r.URL.Query().Get("paid"); paid != "" {
		v := paid == "true" || paid == "1"
		f.PaidOnly = &v
	}

	cases, err := h.notices.List(r.Context(), f)
	if err != nil {
		log.Printf("[HTTP] list arrears error: %v", err)
		ErrorInternal(w, "failed to list arrear cases")
		return
	}
	Success(w, "", cases)
}

func (h *Handler) exportArrearsCSV(w http.ResponseWriter, r *http.Request) {
	fileName := fmt.Sprintf("arrear_cases-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := h.notices.ExportCSV(r.Context(), w); err != nil {
		log.Printf("[HTTP] arrears export error: %v", err)
	}
}

func (h *Handler) arrearsTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="notice_import_template.csv"`)
	if err := h.notices.TemplateCSV(w); err != nil {
		log.Printf("[HTTP] arrears template error: %v", err)
	}
}

func (h *Handler) deleteAllArrears(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.notices.DeleteAll(r.Context())
	if err != nil {
		log.Printf("[HTTP] delete all arrears error: %v", err)
		ErrorInternal(w, "failed to delete arrear cases")
		return
	}
	Success(w, fmt.Sprintf("%d records deleted permanently.", deleted), map[string]int64{"deleted": deleted})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *Handler) bulkDeleteArrears(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		ErrorBadRequest(w, "no records selected")
		return
	}

	deleted, err := h.notices.DeleteByIDs(r.Context(), dedupeIDs(req.IDs))
	if err != nil {
		log.Printf("[HTTP] bulk delete arrears error: %v", err)
		ErrorInternal(w, "failed to delete arrear cases")
		return
	}
	Success(w, fmt.Sprintf("%d records deleted.", deleted), map[string]int64{"deleted": deleted})
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n < 0 {
		return def
	}
	return n
}
