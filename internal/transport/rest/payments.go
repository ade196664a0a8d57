package rest

import (
	"log"
	"net/http"

	"github.com/nikhilit2011/arto-arrears/internal/repository"
)

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	f := repository.TaxPaymentsFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if key := r.URL.Query().Get("vehicle"); key != "" {
		f.NormalizedKey = &key
	}
	if from, ok := queryDate(r, "from"); ok {
		f.From = from
	}
	if to, ok := queryDate(r, "to"); ok {
		f.To = to
	}
	if matched := r.URL.Query().Get("matched"); matched == "true" || matched == "1" {
		v := true
		f.MatchedOnly = &v
	}

	payments, err := h.payments.List(r.Context(), f)
	if err != nil {
		log.Printf("[HTTP] list payments error: %v", err)
		ErrorInternal(w, "failed to list payments")
		return
	}
	Success(w, "", payments)
}

func (h *Handler) paymentsTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="payment_import_template.csv"`)
	if err := h.payments.TemplateCSV(w); err != nil {
		log.Printf("[HTTP] payments template error: %v", err)
	}
}
