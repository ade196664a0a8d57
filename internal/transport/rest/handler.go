package rest

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
	"github.com/nikhilit2011/arto-arrears/internal/repository"
	"github.com/nikhilit2011/arto-arrears/internal/service"
	"github.com/nikhilit2011/arto-arrears/internal/spreadsheet"
)

type NoticeImporter interface {
	Import(ctx context.Context, doc *spreadsheet.Document) (service.NoticeImportResult, error)
}

type PaymentImporter interface {
	Import(ctx context.Context, doc *spreadsheet.Document, sourceFile string, mode service.PaymentImportMode) (service.PaymentImportResult, error)
}

type NoticeAdmin interface {
	List(ctx context.Context, f repository.ArrearCasesFilter) ([]domain.ArrearCase, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	TemplateCSV(w io.Writer) error
}

type PaymentLister interface {
	List(ctx context.Context, f repository.TaxPaymentsFilter) ([]domain.TaxPayment, error)
	TemplateCSV(w io.Writer) error
}

type LedgerBuilder interface {
	Build(ctx context.Context, f service.LedgerFilter) ([]service.LedgerRow, error)
}

type Reconciler interface {
	EarliestOnly(ctx context.Context, keys []string) (service.ReconcileResult, error)
}

type LedgerExporter interface {
	StartLedgerExport(ctx context.Context, filter service.LedgerFilter, userID int64) (string, error)
	GetExports(ctx context.Context, userID int64) ([]service.ExportStatus, error)
	GetExport(ctx context.Context, exportID string, userID int64) (*service.ExportStatus, error)
}

type Handler struct {
	noticeImport  NoticeImporter
	paymentImport PaymentImporter
	notices       NoticeAdmin
	payments      PaymentLister
	ledger        LedgerBuilder
	reconciler    Reconciler
	exports       LedgerExporter
}

func NewHandler(
	noticeImport NoticeImporter,
	paymentImport PaymentImporter,
	notices NoticeAdmin,
	payments PaymentLister,
	ledger LedgerBuilder,
	reconciler Reconciler,
	exports LedgerExporter,
) *Handler {
	return &Handler{
		noticeImport:  noticeImport,
		paymentImport: paymentImport,
		notices:       notices,
		payments:      payments,
		ledger:        ledger,
		reconciler:    reconciler,
		exports:       exports,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/arrears", func(r chi.Router) {
		r.Get("/", h.listArrears)
		r.Post("/import", h.importNotices)
		r.Get("/export", h.exportArrearsCSV)
		r.Get("/template", h.arrearsTemplate)
		r.Delete("/", h.deleteAllArrears)
		r.Post("/bulk-delete", h.bulkDeleteArrears)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.listPayments)
		r.Post("/import", h.importPayments)
		r.Get("/template", h.paymentsTemplate)
	})

	r.Route("/reconciliation", func(r chi.Router) {
		r.Get("/", h.ledgerRows)
		r.Post("/run", h.runReconciler)
		r.Get("/export", h.exportLedgerCSV)
		r.Post("/exports", h.startLedgerExport)
		r.Get("/exports", h.listLedgerExports)
		r.Get("/exports/{export_id}", h.getLedgerExport)
	})

	return r
}
