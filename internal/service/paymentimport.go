package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
	"github.com/nikhilit2011/arto-arrears/internal/spreadsheet"
)

const (
	fieldPayVehicle    spreadsheet.Field = "vehicle"
	fieldPayDate       spreadsheet.Field = "payment_date"
	fieldPayRef        spreadsheet.Field = "payment_ref"
	fieldPayTotal      spreadsheet.Field = "total"
	fieldPayTax        spreadsheet.Field = "tax"
	fieldPayTax1       spreadsheet.Field = "tax1"
	fieldPayTax2       spreadsheet.Field = "tax2"
	fieldPayInterest   spreadsheet.Field = "interest"
	fieldPaySurcharge  spreadsheet.Field = "surcharge"
	fieldPayPenalty    spreadsheet.Field = "penalty"
	fieldPayAdjustment spreadsheet.Field = "adjustment"
	fieldPayExempted   spreadsheet.Field = "exempted"
	fieldPayRebate     spreadsheet.Field = "rebate"
)

var paymentHeaderRules = []spreadsheet.Rule{
	spreadsheet.MustRule(fieldPayVehicle, true, "vehicle", "regn", "registration"),
	spreadsheet.MustRule(fieldPayDate, false, "receipt date", "payment date", "date"),
	spreadsheet.MustRule(fieldPayRef, false, `receipt no\.?`, "ref", "challan", "utr", "transaction"),
	spreadsheet.MustRule(fieldPayTotal, false, `total in \(rs\.?\)`, "total", "amount"),
	spreadsheet.MustRule(fieldPayTax, false, "tax in"),
	spreadsheet.MustRule(fieldPayTax1, false, "tax1"),
	spreadsheet.MustRule(fieldPayTax2, false, "tax2"),
	spreadsheet.MustRule(fieldPayInterest, false, "interest"),
	spreadsheet.MustRule(fieldPaySurcharge, false, "surcharge"),
	spreadsheet.MustRule(fieldPayPenalty, false, "penalty"),
	spreadsheet.MustRule(fieldPayAdjustment, false, "adjustment"),
	spreadsheet.MustRule(fieldPayExempted, false, "exempt"),
	spreadsheet.MustRule(fieldPayRebate, false, "rebate"),
}

// PaymentImportMode selects the consistency model of an upload.
type PaymentImportMode string

const (
	// ModeBulk buffers all rows and writes them with one fingerprint-
	// deduplicated bulk upsert. Safe to re-run on the same or overlapping
	// files; never touches matched flags or arrear cases.
	ModeBulk PaymentImportMode = "bulk"
	// ModeImmediate writes each row as it is parsed, marks it matched and
	// pushes paid totals onto the arrear case inline. NOT idempotent
	// against re-upload; kept for small hand-checked files.
	ModeImmediate PaymentImportMode = "immediate"
)

// PaymentStore is the slice of the payment repository the import needs.
type PaymentStore interface {
	BulkUpsert(ctx context.Context, payments []domain.TaxPayment) (int64, error)
	Create(ctx context.Context, p *domain.TaxPayment) error
}

type PaymentImportResult struct {
	Inserted int64 `json:"inserted"`
	Matched  int   `json:"matched"`
	Skipped  int   `json:"skipped"`
}

type PaymentImportService struct {
	payments PaymentStore
	cases    PaidCaseStore
}

// PaidCaseStore lets the immediate mode mirror paid totals onto the case.
type PaidCaseStore interface {
	SetPaid(ctx context.Context, normalizedKey string, paidDate *time.Time, amountCents int64) (bool, error)
}

func NewPaymentImportService(payments PaymentStore, cases PaidCaseStore) *PaymentImportService {
	return &PaymentImportService{payments: payments, cases: cases}
}

// Import parses payment rows from an upload. sourceFile is kept per row as
// provenance; it does not participate in the fingerprint, so the same
// logical payment from two files still collapses to one.
func (s *PaymentImportService) Import(ctx context.Context, doc *spreadsheet.Document, sourceFile string, mode PaymentImportMode) (PaymentImportResult, error) {
	var res PaymentImportResult

	idx, err := spreadsheet.MapHeader(doc.Header(), paymentHeaderRules)
	if err != nil {
		return res, err
	}

	rows := make([]domain.TaxPayment, 0, len(doc.DataRows()))
	for _, row := range doc.DataRows() {
		rawVehicle, _ := idx.Cell(row, fieldPayVehicle)
		if rawVehicle == "" {
			res.Skipped++
			continue
		}
		norm := domain.NormalizeVehicle(rawVehicle)
		if norm == "" {
			res.Skipped++
			continue
		}

		dateCell, _ := idx.Cell(row, fieldPayDate)
		refCell, _ := idx.Cell(row, fieldPayRef)
		paymentDate := domain.ParseDateCell(dateCell)
		amountCents := s.rowAmountCents(idx, row)

		rows = append(rows, domain.TaxPayment{
			VehicleNumber:           rawVehicle,
			NormalizedVehicleNumber: norm,
			PaymentDate:             paymentDate,
			AmountCents:             amountCents,
			PaymentRef:              refCell,
			SourceFile:              sourceFile,
			Fingerprint:             domain.PaymentFingerprint(norm, paymentDate, amountCents, refCell),
		})
	}

	switch mode {
	case ModeImmediate:
		return s.importImmediate(ctx, rows, res)
	default:
		if len(rows) == 0 {
			return res, nil
		}
		inserted, err := s.payments.BulkUpsert(ctx, rows)
		res.Inserted = inserted
		return res, err
	}
}

// rowAmountCents prefers an explicit total column; when that is absent or
// zero it nets the component columns: positive parts minus exemptions and
// rebates. A row that parses to nothing yields zero, never an error.
func (s *PaymentImportService) rowAmountCents(idx spreadsheet.ColumnIndex, row []string) int64 {
	if cell, ok := idx.Cell(row, fieldPayTotal); ok {
		if cents, parsed := domain.ParseMoneyCents(cell); parsed && cents != 0 {
			return cents
		}
	}

	var sum int64
	for _, f := range []spreadsheet.Field{
		fieldPayTax, fieldPayTax1, fieldPayTax2, fieldPayInterest,
		fieldPaySurcharge, fieldPayPenalty, fieldPayAdjustment,
	} {
		if cell, ok := idx.Cell(row, f); ok {
			sum += domain.MoneyCentsOrZero(cell)
		}
	}
	for _, f := range []spreadsheet.Field{fieldPayExempted, fieldPayRebate} {
		if cell, ok := idx.Cell(row, f); ok {
			sum -= domain.MoneyCentsOrZero(cell)
		}
	}
	return sum
}

func (s *PaymentImportService) importImmediate(ctx context.Context, rows []domain.TaxPayment, res PaymentImportResult) (PaymentImportResult, error) {
	for i := range rows {
		p := rows[i]
		p.Matched = true
		if err := s.payments.Create(ctx, &p); err != nil {
			// A fingerprint collision on re-upload lands here; in immediate
			// mode it is a per-row failure, not a batch abort.
			log.Printf("[IMPORT] immediate create %s failed: %v", p.NormalizedVehicleNumber, err)
			res.Skipped++
			continue
		}
		res.Inserted++

		matched, err := s.cases.SetPaid(ctx, p.NormalizedVehicleNumber, p.PaymentDate, p.AmountCents)
		if err != nil {
			return res, fmt.Errorf("update arrear case %s: %w", p.NormalizedVehicleNumber, err)
		}
		if matched {
			res.Matched++
		}
	}
	return res, nil
}
