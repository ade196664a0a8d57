package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
	"github.com/nikhilit2011/arto-arrears/internal/repository"
)

// Ledger row statuses. The strings are part of the export format.
const (
	StatusCleared  = "Cleared"
	StatusPending  = "Pending"
	StatusOnlyPaid = "Only Paid (No Arrear)"
	StatusNoRecord = "No Record"
)

// LedgerRow is one per-vehicle line of the reconciliation view.
type LedgerRow struct {
	VehicleNumber           string     `json:"vehicle_number"`
	NormalizedVehicleNumber string     `json:"normalized_vehicle_number"`
	TaxArrearFrom           *time.Time `json:"tax_arrear_from,omitempty"`
	EarliestPaymentDate     *time.Time `json:"earliest_payment_date,omitempty"`
	EarliestPaymentRef      string     `json:"earliest_payment_ref,omitempty"`
	ArrearCents             int64      `json:"arrear_cents"`
	PaidCents               int64      `json:"paid_cents"`
	BalanceCents            int64      `json:"balance_cents"`
	Status                  string     `json:"status"`
}

type LedgerFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
}

// LedgerCaseStore is the slice of the arrear case repository the view
// builder needs. The case store defines which vehicles are in scope:
// payments for vehicles with no arrear case never appear.
type LedgerCaseStore interface {
	List(ctx context.Context, f repository.ArrearCasesFilter) ([]domain.ArrearCase, error)
}

type LedgerPaymentStore interface {
	SumByVehicle(ctx context.Context, keys []string, from, to *time.Time) (map[string]int64, error)
	ListByKeys(ctx context.Context, keys []string) ([]domain.TaxPayment, error)
}

type LedgerService struct {
	cases    LedgerCaseStore
	payments LedgerPaymentStore
}

func NewLedgerService(cases LedgerCaseStore, payments LedgerPaymentStore) *LedgerService {
	return &LedgerService{cases: cases, payments: payments}
}

// Build produces the reconciliation ledger: effective arrear per vehicle,
// paid sums (optionally windowed), balances and statuses. Rows with zero
// total paid are dropped (display policy) and the result is sorted largest
// outstanding balance first.
func (s *LedgerService) Build(ctx context.Context, f LedgerFilter) ([]LedgerRow, error) {
	cases, err := s.cases.List(ctx, repository.ArrearCasesFilter{})
	if err != nil {
		return nil, fmt.Errorf("load arrear cases: %w", err)
	}
	if len(cases) == 0 {
		return []LedgerRow{}, nil
	}

	keys := make([]string, 0, len(cases))
	for _, c := range cases {
		keys = append(keys, c.NormalizedVehicleNumber)
	}

	paid, err := s.payments.SumByVehicle(ctx, keys, f.From, f.To)
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}

	// The earliest receipt is derived with the same selection the
	// reconciler uses, so the view is right even before a reconcile run.
	payments, err := s.payments.ListByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	earliest := domain.ChooseEarliest(payments)

	rows := buildLedgerRows(cases, paid, earliest)
	rows = dropZeroPaid(rows)
	rows = filterByStatus(rows, f.Status)
	return sortByBalance(rows), nil
}

// Each stage below returns a new slice; nothing mutates its input.

func buildLedgerRows(cases []domain.ArrearCase, paid map[string]int64, earliest map[string]domain.TaxPayment) []LedgerRow {
	rows := make([]LedgerRow, 0, len(cases))
	for _, c := range cases {
		arrear := c.EffectiveArrearCents()
		paidCents := paid[c.NormalizedVehicleNumber]
		balance := arrear - paidCents

		row := LedgerRow{
			VehicleNumber:           c.VehicleNumber,
			NormalizedVehicleNumber: c.NormalizedVehicleNumber,
			TaxArrearFrom:           c.TaxArrearFrom,
			ArrearCents:             arrear,
			PaidCents:               paidCents,
			BalanceCents:            balance,
			Status:                  ledgerStatus(arrear, paidCents, balance),
		}
		if row.VehicleNumber == "" {
			row.VehicleNumber = c.NormalizedVehicleNumber
		}
		if p, ok := earliest[c.NormalizedVehicleNumber]; ok {
			row.EarliestPaymentDate = p.PaymentDate
			row.EarliestPaymentRef = p.PaymentRef
		}
		rows = append(rows, row)
	}
	return rows
}

func ledgerStatus(arrear, paid, balance int64) string {
	switch {
	case arrear > 0 && balance <= 0:
		return StatusCleared
	case arrear > 0:
		return StatusPending
	case paid > 0:
		return StatusOnlyPaid
	default:
		return StatusNoRecord
	}
}

func dropZeroPaid(rows []LedgerRow) []LedgerRow {
	out := make([]LedgerRow, 0, len(rows))
	for _, r := range rows {
		if r.PaidCents != 0 {
			out = append(out, r)
		}
	}
	return out
}

func filterByStatus(rows []LedgerRow, status string) []LedgerRow {
	if status == "" {
		return rows
	}
	out := make([]LedgerRow, 0, len(rows))
	for _, r := range rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func sortByBalance(rows []LedgerRow) []LedgerRow {
	out := make([]LedgerRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BalanceCents > out[j].BalanceCents
	})
	return out
}

var ledgerCSVHeader = []string{
	"S.No", "Vehicle Number", "Receipt Date", "Receipt No.",
	"Tax Arrear From", "Arrear Total (Rs.)", "Total Paid (Rs.)",
	"Balance (Rs.)", "Status",
}

// WriteLedgerCSV renders rows as the ledger export table. Money fields are
// decimal major units, never raw cents.
func WriteLedgerCSV(w io.Writer, rows []LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerCSVHeader); err != nil {
		return err
	}
	for i, r := range rows {
		rec := []string{
			strconv.Itoa(i + 1),
			r.VehicleNumber,
			domain.DateString(r.EarliestPaymentDate),
			r.EarliestPaymentRef,
			domain.DateString(r.TaxArrearFrom),
			domain.FormatMoneyCents(r.ArrearCents),
			domain.FormatMoneyCents(r.PaidCents),
			domain.FormatMoneyCents(r.BalanceCents),
			r.Status,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
