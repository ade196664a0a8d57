package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
)

// ReconcilerPaymentStore is the slice of the payment repository the
// reconciler needs.
type ReconcilerPaymentStore interface {
	DistinctKeys(ctx context.Context, keys []string) ([]string, error)
	ListByKeys(ctx context.Context, keys []string) ([]domain.TaxPayment, error)
	SetMatchedByKeys(ctx context.Context, keys []string, matched bool) error
	SetMatchedByIDs(ctx context.Context, ids []int64, matched bool) error
}

type ReconcilerCaseStore interface {
	SetPaid(ctx context.Context, normalizedKey string, paidDate *time.Time, amountCents int64) (bool, error)
}

type ReconcileResult struct {
	Vehicles int `json:"vehicles"`
	Kept     int `json:"kept"`
}

// Reconciler enforces that each vehicle keeps exactly one canonical
// ("matched") payment: the earliest by payment date, absent dates last,
// lowest id on ties. All other payments for the vehicle are unmarked and
// the arrear case is updated from the chosen row.
type Reconciler struct {
	payments ReconcilerPaymentStore
	cases    ReconcilerCaseStore

	// Serializes the two-phase matched transition. Two overlapping runs
	// could otherwise interleave unmark/mark and leave zero or several
	// payments marked for a vehicle.
	mu sync.Mutex
}

func NewReconciler(payments ReconcilerPaymentStore, cases ReconcilerCaseStore) *Reconciler {
	return &Reconciler{payments: payments, cases: cases}
}

// EarliestOnly reconciles the given normalized keys, or every vehicle in
// the payment store when keys is empty. Idempotent: re-running yields the
// same matched assignments and the same arrear case paid fields.
func (r *Reconciler) EarliestOnly(ctx context.Context, keys []string) (ReconcileResult, error) {
	vehicles, err := r.payments.DistinctKeys(ctx, keys)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list vehicles: %w", err)
	}
	if len(vehicles) == 0 {
		return ReconcileResult{}, nil
	}

	payments, err := r.payments.ListByKeys(ctx, vehicles)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("load payments: %w", err)
	}

	chosen := domain.ChooseEarliest(payments)
	keepIDs := make([]int64, 0, len(chosen))
	for _, p := range chosen {
		keepIDs = append(keepIDs, p.ID)
	}

	// Phase 1 then phase 2: a crash in between leaves at most the full
	// duplicate set unmarked, and a retry converges to the same state.
	r.mu.Lock()
	err = r.payments.SetMatchedByKeys(ctx, vehicles, false)
	if err == nil {
		err = r.payments.SetMatchedByIDs(ctx, keepIDs, true)
	}
	r.mu.Unlock()
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("update matched flags: %w", err)
	}

	// Publish the chosen payment onto the arrear case. A vehicle with no
	// case is a no-op, not an error.
	for key, p := range chosen {
		if _, err := r.cases.SetPaid(ctx, key, p.PaymentDate, p.AmountCents); err != nil {
			return ReconcileResult{}, fmt.Errorf("update arrear case %s: %w", key, err)
		}
	}

	return ReconcileResult{Vehicles: len(vehicles), Kept: len(keepIDs)}, nil
}
