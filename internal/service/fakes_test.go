package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
	"github.com/nikhilit2011/arto-arrears/internal/repository"
)

// fakePaymentStore is an in-memory stand-in for the tax payment repository,
// deduplicating on fingerprint the way the real bulk upsert does.
type fakePaymentStore struct {
	payments []domain.TaxPayment
	nextID   int64

	createErrOn string // fingerprint that Create should reject
}

func (f *fakePaymentStore) BulkUpsert(_ context.Context, rows []domain.TaxPayment) (int64, error) {
	var inserted int64
	for _, p := range rows {
		if f.hasFingerprint(p.Fingerprint) {
			continue
		}
		f.nextID++
		p.ID = f.nextID
		f.payments = append(f.payments, p)
		inserted++
	}
	return inserted, nil
}

func (f *fakePaymentStore) Create(_ context.Context, p *domain.TaxPayment) error {
	if f.hasFingerprint(p.Fingerprint) || p.Fingerprint == f.createErrOn {
		return fmt.Errorf("duplicate fingerprint %s", p.Fingerprint)
	}
	f.nextID++
	p.ID = f.nextID
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakePaymentStore) hasFingerprint(fp string) bool {
	for _, p := range f.payments {
		if p.Fingerprint == fp {
			return true
		}
	}
	return false
}

func (f *fakePaymentStore) DistinctKeys(_ context.Context, keys []string) ([]string, error) {
	want := map[string]bool{}
	for _, k := range keys {
		want[k] = true
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range f.payments {
		if p.NormalizedVehicleNumber == "" || seen[p.NormalizedVehicleNumber] {
			continue
		}
		if len(want) > 0 && !want[p.NormalizedVehicleNumber] {
			continue
		}
		seen[p.NormalizedVehicleNumber] = true
		out = append(out, p.NormalizedVehicleNumber)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakePaymentStore) ListByKeys(_ context.Context, keys []string) ([]domain.TaxPayment, error) {
	want := map[string]bool{}
	for _, k := range keys {
		want[k] = true
	}
	var out []domain.TaxPayment
	for _, p := range f.payments {
		if p.NormalizedVehicleNumber == "" {
			continue
		}
		if len(want) > 0 && !want[p.NormalizedVehicleNumber] {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePaymentStore) SetMatchedByKeys(_ context.Context, keys []string, matched bool) error {
	want := map[string]bool{}
	for _, k := range keys {
		want[k] = true
	}
	for i := range f.payments {
		if want[f.payments[i].NormalizedVehicleNumber] {
			f.payments[i].Matched = matched
		}
	}
	return nil
}

func (f *fakePaymentStore) SetMatchedByIDs(_ context.Context, ids []int64, matched bool) error {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	for i := range f.payments {
		if want[f.payments[i].ID] {
			f.payments[i].Matched = matched
		}
	}
	return nil
}

func (f *fakePaymentStore) SumByVehicle(_ context.Context, keys []string, from, to *time.Time) (map[string]int64, error) {
	want := map[string]bool{}
	for _, k := range keys {
		want[k] = true
	}
	sums := map[string]int64{}
	for _, p := range f.payments {
		if p.NormalizedVehicleNumber == "" {
			continue
		}
		if len(want) > 0 && !want[p.NormalizedVehicleNumber] {
			continue
		}
		if (from != nil || to != nil) && p.PaymentDate == nil {
			continue
		}
		if from != nil && p.PaymentDate.Before(*from) {
			continue
		}
		if to != nil && p.PaymentDate.After(*to) {
			continue
		}
		sums[p.NormalizedVehicleNumber] += p.AmountCents
	}
	return sums, nil
}

func (f *fakePaymentStore) matchedIDs() []int64 {
	var out []int64
	for _, p := range f.payments {
		if p.Matched {
			out = append(out, p.ID)
		}
	}
	return out
}

// fakeCaseStore is an in-memory arrear case register keyed by normalized
// vehicle number.
type fakeCaseStore struct {
	cases  map[string]*domain.ArrearCase
	nextID int64
}

func newFakeCaseStore() *fakeCaseStore {
	return &fakeCaseStore{cases: map[string]*domain.ArrearCase{}}
}

func (f *fakeCaseStore) UpsertByKey(_ context.Context, key string, u repository.ArrearCaseUpdate) (bool, error) {
	c, ok := f.cases[key]
	if !ok {
		f.nextID++
		c = &domain.ArrearCase{ID: f.nextID, NormalizedVehicleNumber: key}
		f.cases[key] = c
	}
	if u.VehicleNumber != nil {
		c.VehicleNumber = *u.VehicleNumber
	}
	if u.VehicleType != nil {
		c.VehicleType = u.VehicleType
	}
	if u.TaxArrearFrom != nil {
		c.TaxArrearFrom = u.TaxArrearFrom
	}
	if u.FirstNoticeDate != nil {
		c.FirstNoticeDate = u.FirstNoticeDate
	}
	if u.FirstNoticeTaxCents != nil {
		c.FirstNoticeTaxCents = u.FirstNoticeTaxCents
	}
	if u.FirstNoticePenaltyCents != nil {
		c.FirstNoticePenaltyCents = u.FirstNoticePenaltyCents
	}
	if u.FirstNoticeTotalCents != nil {
		c.FirstNoticeTotalCents = u.FirstNoticeTotalCents
	}
	if u.SecondNoticeDate != nil {
		c.SecondNoticeDate = u.SecondNoticeDate
	}
	if u.SecondNoticeTaxCents != nil {
		c.SecondNoticeTaxCents = u.SecondNoticeTaxCents
	}
	if u.SecondNoticePenaltyCents != nil {
		c.SecondNoticePenaltyCents = u.SecondNoticePenaltyCents
	}
	if u.SecondNoticeTotalCents != nil {
		c.SecondNoticeTotalCents = u.SecondNoticeTotalCents
	}
	if u.RecoveryChallanDate != nil {
		c.RecoveryChallanDate = u.RecoveryChallanDate
	}
	if u.RecoveryChallanTaxCents != nil {
		c.RecoveryChallanTaxCents = u.RecoveryChallanTaxCents
	}
	if u.RecoveryChallanPenaltyCents != nil {
		c.RecoveryChallanPenaltyCents = u.RecoveryChallanPenaltyCents
	}
	if u.Remarks != nil {
		c.Remarks = u.Remarks
	}
	return !ok, nil
}

func (f *fakeCaseStore) SetPaid(_ context.Context, key string, paidDate *time.Time, amountCents int64) (bool, error) {
	c, ok := f.cases[key]
	if !ok {
		return false, nil
	}
	c.TaxPaidStatus = true
	c.TaxPaidDate = paidDate
	c.TaxPaidAmountCents = &amountCents
	return true, nil
}

func (f *fakeCaseStore) List(_ context.Context, _ repository.ArrearCasesFilter) ([]domain.ArrearCase, error) {
	keys := make([]string, 0, len(f.cases))
	for k := range f.cases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.ArrearCase, 0, len(keys))
	for _, k := range keys {
		out = append(out, *f.cases[k])
	}
	return out, nil
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func i64(v int64) *int64 { return &v }

func caseUpdateWithVehicle(raw string) repository.ArrearCaseUpdate {
	return repository.ArrearCaseUpdate{VehicleNumber: &raw}
}
