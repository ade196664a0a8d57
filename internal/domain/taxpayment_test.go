package domain

import (
	"testing"
	"time"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestPaymentFingerprint_Stable(t *testing.T) {
	d := datePtr(2024, time.January, 5)
	a := PaymentFingerprint("UK07TA1234", d, 30000, "R2")
	b := PaymentFingerprint("UK07TA1234", d, 30000, "R2")
	if a != b {
		t.Fatalf("fingerprint not deterministic: %s vs %s", a, b)
	}
}

func TestPaymentFingerprint_RefInsensitive(t *testing.T) {
	d := datePtr(2024, time.January, 5)
	a := PaymentFingerprint("UK07TA1234", d, 30000, "r2")
	b := PaymentFingerprint("UK07TA1234", d, 30000, "  R2  ")
	if a != b {
		t.Fatal("fingerprint should be case and whitespace insensitive on the ref")
	}
}

func TestPaymentFingerprint_Distinguishes(t *testing.T) {
	d := datePtr(2024, time.January, 5)
	base := PaymentFingerprint("UK07TA1234", d, 30000, "R2")

	if got := PaymentFingerprint("UK07TA9999", d, 30000, "R2"); got == base {
		t.Fatal("different vehicle must change the fingerprint")
	}
	if got := PaymentFingerprint("UK07TA1234", datePtr(2024, time.January, 6), 30000, "R2"); got == base {
		t.Fatal("different date must change the fingerprint")
	}
	if got := PaymentFingerprint("UK07TA1234", d, 30001, "R2"); got == base {
		t.Fatal("different amount must change the fingerprint")
	}
	if got := PaymentFingerprint("UK07TA1234", nil, 30000, "R2"); got == base {
		t.Fatal("absent date must change the fingerprint")
	}
}

func TestChooseEarliest(t *testing.T) {
	payments := []TaxPayment{
		{ID: 1, NormalizedVehicleNumber: "UK07TA1234", PaymentDate: datePtr(2024, time.January, 10), AmountCents: 20000, PaymentRef: "R1"},
		{ID: 2, NormalizedVehicleNumber: "UK07TA1234", PaymentDate: datePtr(2024, time.January, 5), AmountCents: 30000, PaymentRef: "R2"},
		{ID: 3, NormalizedVehicleNumber: "UK05XX0001", PaymentDate: nil, AmountCents: 100},
		{ID: 4, NormalizedVehicleNumber: "UK05XX0001", PaymentDate: datePtr(2024, time.June, 1), AmountCents: 200},
		{ID: 5, NormalizedVehicleNumber: ""},
	}

	chosen := ChooseEarliest(payments)
	if len(chosen) != 2 {
		t.Fatalf("expected 2 vehicles chosen, got %d", len(chosen))
	}
	if p := chosen["UK07TA1234"]; p.ID != 2 {
		t.Fatalf("expected earliest-dated payment (id=2) for UK07TA1234, got id=%d", p.ID)
	}
	if p := chosen["UK05XX0001"]; p.ID != 4 {
		t.Fatalf("dated payment must beat a dateless one, got id=%d", p.ID)
	}
}

func TestChooseEarliest_TieBreaks(t *testing.T) {
	d := datePtr(2024, time.February, 1)
	sameDate := []TaxPayment{
		{ID: 9, NormalizedVehicleNumber: "V1", PaymentDate: d},
		{ID: 3, NormalizedVehicleNumber: "V1", PaymentDate: d},
	}
	if p := ChooseEarliest(sameDate)["V1"]; p.ID != 3 {
		t.Fatalf("equal dates should break on lowest id, got %d", p.ID)
	}

	allNil := []TaxPayment{
		{ID: 7, NormalizedVehicleNumber: "V2"},
		{ID: 4, NormalizedVehicleNumber: "V2"},
	}
	if p := ChooseEarliest(allNil)["V2"]; p.ID != 4 {
		t.Fatalf("all-nil dates should break on lowest id, got %d", p.ID)
	}
}
