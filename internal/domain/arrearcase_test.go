package domain

import "testing"

func centsPtr(v int64) *int64 { return &v }

func TestEffectiveArrearCents_Precedence(t *testing.T) {
	c := ArrearCase{
		FirstNoticeTotalCents:       centsPtr(10000),
		SecondNoticeTotalCents:      centsPtr(12000),
		RecoveryChallanTaxCents:     centsPtr(9000),
		RecoveryChallanPenaltyCents: centsPtr(6000),
	}
	if got := c.EffectiveArrearCents(); got != 15000 {
		t.Fatalf("recovery challan should win: got %d, want 15000", got)
	}

	c.RecoveryChallanTaxCents = nil
	c.RecoveryChallanPenaltyCents = nil
	if got := c.EffectiveArrearCents(); got != 12000 {
		t.Fatalf("second notice should win without a challan: got %d, want 12000", got)
	}

	c.SecondNoticeTotalCents = centsPtr(0)
	if got := c.EffectiveArrearCents(); got != 10000 {
		t.Fatalf("zero second total falls through to first notice: got %d, want 10000", got)
	}
}

func TestEffectiveArrearCents_AllAbsent(t *testing.T) {
	var c ArrearCase
	if got := c.EffectiveArrearCents(); got != 0 {
		t.Fatalf("expected 0 with no notice amounts, got %d", got)
	}
}
