package service

import (
	"context"
	"testing"

	"github.com/nikhilit2011/arto-arrears/internal/spreadsheet"
)

func paymentDoc() *spreadsheet.Document {
	return spreadsheet.FromRows([][]string{
		{"S.No", "Regn. Number", "Receipt Date", "Receipt No.", "Total in (Rs.)"},
		{"1", "UK07-TA 1234", "10/01/2024", "R1", "200"},
		{"2", "UK07TA1234", "05/01/2024", "R2", "300"},
		{"3", "UK05XX0001", "", "R3", "150"},
		{"4", "", "", "", "100"},
	})
}

func TestPaymentImport_Bulk(t *testing.T) {
	payments := &fakePaymentStore{}
	svc := NewPaymentImportService(payments, newFakeCaseStore())

	res, err := svc.Import(context.Background(), paymentDoc(), "receipts.xlsx", ModeBulk)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Inserted != 3 || res.Skipped != 1 {
		t.Fatalf("result = %+v; want inserted=3 skipped=1", res)
	}
	if res.Matched != 0 {
		t.Fatalf("bulk mode must not mark anything matched, got %d", res.Matched)
	}
	for _, p := range payments.payments {
		if p.Matched {
			t.Fatalf("bulk mode stored a matched payment: %+v", p)
		}
		if p.SourceFile != "receipts.xlsx" {
			t.Fatalf("source file not recorded: %+v", p)
		}
	}
}

func TestPaymentImport_BulkIdempotent(t *testing.T) {
	payments := &fakePaymentStore{}
	svc := NewPaymentImportService(payments, newFakeCaseStore())

	if _, err := svc.Import(context.Background(), paymentDoc(), "receipts.xlsx", ModeBulk); err != nil {
		t.Fatalf("first import: %v", err)
	}

	// same rows from a differently named file: fingerprints collapse them
	res, err := svc.Import(context.Background(), paymentDoc(), "receipts_copy.xlsx", ModeBulk)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if res.Inserted != 0 {
		t.Fatalf("re-import inserted %d rows; want 0", res.Inserted)
	}
	if len(payments.payments) != 3 {
		t.Fatalf("store holds %d payments; want 3", len(payments.payments))
	}
}

func TestPaymentImport_AmountFallback(t *testing.T) {
	payments := &fakePaymentStore{}
	svc := NewPaymentImportService(payments, newFakeCaseStore())

	doc := spreadsheet.FromRows([][]string{
		{"Regn. Number", "Tax in (Rs.)", "Penalty", "Rebate", "Total in (Rs.)"},
		{"UK07TA1234", "100", "50", "25", ""},     // no total: 100+50-25
		{"UK05XX0001", "100", "", "", "0"},        // zero total falls back
		{"UK01AB0001", "999", "", "", "300"},      // explicit total wins
	})
	if _, err := svc.Import(context.Background(), doc, "f.csv", ModeBulk); err != nil {
		t.Fatalf("import: %v", err)
	}

	want := map[string]int64{
		"UK07TA1234": 12500,
		"UK05XX0001": 10000,
		"UK01AB0001": 30000,
	}
	for _, p := range payments.payments {
		if p.AmountCents != want[p.NormalizedVehicleNumber] {
			t.Fatalf("%s amount = %d; want %d", p.NormalizedVehicleNumber, p.AmountCents, want[p.NormalizedVehicleNumber])
		}
	}
}

func TestPaymentImport_Immediate(t *testing.T) {
	payments := &fakePaymentStore{}
	cases := newFakeCaseStore()
	_, _ = cases.UpsertByKey(context.Background(), "UK07TA1234", caseUpdateWithVehicle("UK07TA1234"))

	svc := NewPaymentImportService(payments, cases)

	doc := spreadsheet.FromRows([][]string{
		{"Regn. Number", "Receipt Date", "Receipt No.", "Total in (Rs.)"},
		{"UK07TA1234", "05/01/2024", "R2", "300"},
		{"UK05XX0001", "06/01/2024", "R3", "150"}, // no arrear case
	})

	res, err := svc.Import(context.Background(), doc, "f.csv", ModeImmediate)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Inserted != 2 || res.Matched != 1 {
		t.Fatalf("result = %+v; want inserted=2 matched=1", res)
	}

	for _, p := range payments.payments {
		if !p.Matched {
			t.Fatalf("immediate mode must store matched rows: %+v", p)
		}
	}

	c := cases.cases["UK07TA1234"]
	if !c.TaxPaidStatus || c.TaxPaidAmountCents == nil || *c.TaxPaidAmountCents != 30000 {
		t.Fatalf("arrear case not updated inline: %+v", c)
	}
}

func TestPaymentImport_ImmediateDuplicateIsRowSkip(t *testing.T) {
	payments := &fakePaymentStore{}
	svc := NewPaymentImportService(payments, newFakeCaseStore())

	doc := spreadsheet.FromRows([][]string{
		{"Regn. Number", "Receipt Date", "Receipt No.", "Total in (Rs.)"},
		{"UK07TA1234", "05/01/2024", "R2", "300"},
	})
	if _, err := svc.Import(context.Background(), doc, "f.csv", ModeImmediate); err != nil {
		t.Fatalf("first import: %v", err)
	}

	res, err := svc.Import(context.Background(), doc, "f.csv", ModeImmediate)
	if err != nil {
		t.Fatalf("re-import should not abort: %v", err)
	}
	if res.Inserted != 0 || res.Skipped != 1 {
		t.Fatalf("result = %+v; want inserted=0 skipped=1", res)
	}
	if len(payments.payments) != 1 {
		t.Fatalf("store holds %d payments; want 1", len(payments.payments))
	}
}
