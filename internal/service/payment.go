package service

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
	"github.com/nikhilit2011/arto-arrears/internal/repository"
)

type PaymentQueryStore interface {
	List(ctx context.Context, f repository.TaxPaymentsFilter) ([]domain.TaxPayment, error)
}

// PaymentService is the listing/template glue around the payment store.
type PaymentService struct {
	payments PaymentQueryStore
}

func NewPaymentService(payments PaymentQueryStore) *PaymentService {
	return &PaymentService{payments: payments}
}

func (s *PaymentService) List(ctx context.Context, f repository.TaxPaymentsFilter) ([]domain.TaxPayment, error) {
	return s.payments.List(ctx, f)
}

var paymentTemplateHeader = []string{
	"Receipt Date", "Registration No.", "Receipt No.",
	"Tax in (Rs.)", "Exempted in (Rs.)", "Rebate in (Rs.)", "Interest in (Rs.)",
	"Tax1 in (Rs.)", "Tax2 in (Rs.)", "Tax Adjustment in (Rs.)",
	"Surcharge in (Rs.)", "Penalty in (Rs.)", "Total in (Rs.)",
}

// TemplateCSV writes the header-only upload template for payment imports.
func (s *PaymentService) TemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(paymentTemplateHeader); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
