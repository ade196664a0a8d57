package service

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
	"github.com/nikhilit2011/arto-arrears/internal/repository"
)

// ArrearCaseStore is the full repository surface the notice admin endpoints
// use.
type ArrearCaseStore interface {
	List(ctx context.Context, f repository.ArrearCasesFilter) ([]domain.ArrearCase, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// NoticeService is the CRUD/export glue around the arrear case store.
type NoticeService struct {
	cases ArrearCaseStore
}

func NewNoticeService(cases ArrearCaseStore) *NoticeService {
	return &NoticeService{cases: cases}
}

func (s *NoticeService) List(ctx context.Context, f repository.ArrearCasesFilter) ([]domain.ArrearCase, error) {
	return s.cases.List(ctx, f)
}

// DeleteAll wipes every notice record. Bulk path: no per-record hooks fire.
func (s *NoticeService) DeleteAll(ctx context.Context) (int64, error) {
	return s.cases.DeleteAll(ctx)
}

func (s *NoticeService) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	return s.cases.DeleteByIDs(ctx, ids)
}

var noticeExportHeader = []string{
	"Vehicle No", "Vehicle Type", "Tax Arrear From",
	"First Notice Date", "First Notice Tax", "First Notice Penalty", "First Notice Total",
	"Second Notice Date", "Second Notice Tax", "Second Notice Penalty", "Second Notice Total",
	"Recovery Challan Date", "Recovery Challan Tax", "Recovery Challan Penalty",
	"Tax Paid Status", "Tax Paid Date", "Tax Paid Amount", "Remarks",
}

// ExportCSV writes the full arrear case snapshot, amounts in rupees.
func (s *NoticeService) ExportCSV(ctx context.Context, w io.Writer) error {
	cases, err := s.cases.List(ctx, repository.ArrearCasesFilter{})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(noticeExportHeader); err != nil {
		return err
	}
	for _, c := range cases {
		paid := "No"
		if c.TaxPaidStatus {
			paid = "Yes"
		}
		rec := []string{
			c.VehicleNumber,
			strVal(c.VehicleType),
			domain.DateString(c.TaxArrearFrom),
			domain.DateString(c.FirstNoticeDate),
			centsVal(c.FirstNoticeTaxCents),
			centsVal(c.FirstNoticePenaltyCents),
			centsVal(c.FirstNoticeTotalCents),
			domain.DateString(c.SecondNoticeDate),
			centsVal(c.SecondNoticeTaxCents),
			centsVal(c.SecondNoticePenaltyCents),
			centsVal(c.SecondNoticeTotalCents),
			domain.DateString(c.RecoveryChallanDate),
			centsVal(c.RecoveryChallanTaxCents),
			centsVal(c.RecoveryChallanPenaltyCents),
			paid,
			domain.DateString(c.TaxPaidDate),
			centsVal(c.TaxPaidAmountCents),
			strVal(c.Remarks),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var noticeTemplateHeader = []string{
	"Vehicle No", "Vehicle Type", "Tax Arrear From",
	"First Notice Date", "First Notice Tax", "First Notice Penalty", "First Notice Total",
	"Second Notice Date", "Second Notice Tax", "Second Notice Penalty", "Second Notice Total",
	"Recovery Challan Date", "Recovery Challan Tax", "Recovery Challan Penalty",
	"Remarks",
}

// TemplateCSV writes the header-only upload template for notice imports.
func (s *NoticeService) TemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(noticeTemplateHeader); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func centsVal(p *int64) string {
	if p == nil {
		return ""
	}
	return domain.FormatMoneyCents(*p)
}
