package service

import (
	"context"
	"time"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
	"github.com/nikhilit2011/arto-arrears/internal/repository"
	"github.com/nikhilit2011/arto-arrears/internal/spreadsheet"
)

// Canonical fields of a notice upload. Only the vehicle column is required;
// everything else degrades to absent.
const (
	fieldVehicle         spreadsheet.Field = "vehicle"
	fieldVehicleType     spreadsheet.Field = "type"
	fieldArrearFrom      spreadsheet.Field = "arrear_from"
	fieldFirstDate       spreadsheet.Field = "first_date"
	fieldFirstTax        spreadsheet.Field = "first_tax"
	fieldFirstPenalty    spreadsheet.Field = "first_penalty"
	fieldFirstTotal      spreadsheet.Field = "first_total"
	fieldSecondDate      spreadsheet.Field = "second_date"
	fieldSecondTax       spreadsheet.Field = "second_tax"
	fieldSecondPenalty   spreadsheet.Field = "second_penalty"
	fieldSecondTotal     spreadsheet.Field = "second_total"
	fieldRecoveryDate    spreadsheet.Field = "recovery_date"
	fieldRecoveryTax     spreadsheet.Field = "recovery_tax"
	fieldRecoveryPenalty spreadsheet.Field = "recovery_penalty"
	fieldRemarks         spreadsheet.Field = "remarks"
)

var noticeHeaderRules = []spreadsheet.Rule{
	spreadsheet.MustRule(fieldVehicle, true, "vehicle", "regn", "registration"),
	spreadsheet.MustRule(fieldVehicleType, false, "type"),
	spreadsheet.MustRule(fieldArrearFrom, false, "arrear"),
	spreadsheet.MustRule(fieldFirstDate, false, "first.*date"),
	spreadsheet.MustRule(fieldFirstTax, false, "first.*tax"),
	spreadsheet.MustRule(fieldFirstPenalty, false, "first.*penalty"),
	spreadsheet.MustRule(fieldFirstTotal, false, "first.*total"),
	spreadsheet.MustRule(fieldSecondDate, false, "second.*date"),
	spreadsheet.MustRule(fieldSecondTax, false, "second.*tax"),
	spreadsheet.MustRule(fieldSecondPenalty, false, "second.*penalty"),
	spreadsheet.MustRule(fieldSecondTotal, false, "second.*total"),
	spreadsheet.MustRule(fieldRecoveryDate, false, "recovery.*date"),
	spreadsheet.MustRule(fieldRecoveryTax, false, "recovery.*tax"),
	spreadsheet.MustRule(fieldRecoveryPenalty, false, "recovery.*penalty"),
	spreadsheet.MustRule(fieldRemarks, false, "remarks?"),
}

// NoticeCaseStore is the slice of the arrear case repository the notice
// import needs.
type NoticeCaseStore interface {
	UpsertByKey(ctx context.Context, normalizedKey string, u repository.ArrearCaseUpdate) (bool, error)
}

type NoticeImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type NoticeImportService struct {
	cases NoticeCaseStore
}

func NewNoticeImportService(cases NoticeCaseStore) *NoticeImportService {
	return &NoticeImportService{cases: cases}
}

// Import streams notice rows into the arrear case store, one upsert per
// distinct normalized vehicle number. A missing vehicle column aborts before
// any write; a bad cell in a data row only makes that field absent.
func (s *NoticeImportService) Import(ctx context.Context, doc *spreadsheet.Document) (NoticeImportResult, error) {
	var res NoticeImportResult

	idx, err := spreadsheet.MapHeader(doc.Header(), noticeHeaderRules)
	if err != nil {
		return res, err
	}

	for _, row := range doc.DataRows() {
		rawVehicle, _ := idx.Cell(row, fieldVehicle)
		if rawVehicle == "" {
			res.Skipped++
			continue
		}
		norm := domain.NormalizeVehicle(rawVehicle)
		if norm == "" {
			res.Skipped++
			continue
		}

		u := repository.ArrearCaseUpdate{
			VehicleNumber:               strPtr(rawVehicle),
			VehicleType:                 optionalString(idx, row, fieldVehicleType),
			TaxArrearFrom:               optionalDate(idx, row, fieldArrearFrom),
			FirstNoticeDate:             optionalDate(idx, row, fieldFirstDate),
			FirstNoticeTaxCents:         optionalMoney(idx, row, fieldFirstTax),
			FirstNoticePenaltyCents:     optionalMoney(idx, row, fieldFirstPenalty),
			FirstNoticeTotalCents:       optionalMoney(idx, row, fieldFirstTotal),
			SecondNoticeDate:            optionalDate(idx, row, fieldSecondDate),
			SecondNoticeTaxCents:        optionalMoney(idx, row, fieldSecondTax),
			SecondNoticePenaltyCents:    optionalMoney(idx, row, fieldSecondPenalty),
			SecondNoticeTotalCents:      optionalMoney(idx, row, fieldSecondTotal),
			RecoveryChallanDate:         optionalDate(idx, row, fieldRecoveryDate),
			RecoveryChallanTaxCents:     optionalMoney(idx, row, fieldRecoveryTax),
			RecoveryChallanPenaltyCents: optionalMoney(idx, row, fieldRecoveryPenalty),
			Remarks:                     optionalString(idx, row, fieldRemarks),
		}

		created, err := s.cases.UpsertByKey(ctx, norm, u)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	return res, nil
}

func strPtr(s string) *string { return &s }

func optionalString(idx spreadsheet.ColumnIndex, row []string, f spreadsheet.Field) *string {
	cell, ok := idx.Cell(row, f)
	if !ok || cell == "" {
		return nil
	}
	return &cell
}

func optionalDate(idx spreadsheet.ColumnIndex, row []string, f spreadsheet.Field) *time.Time {
	cell, ok := idx.Cell(row, f)
	if !ok {
		return nil
	}
	return domain.ParseDateCell(cell)
}

func optionalMoney(idx spreadsheet.ColumnIndex, row []string, f spreadsheet.Field) *int64 {
	cell, ok := idx.Cell(row, f)
	if !ok {
		return nil
	}
	cents, ok := domain.ParseMoneyCents(cell)
	if !ok {
		return nil
	}
	return &cents
}
