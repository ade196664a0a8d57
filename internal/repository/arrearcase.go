package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
)

const arrearCaseColumns = `id, vehicle_number, normalized_vehicle_number, vehicle_type, tax_arrear_from,
	first_notice_date, first_notice_tax_cents, first_notice_penalty_cents, first_notice_total_cents,
	second_notice_date, second_notice_tax_cents, second_notice_penalty_cents, second_notice_total_cents,
	recovery_challan_date, recovery_challan_tax_cents, recovery_challan_penalty_cents,
	tax_paid_status, tax_paid_date, tax_paid_amount_cents, remarks, created_at, updated_at`

// ArrearCaseUpdate carries the fields an import row supplies. Nil means the
// field was absent in the upload and the stored value must be left alone.
type ArrearCaseUpdate struct {
	VehicleNumber *string
	VehicleType   *string
	TaxArrearFrom *time.Time

	FirstNoticeDate         *time.Time
	FirstNoticeTaxCents     *int64
	FirstNoticePenaltyCents *int64
	FirstNoticeTotalCents   *int64

	SecondNoticeDate         *time.Time
	SecondNoticeTaxCents     *int64
	SecondNoticePenaltyCents *int64
	SecondNoticeTotalCents   *int64

	RecoveryChallanDate         *time.Time
	RecoveryChallanTaxCents     *int64
	RecoveryChallanPenaltyCents *int64

	Remarks *string
}

type ArrearCasesFilter struct {
	NormalizedKey *string
	PaidOnly      *bool
	Limit         int
	Offset        int
}

type ArrearCaseRepository struct {
	db *sql.DB
}

func NewArrearCaseRepository(db *sql.DB) *ArrearCaseRepository {
	return &ArrearCaseRepository{db: db}
}

// UpsertByKey finds the case for a normalized key and merges the supplied
// fields; absent (nil) fields never overwrite stored values. Returns true
// when a new record was created.
func (r *ArrearCaseRepository) UpsertByKey(ctx context.Context, normalizedKey string, u ArrearCaseUpdate) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM arrear_cases WHERE normalized_vehicle_number = $1`, normalizedKey).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		return true, r.insert(ctx, normalizedKey, u)
	case err != nil:
		return false, err
	}
	return false, r.update(ctx, id, u)
}

func (r *ArrearCaseRepository) insert(ctx context.Context, normalizedKey string, u ArrearCaseUpdate) error {
	cols := []string{"normalized_vehicle_number", "created_at", "updated_at"}
	args := []any{normalizedKey, time.Now(), time.Now()}

	setCols, setVals := u.setPairs()
	cols = append(cols, setCols...)
	args = append(args, setVals...)

	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO arrear_cases (%s) VALUES (%s)`,
		strings.Join(cols, ", "), strings.Join(ph, ", "))
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *ArrearCaseRepository) update(ctx context.Context, id int64, u ArrearCaseUpdate) error {
	set := []string{}
	args := []any{}
	i := 1

	setCols, setVals := u.setPairs()
	for n, col := range setCols {
		set = append(set, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, setVals[n])
		i++
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, time.Now())
	i++

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE arrear_cases SET %s WHERE id = $%d`, strings.Join(set, ", "), i)
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// setPairs lists only the supplied columns, in a fixed order so generated
// SQL is deterministic.
func (u ArrearCaseUpdate) setPairs() ([]string, []any) {
	var cols []string
	var vals []any
	put := func(col string, present bool, val any) {
		if present {
			cols = append(cols, col)
			vals = append(vals, val)
		}
	}
	put("vehicle_number", u.VehicleNumber != nil, deref(u.VehicleNumber))
	put("vehicle_type", u.VehicleType != nil, deref(u.VehicleType))
	put("tax_arrear_from", u.TaxArrearFrom != nil, u.TaxArrearFrom)
	put("first_notice_date", u.FirstNoticeDate != nil, u.FirstNoticeDate)
	put("first_notice_tax_cents", u.FirstNoticeTaxCents != nil, u.FirstNoticeTaxCents)
	put("first_notice_penalty_cents", u.FirstNoticePenaltyCents != nil, u.FirstNoticePenaltyCents)
	put("first_notice_total_cents", u.FirstNoticeTotalCents != nil, u.FirstNoticeTotalCents)
	put("second_notice_date", u.SecondNoticeDate != nil, u.SecondNoticeDate)
	put("second_notice_tax_cents", u.SecondNoticeTaxCents != nil, u.SecondNoticeTaxCents)
	put("second_notice_penalty_cents", u.SecondNoticePenaltyCents != nil, u.SecondNoticePenaltyCents)
	put("second_notice_total_cents", u.SecondNoticeTotalCents != nil, u.SecondNoticeTotalCents)
	put("recovery_challan_date", u.RecoveryChallanDate != nil, u.RecoveryChallanDate)
	put("recovery_challan_tax_cents", u.RecoveryChallanTaxCents != nil, u.RecoveryChallanTaxCents)
	put("recovery_challan_penalty_cents", u.RecoveryChallanPenaltyCents != nil, u.RecoveryChallanPenaltyCents)
	put("remarks", u.Remarks != nil, deref(u.Remarks))
	return cols, vals
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func (r *ArrearCaseRepository) FindByKey(ctx context.Context, normalizedKey string) (*domain.ArrearCase, error) {
	query := `SELECT ` + arrearCaseColumns + ` FROM arrear_cases WHERE normalized_vehicle_number = $1`
	row := r.db.QueryRowContext(ctx, query, normalizedKey)
	c, err := scanArrearCase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ArrearCaseRepository) List(ctx context.Context, f ArrearCasesFilter) ([]domain.ArrearCase, error) {
	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.NormalizedKey != nil && *f.NormalizedKey != "" {
		where = append(where, fmt.Sprintf("normalized_vehicle_number = $%d", i))
		args = append(args, *f.NormalizedKey)
		i++
	}
	if f.PaidOnly != nil {
		where = append(where, fmt.Sprintf("COALESCE(tax_paid_status, false) = $%d", i))
		args = append(args, *f.PaidOnly)
		i++
	}

	query := `SELECT ` + arrearCaseColumns + ` FROM arrear_cases WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", i)
		args = append(args, f.Limit)
		i++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", i)
		args = append(args, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ArrearCase
	for rows.Next() {
		c, err := scanArrearCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DistinctKeys returns every normalized vehicle number with an arrear case.
// This set defines which vehicles are in scope for the reconciliation view.
func (r *ArrearCaseRepository) DistinctKeys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT normalized_vehicle_number FROM arrear_cases
		 WHERE normalized_vehicle_number IS NOT NULL AND normalized_vehicle_number <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SetPaid publishes the reconciler-selected payment onto the case. Returns
// false without error when no case exists for the key.
func (r *ArrearCaseRepository) SetPaid(ctx context.Context, normalizedKey string, paidDate *time.Time, amountCents int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE arrear_cases
		 SET tax_paid_status = true, tax_paid_date = $1, tax_paid_amount_cents = $2, updated_at = $3
		 WHERE normalized_vehicle_number = $4`,
		paidDate, amountCents, time.Now(), normalizedKey)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAll is the admin wipe. Plain DELETE, no per-record hooks fire.
func (r *ArrearCaseRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM arrear_cases`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ArrearCaseRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM arrear_cases WHERE id IN (%s)`, strings.Join(ph, ", ")), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArrearCase(row rowScanner) (*domain.ArrearCase, error) {
	var c domain.ArrearCase
	var paid sql.NullBool
	if err := row.Scan(
		&c.ID,
		&c.VehicleNumber,
		&c.NormalizedVehicleNumber,
		&c.VehicleType,
		&c.TaxArrearFrom,
		&c.FirstNoticeDate,
		&c.FirstNoticeTaxCents,
		&c.FirstNoticePenaltyCents,
		&c.FirstNoticeTotalCents,
		&c.SecondNoticeDate,
		&c.SecondNoticeTaxCents,
		&c.SecondNoticePenaltyCents,
		&c.SecondNoticeTotalCents,
		&c.RecoveryChallanDate,
		&c.RecoveryChallanTaxCents,
		&c.RecoveryChallanPenaltyCents,
		&paid,
		&c.TaxPaidDate,
		&c.TaxPaidAmountCents,
		&c.Remarks,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.TaxPaidStatus = paid.Valid && paid.Bool
	return &c, nil
}
