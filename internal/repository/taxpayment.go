package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nikhilit2011/arto-arrears/internal/domain"
)

const taxPaymentColumns = `id, vehicle_number, normalized_vehicle_number, payment_date, amount_cents,
	payment_ref, source_file, matched, fingerprint, created_at, updated_at`

// bulkInsertChunk bounds the number of rows per multi-row INSERT so the
// placeholder count stays well under the wire-protocol limit.
const bulkInsertChunk = 500

type TaxPaymentsFilter struct {
	NormalizedKey *string
	From          *time.Time
	To            *time.Time
	MatchedOnly   *bool
	Limit         int
	Offset        int
}

type TaxPaymentRepository struct {
	db *sql.DB
}

func NewTaxPaymentRepository(db *sql.DB) *TaxPaymentRepository {
	return &TaxPaymentRepository{db: db}
}

// BulkUpsert inserts rows whose fingerprint is new; rows whose fingerprint
// already exists are silently skipped (ON CONFLICT DO NOTHING), which makes
// re-importing the same file a no-op. Returns the number of rows actually
// inserted.
func (r *TaxPaymentRepository) BulkUpsert(ctx context.Context, payments []domain.TaxPayment) (int64, error) {
	var inserted int64
	for start := 0; start < len(payments); start += bulkInsertChunk {
		end := start + bulkInsertChunk
		if end > len(payments) {
			end = len(payments)
		}
		n, err := r.insertChunk(ctx, payments[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

func (r *TaxPaymentRepository) insertChunk(ctx context.Context, payments []domain.TaxPayment) (int64, error) {
	if len(payments) == 0 {
		return 0, nil
	}

	const perRow = 10
	values := make([]string, 0, len(payments))
	args := make([]any, 0, len(payments)*perRow)
	now := time.Now()

	for i, p := range payments {
		base := i * perRow
		ph := make([]string, perRow)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			p.VehicleNumber,
			p.NormalizedVehicleNumber,
			p.PaymentDate,
			p.AmountCents,
			p.PaymentRef,
			p.SourceFile,
			p.Matched,
			p.Fingerprint,
			now,
			now,
		)
	}

	query := `INSERT INTO tax_payments
		(vehicle_number, normalized_vehicle_number, payment_date, amount_cents,
		 payment_ref, source_file, matched, fingerprint, created_at, updated_at)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (fingerprint) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	// Postgres counts only the rows that survived the conflict policy.
	return res.RowsAffected()
}

// Create inserts a single payment, used by the immediate (non-idempotent)
// import mode. A fingerprint conflict is surfaced here, unlike BulkUpsert.
func (r *TaxPaymentRepository) Create(ctx context.Context, p *domain.TaxPayment) error {
	now := time.Now()
	return r.db.QueryRowContext(ctx,
		`INSERT INTO tax_payments
		 (vehicle_number, normalized_vehicle_number, payment_date, amount_cents,
		  payment_ref, source_file, matched, fingerprint, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		p.VehicleNumber, p.NormalizedVehicleNumber, p.PaymentDate, p.AmountCents,
		p.PaymentRef, p.SourceFile, p.Matched, p.Fingerprint, now, now,
	).Scan(&p.ID)
}

// ListByKeys returns every payment for the given normalized keys; an empty
// key set means all payments with a non-empty key.
func (r *TaxPaymentRepository) ListByKeys(ctx context.Context, keys []string) ([]domain.TaxPayment, error) {
	query := `SELECT ` + taxPaymentColumns + ` FROM tax_payments WHERE normalized_vehicle_number <> ''`
	args := []any{}
	if len(keys) > 0 {
		ph := make([]string, len(keys))
		for i, k := range keys {
			ph[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, k)
		}
		query += ` AND normalized_vehicle_number IN (` + strings.Join(ph, ", ") + `)`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTaxPayments(rows)
}

func (r *TaxPaymentRepository) List(ctx context.Context, f TaxPaymentsFilter) ([]domain.TaxPayment, error) {
	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.NormalizedKey != nil && *f.NormalizedKey != "" {
		where = append(where, fmt.Sprintf("normalized_vehicle_number = $%d", i))
		args = append(args, *f.NormalizedKey)
		i++
	}
	if f.From != nil {
		where = append(where, fmt.Sprintf("payment_date >= $%d", i))
		args = append(args, *f.From)
		i++
	}
	if f.To != nil {
		where = append(where, fmt.Sprintf("payment_date <= $%d", i))
		args = append(args, *f.To)
		i++
	}
	if f.MatchedOnly != nil && *f.MatchedOnly {
		where = append(where, "matched = true")
	}

	query := `SELECT ` + taxPaymentColumns + ` FROM tax_payments WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY payment_date DESC NULLS LAST, id DESC`
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
	return scanTaxPayments(rows)
}

// SumByVehicle aggregates paid cents per normalized key, optionally limited
// to an inclusive payment-date window.
func (r *TaxPaymentRepository) SumByVehicle(ctx context.Context, keys []string, from, to *time.Time) (map[string]int64, error) {
	where := []string{"normalized_vehicle_number <> ''"}
	args := []any{}
	i := 1

	if len(keys) > 0 {
		ph := make([]string, len(keys))
		for n, k := range keys {
			ph[n] = fmt.Sprintf("$%d", i)
			args = append(args, k)
			i++
		}
		where = append(where, "normalized_vehicle_number IN ("+strings.Join(ph, ", ")+")")
	}
	if from != nil {
		where = append(where, fmt.Sprintf("payment_date >= $%d", i))
		args = append(args, *from)
		i++
	}
	if to != nil {
		where = append(where, fmt.Sprintf("payment_date <= $%d", i))
		args = append(args, *to)
		i++
	}

	query := `SELECT normalized_vehicle_number, COALESCE(SUM(amount_cents), 0)
		FROM tax_payments WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY normalized_vehicle_number`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[string]int64)
	for rows.Next() {
		var key string
		var cents int64
		if err := rows.Scan(&key, &cents); err != nil {
			return nil, err
		}
		sums[key] = cents
	}
	return sums, rows.Err()
}

// SetMatchedByKeys is phase one of the reconciler's two-phase transition:
// clear (or set) the matched flag across whole vehicles.
func (r *TaxPaymentRepository) SetMatchedByKeys(ctx context.Context, keys []string, matched bool) error {
	if len(keys) == 0 {
		return nil
	}
	ph := make([]string, len(keys))
	args := []any{matched}
	for i, k := range keys {
		ph[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, k)
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE tax_payments SET matched = $1 WHERE normalized_vehicle_number IN (`+strings.Join(ph, ", ")+`)`,
		args...)
	return err
}

// SetMatchedByIDs is phase two: mark the chosen canonical payments.
func (r *TaxPaymentRepository) SetMatchedByIDs(ctx context.Context, ids []int64, matched bool) error {
	if len(ids) == 0 {
		return nil
	}
	ph := make([]string, len(ids))
	args := []any{matched}
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE tax_payments SET matched = $1 WHERE id IN (`+strings.Join(ph, ", ")+`)`,
		args...)
	return err
}

// DistinctKeys lists normalized vehicle numbers present in the payment
// store, optionally restricted to a candidate set.
func (r *TaxPaymentRepository) DistinctKeys(ctx context.Context, keys []string) ([]string, error) {
	query := `SELECT DISTINCT normalized_vehicle_number FROM tax_payments WHERE normalized_vehicle_number <> ''`
	args := []any{}
	if len(keys) > 0 {
		ph := make([]string, len(keys))
		for i, k := range keys {
			ph[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, k)
		}
		query += ` AND normalized_vehicle_number IN (` + strings.Join(ph, ", ") + `)`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func scanTaxPayments(rows *sql.Rows) ([]domain.TaxPayment, error) {
	var out []domain.TaxPayment
	for rows.Next() {
		var p domain.TaxPayment
		var matched sql.NullBool
		if err := rows.Scan(
			&p.ID,
			&p.VehicleNumber,
			&p.NormalizedVehicleNumber,
			&p.PaymentDate,
			&p.AmountCents,
			&p.PaymentRef,
			&p.SourceFile,
			&matched,
			&p.Fingerprint,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		p.Matched = matched.Valid && matched.Bool
		out = append(out, p)
	}
	return out, rows.Err()
}
