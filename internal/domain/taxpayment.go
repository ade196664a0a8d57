package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// TaxPayment is one payment event. Rows are immutable after insert except
// for the Matched flag, which only the reconciler touches.
type TaxPayment struct {
	ID                      int64
	VehicleNumber           string
	NormalizedVehicleNumber string
	PaymentDate             *time.Time
	AmountCents             int64
	PaymentRef              string
	SourceFile              string
	Matched                 bool
	Fingerprint             string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentFingerprint is the stable, file-agnostic idempotency key for a
// payment: md5 of "nvn|date|cents|REF" with the date in canonical form (or
// empty) and the ref trimmed and uppercased. The same logical payment
// re-uploaded from a different file collapses to one stored row.
func PaymentFingerprint(normalizedKey string, paymentDate *time.Time, amountCents int64, paymentRef string) string {
	key := strings.Join([]string{
		strings.TrimSpace(normalizedKey),
		DateString(paymentDate),
		strconv.FormatInt(amountCents, 10),
		strings.ToUpper(strings.TrimSpace(paymentRef)),
	}, "|")
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ChooseEarliest selects the canonical payment per vehicle from a flat list:
// earliest payment date wins, absent dates sort last, ties break on the
// lowest ID. The selection runs in application code so every storage backend
// agrees on the result.
func ChooseEarliest(payments []TaxPayment) map[string]TaxPayment {
	chosen := make(map[string]TaxPayment)
	for _, p := range payments {
		if p.NormalizedVehicleNumber == "" {
			continue
		}
		cur, ok := chosen[p.NormalizedVehicleNumber]
		if !ok || earlier(p, cur) {
			chosen[p.NormalizedVehicleNumber] = p
		}
	}
	return chosen
}

func earlier(a, b TaxPayment) bool {
	switch {
	case a.PaymentDate == nil && b.PaymentDate == nil:
		return a.ID < b.ID
	case a.PaymentDate == nil:
		return false
	case b.PaymentDate == nil:
		return true
	case a.PaymentDate.Equal(*b.PaymentDate):
		return a.ID < b.ID
	default:
		return a.PaymentDate.Before(*b.PaymentDate)
	}
}
