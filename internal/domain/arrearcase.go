package domain

import "time"

// ArrearCase is one notice record per vehicle, keyed by the normalized
// vehicle number. Pointer fields map to nullable columns: absent is distinct
// from zero and a partial update must never clobber a stored value with a
// blank.
type ArrearCase struct {
	ID                      int64
	VehicleNumber           string
	NormalizedVehicleNumber string
	VehicleType             *string
	TaxArrearFrom           *time.Time

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

	TaxPaidStatus      bool
	TaxPaidDate        *time.Time
	TaxPaidAmountCents *int64
	Remarks            *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveArrearCents applies the legal escalation precedence: a recovery
// challan supersedes a second notice, which supersedes a first notice.
func (c *ArrearCase) EffectiveArrearCents() int64 {
	rc := int64Val(c.RecoveryChallanTaxCents) + int64Val(c.RecoveryChallanPenaltyCents)
	if rc > 0 {
		return rc
	}
	if second := int64Val(c.SecondNoticeTotalCents); second > 0 {
		return second
	}
	return int64Val(c.FirstNoticeTotalCents)
}

func int64Val(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
