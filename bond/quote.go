package bond

import (
	"time"

	"github.com/meenmo/curvekit/utils"
)

// Quote is a cleaned market quote for one bond on one valuation date.
// It is an immutable snapshot; all pipeline entities are derived from it.
type Quote struct {
	ID string
	// CouponRate is the annual coupon in decimal (e.g. 0.025 for 2.5%).
	CouponRate float64
	FaceValue  float64
	// Frequency is coupons per year (1 = annual, 2 = semi-annual).
	Frequency int
	// IssueDate drives on-the-run selection; zero value is tolerated.
	IssueDate      time.Time
	MaturityDate   time.Time
	SettlementDate time.Time
	CleanPrice     float64
	// AccruedInterest at settlement, in the same units as CleanPrice.
	AccruedInterest float64
	// DayCount is the accrual convention (utils.ActAct, utils.Thirty360, ...).
	DayCount string
}

// Validate checks the quote fields that every downstream computation
// relies on.
func (q Quote) Validate() error {
	if q.SettlementDate.IsZero() {
		return dataErrorf(q.ID, "SettlementDate is required")
	}
	if q.MaturityDate.IsZero() {
		return dataErrorf(q.ID, "MaturityDate is required")
	}
	if !q.MaturityDate.After(q.SettlementDate) {
		return dataErrorf(q.ID, "maturity %s is not after settlement %s",
			q.MaturityDate.Format("2006-01-02"), q.SettlementDate.Format("2006-01-02"))
	}
	if q.FaceValue <= 0 {
		return dataErrorf(q.ID, "FaceValue must be positive, got %v", q.FaceValue)
	}
	if q.Frequency <= 0 {
		return dataErrorf(q.ID, "Frequency must be positive, got %d", q.Frequency)
	}
	if q.CleanPrice <= 0 {
		return dataErrorf(q.ID, "CleanPrice must be positive, got %v", q.CleanPrice)
	}
	if q.CouponRate < 0 {
		return dataErrorf(q.ID, "CouponRate must not be negative, got %v", q.CouponRate)
	}
	if q.AccruedInterest < 0 {
		return dataErrorf(q.ID, "AccruedInterest must not be negative, got %v", q.AccruedInterest)
	}
	return nil
}

// DirtyPrice is the full invoice price: clean price plus accrued interest.
func (q Quote) DirtyPrice() float64 {
	return q.CleanPrice + q.AccruedInterest
}

// TimeToMaturity returns the remaining life in years under the quote's
// day count convention.
func (q Quote) TimeToMaturity() float64 {
	return utils.YearFraction(q.SettlementDate, q.MaturityDate, q.DayCount)
}
