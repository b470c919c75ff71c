// Package returns decomposes realized bond returns into carry, roll-down
// and a residual excess component.
package returns

import (
	"time"

	"github.com/meenmo/curvekit/bond"
	"github.com/meenmo/curvekit/utils"
)

// Horizon is a holding period expressed in calendar months and days.
type Horizon struct {
	Months int
	Days   int
}

// End returns the horizon end date from a start date (EDATE-style month
// arithmetic, then day offset).
func (h Horizon) End(from time.Time) time.Time {
	return utils.AddMonth(from, h.Months).AddDate(0, 0, h.Days)
}

// Carry computes the accrual return over the horizon: coupons paid within
// the horizon plus the change in accrued interest, over the initial dirty
// price. Pure function of its inputs.
//
// The horizon must not extend past the bond's maturity (redemption is not
// a carry event); that case is a DataError.
func Carry(q bond.Quote, cfs []bond.Cashflow, h Horizon) (float64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	end := h.End(q.SettlementDate)
	if !end.After(q.SettlementDate) {
		return 0, &bond.DataError{BondID: q.ID, Reason: "holding horizon must be positive"}
	}
	if end.After(q.MaturityDate) {
		return 0, &bond.DataError{
			BondID: q.ID,
			Reason: "holding horizon extends past maturity " + q.MaturityDate.Format("2006-01-02"),
		}
	}

	dirty := q.DirtyPrice()
	if dirty <= 0 {
		return 0, &bond.DataError{BondID: q.ID, Reason: "dirty price must be positive"}
	}

	coupons := 0.0
	for _, cf := range cfs {
		if cf.Date.After(q.SettlementDate) && !cf.Date.After(end) {
			coupons += cf.Coupon
		}
	}

	accrualRoll := bond.AccruedAt(q, cfs, end) - bond.AccruedAt(q, cfs, q.SettlementDate)
	return (coupons + accrualRoll) / dirty, nil
}
