package bond

import (
	"time"

	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/utils"
)

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are in the same currency units as the quote's face value.
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// Schedule generates the bond's remaining cashflows after settlement.
//
// Coupon dates roll backward from maturity in whole coupon periods
// (Bloomberg-style backward generation, avoiding drift from repeated
// adjustment), then each payment date is adjusted Modified Following on
// the given calendar. The maturity cashflow carries the principal.
func Schedule(q Quote, cal calendar.CalendarID) ([]Cashflow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if 12%q.Frequency != 0 {
		return nil, dataErrorf(q.ID, "Frequency %d does not divide the year", q.Frequency)
	}

	months := 12 / q.Frequency
	coupon := q.FaceValue * q.CouponRate / float64(q.Frequency)

	// Unadjusted coupon dates, rolled backward from maturity.
	var unadjusted []time.Time
	for d := q.MaturityDate; d.After(q.SettlementDate); d = utils.AddMonth(d, -months) {
		unadjusted = append([]time.Time{d}, unadjusted...)
		if q.CouponRate == 0 {
			break // zero-coupon: single redemption payment
		}
	}

	cfs := make([]Cashflow, 0, len(unadjusted))
	for i, d := range unadjusted {
		cf := Cashflow{Date: calendar.Adjust(cal, d), Coupon: coupon}
		if i == len(unadjusted)-1 {
			cf.Principal = q.FaceValue
		}
		cfs = append(cfs, cf)
	}
	return cfs, nil
}

// PreviousCouponDate derives the accrual period start preceding the first
// remaining cashflow: one coupon period before it.
func PreviousCouponDate(q Quote, cfs []Cashflow) time.Time {
	if len(cfs) == 0 {
		return q.SettlementDate
	}
	months := 12 / q.Frequency
	return utils.AddMonth(cfs[0].Date, -months)
}

// AccruedAt computes accrued interest at asOf against the bond's coupon
// schedule, using the quote's day count convention. asOf must not be
// before the accrual period containing it has started.
func AccruedAt(q Quote, cfs []Cashflow, asOf time.Time) float64 {
	if q.CouponRate == 0 || len(cfs) == 0 {
		return 0
	}

	// Locate the accrual period containing asOf.
	periodStart := PreviousCouponDate(q, cfs)
	periodEnd := cfs[0].Date
	months := 12 / q.Frequency
	for _, cf := range cfs {
		if cf.Date.After(asOf) {
			periodEnd = cf.Date
			periodStart = utils.AddMonth(cf.Date, -months)
			break
		}
		periodStart = cf.Date
		periodEnd = utils.AddMonth(cf.Date, months)
	}
	if !asOf.After(periodStart) {
		return 0
	}

	full := utils.YearFraction(periodStart, periodEnd, q.DayCount)
	if full <= 0 {
		return 0
	}
	elapsed := utils.YearFraction(periodStart, asOf, q.DayCount)
	return q.FaceValue * q.CouponRate / float64(q.Frequency) * elapsed / full
}
