package bond

import (
	"time"

	"github.com/meenmo/curvekit/utils"
)

// Discounter maps a time-to-payment in years to a discount factor.
// Both bootstrapped spot curves and fitted curve models satisfy it.
type Discounter interface {
	DF(t float64) float64
}

// PV discounts the cashflows falling strictly after valuation, with times
// measured under the given day count convention.
func PV(cfs []Cashflow, valuation time.Time, dayCount string, disc Discounter) float64 {
	pv := 0.0
	for _, cf := range cfs {
		if !cf.Date.After(valuation) {
			continue
		}
		t := utils.YearFraction(valuation, cf.Date, dayCount)
		pv += cf.Amount() * disc.DF(t)
	}
	return pv
}

// CleanPrice prices the schedule off the discounter and strips accrued
// interest at valuation.
func CleanPrice(q Quote, cfs []Cashflow, valuation time.Time, disc Discounter) float64 {
	return PV(cfs, valuation, q.DayCount, disc) - AccruedAt(q, cfs, valuation)
}
