package bond

import (
	"math"

	"github.com/meenmo/curvekit/utils"
)

const (
	ytmTolerance = 1e-10
	ytmMaxIter   = 100
	// Economic bracket for the Newton iterate.
	ytmFloor   = -0.05
	ytmCeiling = 0.50
)

// YieldToMaturity solves for the annually compounded yield y such that
// the remaining cashflows discounted at (1+y)^-t reproduce the quoted
// dirty price, with times under the quote's day count convention.
//
// The solver is Newton-Raphson with the analytic price derivative,
// clamped to a wide bracket; failure to converge is a DataError.
func YieldToMaturity(q Quote, cfs []Cashflow) (float64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	if len(cfs) == 0 {
		return 0, dataErrorf(q.ID, "no cashflows to discount")
	}
	target := q.DirtyPrice()

	y := 0.025
	for iter := 0; iter < ytmMaxIter; iter++ {
		price, dPdy := dirtyPriceAndDeriv(y, q, cfs)
		f := price - target
		if math.Abs(f) < ytmTolerance {
			return y, nil
		}
		if math.Abs(dPdy) < 1e-15 {
			return 0, dataErrorf(q.ID, "price derivative vanished at iteration %d", iter)
		}
		y = clamp(y-f/dPdy, ytmFloor, ytmCeiling)
	}
	return 0, dataErrorf(q.ID, "yield did not converge after %d iterations", ytmMaxIter)
}

// dirtyPriceAndDeriv returns (price, dPrice/dy) for cashflows after
// settlement at annually compounded yield y.
func dirtyPriceAndDeriv(y float64, q Quote, cfs []Cashflow) (float64, float64) {
	var price, deriv float64
	for _, cf := range cfs {
		if !cf.Date.After(q.SettlementDate) {
			continue
		}
		t := utils.YearFraction(q.SettlementDate, cf.Date, q.DayCount)
		amt := cf.Amount()
		disc := math.Pow(1.0+y, t)
		price += amt / disc
		deriv += -t * amt / (disc * (1.0 + y))
	}
	return price, deriv
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
