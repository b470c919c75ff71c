package curve

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/curvekit/bond"
	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/utils"
)

// BootstrapError reports a knot that cannot be solved without violating
// no-arbitrage (non-positive discount factor, unbracketable root, or a
// non-increasing maturity).
type BootstrapError struct {
	BondID   string
	Maturity float64
	Reason   string
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap bond %s (T=%.4fy): %s", e.BondID, e.Maturity, e.Reason)
}

const (
	// defaultTolerance is the repricing tolerance in price units.
	defaultTolerance = 1e-6
	bisectMaxIter    = 200
	// Zero-rate bracket for the root-find fallback.
	bisectRateLo = -0.10
	bisectRateHi = 1.00
)

// Bootstrapper converts an on-the-run quote set for one date into a
// SpotCurve that reprices every input bond exactly.
type Bootstrapper struct {
	Compounding   Compounding
	Interpolation Interpolation
	Calendar      calendar.CalendarID
	// Tolerance is the maximum absolute repricing error accepted for any
	// input bond, in price units. Zero means defaultTolerance.
	Tolerance float64
}

// NewBootstrapper returns a bootstrapper with the documented defaults:
// annual compounding, log-linear discount interpolation, U.S. government
// bond calendar.
func NewBootstrapper() Bootstrapper {
	return Bootstrapper{
		Compounding:   Annual,
		Interpolation: LogLinearDiscount,
		Calendar:      calendar.USGov,
	}
}

// Bootstrap processes bonds in ascending maturity order, solving one
// discount factor knot per bond. Cashflows at or before already solved
// knots are discounted off the partial curve (never extrapolated); the
// knot at the bond's own maturity is solved in closed form when it is the
// only cashflow beyond the last knot, otherwise by a bracketed bisection
// on the unknown zero rate.
//
// Quotes sharing a maturity date are averaged before solving.
func (b Bootstrapper) Bootstrap(settlement time.Time, quotes []bond.Quote) (*SpotCurve, error) {
	if len(quotes) == 0 {
		return nil, &bond.DataError{Reason: "no quotes to bootstrap"}
	}
	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}

	merged := averageDuplicateMaturities(quotes)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].MaturityDate.Before(merged[j].MaturityDate)
	})

	sc := &SpotCurve{
		Settlement:    settlement,
		Compounding:   b.compounding(),
		Interpolation: b.interpolation(),
		Points:        make([]Point, 0, len(merged)),
	}

	type priced struct {
		quote bond.Quote
		cfs   []bond.Cashflow
	}
	repriceSet := make([]priced, 0, len(merged))

	for _, q := range merged {
		cfs, err := bond.Schedule(q, b.Calendar)
		if err != nil {
			return nil, err
		}

		pt, err := b.solveKnot(sc, settlement, q, cfs)
		if err != nil {
			return nil, err
		}
		sc.Points = append(sc.Points, pt)
		repriceSet = append(repriceSet, priced{quote: q, cfs: cfs})
	}

	// Round-trip check: the finished curve must reproduce every input
	// dirty price within tolerance.
	tol := b.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	for _, p := range repriceSet {
		pv := bond.PV(p.cfs, settlement, p.quote.DayCount, sc)
		if diff := math.Abs(pv - p.quote.DirtyPrice()); diff > tol {
			return nil, &BootstrapError{
				BondID:   p.quote.ID,
				Maturity: p.quote.TimeToMaturity(),
				Reason:   fmt.Sprintf("round-trip repricing off by %.3g (tolerance %.3g)", diff, tol),
			}
		}
	}

	return sc, nil
}

// solveKnot solves the discount factor at the bond's maturity given the
// partial curve built so far.
func (b Bootstrapper) solveKnot(sc *SpotCurve, settlement time.Time, q bond.Quote, cfs []bond.Cashflow) (Point, error) {
	terminal := cfs[len(cfs)-1]
	matT := utils.YearFraction(settlement, terminal.Date, q.DayCount)

	lastKnot := Point{Maturity: 0, DiscountFactor: 1.0}
	if n := len(sc.Points); n > 0 {
		lastKnot = sc.Points[n-1]
	}
	if matT <= lastKnot.Maturity {
		return Point{}, &BootstrapError{
			BondID:   q.ID,
			Maturity: matT,
			Reason:   fmt.Sprintf("maturity not beyond last solved knot (%.4fy)", lastKnot.Maturity),
		}
	}

	dirty := q.DirtyPrice()
	comp := sc.Compounding

	// Split the coupons: those at or before the last knot are discounted
	// off the partial curve; later ones depend on the unknown knot.
	knownPV := 0.0
	var pending []float64 // times of unknown-region intermediate coupons
	var pendingAmt []float64
	for _, cf := range cfs[:len(cfs)-1] {
		t := utils.YearFraction(settlement, cf.Date, q.DayCount)
		if t <= lastKnot.Maturity {
			knownPV += cf.Amount() * sc.DF(t)
		} else {
			pending = append(pending, t)
			pendingAmt = append(pendingAmt, cf.Amount())
		}
	}

	if len(pending) == 0 {
		// Closed form: price = knownPV + amount * DF(T).
		df := (dirty - knownPV) / terminal.Amount()
		if df <= 0 {
			return Point{}, &BootstrapError{
				BondID:   q.ID,
				Maturity: matT,
				Reason:   fmt.Sprintf("implied discount factor %.6g is not positive", df),
			}
		}
		return Point{Maturity: matT, ZeroRate: comp.ZeroRate(df, matT), DiscountFactor: df}, nil
	}

	// Non-standard schedule: intermediate coupons beyond the last knot.
	// Bisect on the unknown zero rate at maturity; intermediate DFs are
	// interpolated on the segment ending at the unknown knot.
	residual := func(z float64) float64 {
		x := comp.DiscountFactor(z, matT)
		pv := knownPV + terminal.Amount()*x
		for i, t := range pending {
			df, _ := interpolateUnknownDF(sc.Interpolation, comp, lastKnot, matT, x, t)
			pv += pendingAmt[i] * df
		}
		return pv - dirty
	}

	lo, hi := bisectRateLo, bisectRateHi
	fLo, fHi := residual(lo), residual(hi)
	if fLo*fHi > 0 {
		return Point{}, &BootstrapError{
			BondID:   q.ID,
			Maturity: matT,
			Reason:   fmt.Sprintf("price %.6f not attainable for any zero rate in [%.0f%%, %.0f%%]", dirty, bisectRateLo*100, bisectRateHi*100),
		}
	}
	for i := 0; i < bisectMaxIter; i++ {
		mid := 0.5 * (lo + hi)
		fMid := residual(mid)
		if fMid == 0 || hi-lo < 1e-14 {
			break
		}
		if fLo*fMid < 0 {
			hi, fHi = mid, fMid
		} else {
			lo, fLo = mid, fMid
		}
	}
	z := 0.5 * (lo + hi)
	df := comp.DiscountFactor(z, matT)
	if df <= 0 {
		return Point{}, &BootstrapError{
			BondID:   q.ID,
			Maturity: matT,
			Reason:   fmt.Sprintf("solved discount factor %.6g is not positive", df),
		}
	}
	return Point{Maturity: matT, ZeroRate: z, DiscountFactor: df}, nil
}

// averageDuplicateMaturities merges quotes sharing a maturity date by
// averaging their prices, accrued interest and coupons.
func averageDuplicateMaturities(quotes []bond.Quote) []bond.Quote {
	byMaturity := make(map[time.Time][]bond.Quote, len(quotes))
	var order []time.Time
	for _, q := range quotes {
		key := q.MaturityDate
		if _, seen := byMaturity[key]; !seen {
			order = append(order, key)
		}
		byMaturity[key] = append(byMaturity[key], q)
	}

	out := make([]bond.Quote, 0, len(order))
	for _, key := range order {
		group := byMaturity[key]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		avg := group[0]
		avg.CleanPrice, avg.AccruedInterest, avg.CouponRate = 0, 0, 0
		for _, q := range group {
			avg.CleanPrice += q.CleanPrice
			avg.AccruedInterest += q.AccruedInterest
			avg.CouponRate += q.CouponRate
		}
		n := float64(len(group))
		avg.CleanPrice /= n
		avg.AccruedInterest /= n
		avg.CouponRate /= n
		out = append(out, avg)
	}
	return out
}

func (b Bootstrapper) compounding() Compounding {
	if b.Compounding == "" {
		return Annual
	}
	return b.Compounding
}

func (b Bootstrapper) interpolation() Interpolation {
	if b.Interpolation == "" {
		return LogLinearDiscount
	}
	return b.Interpolation
}
