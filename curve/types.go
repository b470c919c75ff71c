package curve

import (
	"math"
	"sort"
	"time"
)

// Compounding is the convention used to convert between zero rates and
// discount factors.
type Compounding string

const (
	Annual     Compounding = "annual"
	Semiannual Compounding = "semiannual"
	Continuous Compounding = "continuous"
)

// DiscountFactor converts a zero rate at maturity t (years) to a discount factor.
func (c Compounding) DiscountFactor(rate, t float64) float64 {
	switch c {
	case Continuous:
		return math.Exp(-rate * t)
	case Semiannual:
		return math.Pow(1.0+rate/2.0, -2.0*t)
	default:
		return math.Pow(1.0+rate, -t)
	}
}

// ZeroRate converts a discount factor at maturity t (years) to a zero rate.
func (c Compounding) ZeroRate(df, t float64) float64 {
	if t <= 0 || df <= 0 {
		return 0
	}
	switch c {
	case Continuous:
		return -math.Log(df) / t
	case Semiannual:
		return 2.0 * (math.Pow(df, -1.0/(2.0*t)) - 1.0)
	default:
		return math.Pow(df, -1.0/t) - 1.0
	}
}

// Point is one solved knot of a spot curve.
type Point struct {
	// Maturity is time-to-maturity in years from the curve's settlement.
	Maturity float64
	// ZeroRate is the spot rate in decimal under the curve's compounding.
	ZeroRate float64
	// DiscountFactor is the present value of one unit paid at Maturity.
	// Strictly positive; (0, 1] and decreasing in the usual regime, but
	// locally non-monotone curves (negative forwards) are tolerated.
	DiscountFactor float64
}

// SpotCurve is an ordered set of knots, strictly increasing by maturity.
type SpotCurve struct {
	Settlement    time.Time
	Compounding   Compounding
	Interpolation Interpolation
	Points        []Point
}

// DF returns the (interpolated) discount factor at maturity t in years.
// Between knots it applies the curve's interpolation rule; before the
// first knot it interpolates against the settlement anchor DF(0)=1;
// beyond the last knot it extrapolates on the final segment.
func (s *SpotCurve) DF(t float64) float64 {
	if t <= 0 || len(s.Points) == 0 {
		return 1.0
	}
	lo, hi := s.bracket(t)
	return interpolateDF(s.Interpolation, s.Compounding, lo, hi, t)
}

// Zero returns the (interpolated) zero rate at maturity t in years.
func (s *SpotCurve) Zero(t float64) float64 {
	return s.Compounding.ZeroRate(s.DF(t), t)
}

// Maturities returns the knot maturities in ascending order.
func (s *SpotCurve) Maturities() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Maturity
	}
	return out
}

// ZeroRates returns the knot zero rates, aligned with Maturities.
func (s *SpotCurve) ZeroRates() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.ZeroRate
	}
	return out
}

// Sample evaluates the curve on a fixed maturity grid (years), e.g. a
// monthly grid for reporting.
func (s *SpotCurve) Sample(grid []float64) []Point {
	out := make([]Point, 0, len(grid))
	for _, t := range grid {
		if t <= 0 {
			continue
		}
		df := s.DF(t)
		out = append(out, Point{Maturity: t, ZeroRate: s.Compounding.ZeroRate(df, t), DiscountFactor: df})
	}
	return out
}

// bracket returns the two knots (or the settlement anchor) surrounding t.
func (s *SpotCurve) bracket(t float64) (Point, Point) {
	anchor := Point{Maturity: 0, ZeroRate: 0, DiscountFactor: 1.0}
	pts := s.Points

	idx := sort.Search(len(pts), func(i int) bool { return pts[i].Maturity >= t })
	switch {
	case idx == 0:
		return anchor, pts[0]
	case idx >= len(pts):
		if len(pts) == 1 {
			return anchor, pts[0]
		}
		return pts[len(pts)-2], pts[len(pts)-1]
	default:
		return pts[idx-1], pts[idx]
	}
}
