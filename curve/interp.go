package curve

import "math"

// Interpolation selects the rule applied between bootstrap knots.
type Interpolation string

const (
	// LogLinearDiscount interpolates linearly in log discount factor
	// (piecewise-constant forward rates). Default.
	LogLinearDiscount Interpolation = "log-linear-discount"
	// LinearZeroRate interpolates linearly in the zero rate.
	LinearZeroRate Interpolation = "linear-zero-rate"
)

// interpolateDF evaluates the interpolation rule between two knots at
// maturity t. Outside [lo, hi] it extrapolates on the same segment.
func interpolateDF(rule Interpolation, comp Compounding, lo, hi Point, t float64) float64 {
	if hi.Maturity == lo.Maturity {
		return hi.DiscountFactor
	}
	switch rule {
	case LinearZeroRate:
		w := (t - lo.Maturity) / (hi.Maturity - lo.Maturity)
		z := lo.ZeroRate + w*(hi.ZeroRate-lo.ZeroRate)
		return comp.DiscountFactor(z, t)
	default:
		// Constant forward between knots:
		// DF(t) = DF(lo) * exp(-f*(t-lo)), f = ln(DF(lo)/DF(hi)) / (hi-lo)
		forward := math.Log(lo.DiscountFactor/hi.DiscountFactor) / (hi.Maturity - lo.Maturity)
		return lo.DiscountFactor * math.Exp(-forward*(t-lo.Maturity))
	}
}

// interpolateUnknownDF interpolates the DF at maturity t on the segment
// whose right endpoint DF is the unknown x, returning DF(t) and its
// partial derivative with respect to x. Used while solving a knot whose
// bond has intermediate cashflows beyond the previous knot.
func interpolateUnknownDF(rule Interpolation, comp Compounding, lo Point, hiMaturity, x, t float64) (float64, float64) {
	if hiMaturity == lo.Maturity {
		return lo.DiscountFactor, 0
	}
	ratio := (t - lo.Maturity) / (hiMaturity - lo.Maturity)
	if x <= 1e-12 {
		x = 1e-12
	}

	switch rule {
	case LinearZeroRate:
		zHi := comp.ZeroRate(x, hiMaturity)
		z := lo.ZeroRate + ratio*(zHi-lo.ZeroRate)
		df := comp.DiscountFactor(z, t)
		// Chain rule through zHi; derivatives of the compounding maps.
		dzdx := ratio * dZeroDDF(comp, x, hiMaturity)
		return df, dDFdZero(comp, z, t) * dzdx
	default:
		// DF(t) = DF(lo)^(1-ratio) * x^ratio
		df := math.Pow(lo.DiscountFactor, 1.0-ratio) * math.Pow(x, ratio)
		return df, ratio * df / x
	}
}

func dZeroDDF(comp Compounding, df, t float64) float64 {
	switch comp {
	case Continuous:
		return -1.0 / (t * df)
	case Semiannual:
		return -1.0 / t * math.Pow(df, -1.0/(2.0*t)-1.0)
	default:
		return -1.0 / t * math.Pow(df, -1.0/t-1.0)
	}
}

func dDFdZero(comp Compounding, z, t float64) float64 {
	switch comp {
	case Continuous:
		return -t * math.Exp(-z*t)
	case Semiannual:
		return -t * math.Pow(1.0+z/2.0, -2.0*t-1.0)
	default:
		return -t * math.Pow(1.0+z, -t-1.0)
	}
}
