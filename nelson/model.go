// Package nelson fits Nelson-Siegel and Nelson-Siegel-Svensson curve
// models to discrete spot curves.
//
// Both models are linear in the betas once the decay parameter(s) are
// fixed, so fitting is separable: an outer search over lambda and an
// inner linear least-squares solve over the betas.
package nelson

import (
	"math"
	"time"
)

// Variant selects the functional form.
type Variant string

const (
	// NS is the 4-parameter Nelson-Siegel model.
	NS Variant = "NS"
	// NSS is the 6-parameter Nelson-Siegel-Svensson extension.
	NSS Variant = "NSS"
)

const (
	// minLambda guards the decay parameters away from zero.
	minLambda = 1e-4
	// minMaturity guards the loading functions at t = 0.
	minMaturity = 1e-6
	// MinLambdaGap is the minimum separation between the two NSS decay
	// parameters; closer pairs make the curvature bases collinear.
	MinLambdaGap = 0.05
)

// Parameters holds a fitted parameter vector. Lambda2 and Beta3 are only
// meaningful for the NSS variant.
type Parameters struct {
	Variant Variant
	Beta0   float64 // level
	Beta1   float64 // slope
	Beta2   float64 // curvature
	Beta3   float64 // second curvature (NSS)
	Lambda1 float64
	Lambda2 float64 // NSS
}

// SlopeLoading is (1 − e^(−t/λ)) / (t/λ).
func SlopeLoading(t, lambda float64) float64 {
	if lambda < minLambda {
		lambda = minLambda
	}
	if t < minMaturity {
		t = minMaturity
	}
	u := t / lambda
	return (1.0 - math.Exp(-u)) / u
}

// CurvatureLoading is SlopeLoading(t, λ) − e^(−t/λ).
func CurvatureLoading(t, lambda float64) float64 {
	if lambda < minLambda {
		lambda = minLambda
	}
	if t < minMaturity {
		t = minMaturity
	}
	u := t / lambda
	return (1.0-math.Exp(-u))/u - math.Exp(-u)
}

// Yield evaluates the model-implied zero rate at maturity t (years).
func (p Parameters) Yield(t float64) float64 {
	y := p.Beta0 +
		p.Beta1*SlopeLoading(t, p.Lambda1) +
		p.Beta2*CurvatureLoading(t, p.Lambda1)
	if p.Variant == NSS {
		y += p.Beta3 * CurvatureLoading(t, p.Lambda2)
	}
	return y
}

// NumParameters returns the free parameter count of the variant.
func (v Variant) NumParameters() int {
	if v == NSS {
		return 6
	}
	return 4
}

// numBetas returns the linear parameter count of the variant.
func (v Variant) numBetas() int {
	if v == NSS {
		return 4
	}
	return 3
}

// FittedModel is a Parameters vector bound to its valuation date plus
// fit diagnostics. It is owned by one valuation date and read-only for
// downstream consumers.
type FittedModel struct {
	Parameters
	Date time.Time
	// SSR is the sum of squared yield residuals at the input points.
	SSR float64
	// R2 is 1 − SSR/SST against the mean observed yield.
	R2 float64
	// Residuals holds observed minus fitted yield per input point.
	Residuals []float64
	// Compounding converts model yields to discount factors in DF.
	Compounding Compounder
}

// Compounder is the subset of curve.Compounding the model needs; declared
// locally to keep the dependency direction pointing at this package.
type Compounder interface {
	DiscountFactor(rate, t float64) float64
}

// DF returns the model-implied discount factor at maturity t, making a
// FittedModel usable anywhere a discounter is expected.
func (m *FittedModel) DF(t float64) float64 {
	if t <= 0 {
		return 1.0
	}
	if m.Compounding == nil {
		return math.Exp(-m.Yield(t) * t)
	}
	return m.Compounding.DiscountFactor(m.Yield(t), t)
}

// Sample evaluates the fitted curve on a maturity grid (years).
func (m *FittedModel) Sample(grid []float64) map[float64]float64 {
	out := make(map[float64]float64, len(grid))
	for _, t := range grid {
		out[t] = m.Yield(t)
	}
	return out
}
