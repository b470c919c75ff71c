// Package regress runs the per-date cross-sectional regression of excess
// returns on Nelson-Siegel factor loadings.
package regress

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/curvekit/internal/linalg"
	"github.com/meenmo/curvekit/nelson"
)

// SingularityError reports a rank-deficient cross-section (too few
// effective bonds, or collinear loadings on that date). The date's result
// is omitted; the error is never fatal to a multi-date run.
type SingularityError struct {
	Date   time.Time
	N      int
	Reason string
}

func (e *SingularityError) Error() string {
	return fmt.Sprintf("cross-section %s (n=%d): %s", e.Date.Format("2006-01-02"), e.N, e.Reason)
}

// Observation is one bond's contribution to a date's cross-section.
type Observation struct {
	BondID string
	// TimeToMaturity in years; drives the factor loadings.
	TimeToMaturity float64
	// Excess is the bond's excess return over the period.
	Excess float64
}

// Result holds one date's regression:
//
//	excess_i = Alpha + Slope·f1(t_i;λ) + Curvature·f2(t_i;λ) + ε_i
//
// where f1, f2 are the Nelson-Siegel slope and curvature loadings at the
// bond's time-to-maturity, with the decay λ taken from that date's
// fitted curve model.
type Result struct {
	Date      time.Time
	Alpha     float64
	Slope     float64
	Curvature float64
	Residuals []float64
	R2        float64
	// N is the number of bonds that entered the regression after
	// non-finite observations were excluded.
	N int
}

// CrossSection fits the regression for one valuation date. Observations
// with non-finite excess returns or loadings are excluded (panel
// membership varies by date); at least three effective bonds are needed
// to identify the three coefficients.
func CrossSection(date time.Time, obs []Observation, lambda float64) (*Result, error) {
	rows := make([][]float64, 0, len(obs))
	y := make([]float64, 0, len(obs))
	for _, o := range obs {
		f1 := nelson.SlopeLoading(o.TimeToMaturity, lambda)
		f2 := nelson.CurvatureLoading(o.TimeToMaturity, lambda)
		if !finite(o.Excess) || !finite(f1) || !finite(f2) {
			continue
		}
		rows = append(rows, []float64{1.0, f1, f2})
		y = append(y, o.Excess)
	}

	n := len(rows)
	if n < 3 {
		return nil, &SingularityError{Date: date, N: n, Reason: "fewer effective bonds than coefficients"}
	}

	coefs, err := linalg.LeastSquares(rows, y, 0)
	if err != nil {
		return nil, &SingularityError{Date: date, N: n, Reason: "collinear factor loadings"}
	}

	residuals := linalg.Residuals(rows, y, coefs)
	ssr, mean := 0.0, 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	sst := 0.0
	for i, v := range y {
		ssr += residuals[i] * residuals[i]
		sst += (v - mean) * (v - mean)
	}

	r2 := 0.0
	switch {
	case sst > 1e-18:
		r2 = 1.0 - ssr/sst
	case ssr <= 1e-18:
		r2 = 1.0
	}

	return &Result{
		Date:      date,
		Alpha:     coefs[0],
		Slope:     coefs[1],
		Curvature: coefs[2],
		Residuals: residuals,
		R2:        r2,
		N:         n,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
