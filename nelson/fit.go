package nelson

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/curvekit/internal/linalg"
)

// FitConvergenceError reports that no viable decay parameter exists for
// the input curve (singular basis at every candidate, or an unidentifiable
// problem with fewer points than linear parameters).
type FitConvergenceError struct {
	Variant Variant
	Reason  string
}

func (e *FitConvergenceError) Error() string {
	return fmt.Sprintf("fit %s: %s", e.Variant, e.Reason)
}

// Options configures a fit.
type Options struct {
	Variant Variant
	// LambdaGrid holds the candidate decay values for the outer search.
	// All entries must be strictly positive. Empty means DefaultLambdaGrid.
	LambdaGrid []float64
	// Ridge, when positive, adds an L2 penalty on the betas to the
	// objective (stabilizes under-determined cross sections).
	Ridge float64
	// RefineBudget caps objective evaluations spent on the local
	// refinement after the grid search. Zero means defaultRefineBudget.
	// The refinement is deterministic and always falls back to the best
	// grid candidate when it fails to improve.
	RefineBudget int
	// Compounding converts fitted yields to discount factors; nil means
	// continuous compounding.
	Compounding Compounder
}

const defaultRefineBudget = 80

// DefaultLambdaGrid spans decay scales from weeks to decades, spaced
// geometrically. Covers the short-to-long maturity range of a typical
// 30-year government curve.
func DefaultLambdaGrid() []float64 {
	const (
		lo = 0.1
		hi = 10.0
		n  = 25
	)
	grid := make([]float64, n)
	ratio := math.Pow(hi/lo, 1.0/float64(n-1))
	v := lo
	for i := 0; i < n; i++ {
		grid[i] = v
		v *= ratio
	}
	return grid
}

// Fit estimates model parameters minimizing the sum of squared yield
// residuals over the curve points.
//
// The objective is highly non-convex in lambda but linear in the betas
// given lambda, so the search is two-level: a grid over lambda (pairs for
// NSS, with a minimum separation) with an exact linear solve at each
// candidate, then a budgeted golden-section refinement around the best
// grid point (coordinate descent over the two lambdas for NSS).
func Fit(date time.Time, maturities, yields []float64, opt Options) (*FittedModel, error) {
	variant := opt.Variant
	if variant == "" {
		variant = NS
	}
	if len(maturities) != len(yields) {
		return nil, &FitConvergenceError{Variant: variant, Reason: fmt.Sprintf("length mismatch: %d maturities, %d yields", len(maturities), len(yields))}
	}
	if len(maturities) < variant.numBetas() {
		return nil, &FitConvergenceError{
			Variant: variant,
			Reason:  fmt.Sprintf("%d points cannot identify %d parameters", len(maturities), variant.NumParameters()),
		}
	}

	grid := opt.LambdaGrid
	if len(grid) == 0 {
		grid = DefaultLambdaGrid()
	}
	grid = append([]float64(nil), grid...)
	sort.Float64s(grid)
	for _, l := range grid {
		if l <= 0 {
			return nil, &FitConvergenceError{Variant: variant, Reason: fmt.Sprintf("lambda grid contains non-positive value %v", l)}
		}
	}

	f := fitter{
		variant:    variant,
		maturities: maturities,
		yields:     yields,
		ridge:      opt.Ridge,
	}

	best, ok := f.gridSearch(grid)
	if !ok {
		return nil, &FitConvergenceError{Variant: variant, Reason: "no candidate lambda yields a non-singular basis"}
	}

	budget := opt.RefineBudget
	if budget == 0 {
		budget = defaultRefineBudget
	}
	best = f.refine(best, grid, budget)

	return f.build(date, best, opt.Compounding), nil
}

// candidate is one evaluated lambda (pair) with its solved betas.
type candidate struct {
	lambda1, lambda2 float64
	betas            []float64
	// objective is SSR plus the ridge penalty; selection uses it.
	objective float64
	ssr       float64
}

type fitter struct {
	variant    Variant
	maturities []float64
	yields     []float64
	ridge      float64
}

// basis builds the regression matrix for fixed lambdas: one row per curve
// point, columns [1, slope, curvature, (second curvature)].
func (f *fitter) basis(lambda1, lambda2 float64) [][]float64 {
	rows := make([][]float64, len(f.maturities))
	for i, t := range f.maturities {
		row := []float64{1.0, SlopeLoading(t, lambda1), CurvatureLoading(t, lambda1)}
		if f.variant == NSS {
			row = append(row, CurvatureLoading(t, lambda2))
		}
		rows[i] = row
	}
	return rows
}

// eval solves the inner linear problem at the given lambdas.
func (f *fitter) eval(lambda1, lambda2 float64) (candidate, bool) {
	if lambda1 <= 0 || (f.variant == NSS && lambda2 <= 0) {
		return candidate{}, false
	}
	if f.variant == NSS && math.Abs(lambda1-lambda2) < MinLambdaGap {
		return candidate{}, false
	}

	a := f.basis(lambda1, lambda2)
	betas, err := linalg.LeastSquares(a, f.yields, f.ridge)
	if err != nil {
		return candidate{}, false
	}

	ssr := 0.0
	for _, r := range linalg.Residuals(a, f.yields, betas) {
		ssr += r * r
	}
	obj := ssr
	if f.ridge > 0 {
		for _, b := range betas {
			obj += f.ridge * b * b
		}
	}
	if math.IsNaN(obj) || math.IsInf(obj, 0) {
		return candidate{}, false
	}
	return candidate{lambda1: lambda1, lambda2: lambda2, betas: betas, objective: obj, ssr: ssr}, true
}

func (f *fitter) gridSearch(grid []float64) (candidate, bool) {
	var best candidate
	found := false

	consider := func(c candidate, ok bool) {
		if ok && (!found || c.objective < best.objective) {
			best, found = c, true
		}
	}

	if f.variant == NS {
		for _, l := range grid {
			consider(f.eval(l, 0))
		}
		return best, found
	}

	for _, l1 := range grid {
		for _, l2 := range grid {
			if l1 == l2 {
				continue
			}
			consider(f.eval(l1, l2))
		}
	}
	return best, found
}

// refine runs a budgeted golden-section search around the best grid
// candidate: 1-D over lambda for NS, alternating coordinate descent over
// the two lambdas for NSS. The result never regresses below the grid
// optimum; on any failure the grid candidate stands.
func (f *fitter) refine(best candidate, grid []float64, budget int) candidate {
	if budget <= 0 {
		return best
	}

	if f.variant == NS {
		lo, hi := neighbors(grid, best.lambda1)
		if c, ok := f.goldenSection(lo, hi, 0, budget, false); ok && c.objective < best.objective {
			best = c
		}
		return best
	}

	// NSS: alternate 1-D refinements of lambda1 (holding lambda2) and
	// lambda2 (holding lambda1), two sweeps within the shared budget.
	per := budget / 4
	if per < 8 {
		per = 8
	}
	for sweep := 0; sweep < 2; sweep++ {
		lo, hi := neighbors(grid, best.lambda1)
		if c, ok := f.goldenSection(lo, hi, best.lambda2, per, false); ok && c.objective < best.objective {
			best = c
		}
		lo, hi = neighbors(grid, best.lambda2)
		if c, ok := f.goldenSection(lo, hi, best.lambda1, per, true); ok && c.objective < best.objective {
			best = c
		}
	}
	return best
}

// goldenSection minimizes the profiled objective over one lambda in
// [lo, hi]. fixed is the other lambda (ignored for NS); searchSecond
// selects which coordinate moves. Infeasible points (gap violations)
// fall out naturally via the feasibility flag.
func (f *fitter) goldenSection(lo, hi, fixed float64, budget int, searchSecond bool) (candidate, bool) {
	probe := func(l float64) (candidate, bool) {
		if f.variant == NS {
			return f.eval(l, 0)
		}
		if searchSecond {
			return f.eval(fixed, l)
		}
		return f.eval(l, fixed)
	}

	const invPhi = 0.6180339887498949
	a, b := lo, hi
	x1 := b - invPhi*(b-a)
	x2 := a + invPhi*(b-a)
	c1, ok1 := probe(x1)
	c2, ok2 := probe(x2)

	var best candidate
	found := false
	note := func(c candidate, ok bool) {
		if ok && (!found || c.objective < best.objective) {
			best, found = c, true
		}
	}
	note(c1, ok1)
	note(c2, ok2)

	for i := 2; i < budget && b-a > 1e-10; i++ {
		use1 := ok1 && (!ok2 || c1.objective < c2.objective)
		if use1 {
			b, x2, c2, ok2 = x2, x1, c1, ok1
			x1 = b - invPhi*(b-a)
			c1, ok1 = probe(x1)
			note(c1, ok1)
		} else {
			a, x1, c1, ok1 = x1, x2, c2, ok2
			x2 = a + invPhi*(b-a)
			c2, ok2 = probe(x2)
			note(c2, ok2)
		}
	}
	return best, found
}

// neighbors returns the grid values adjacent to l, forming the local
// refinement bracket.
func neighbors(grid []float64, l float64) (float64, float64) {
	idx := sort.SearchFloat64s(grid, l)
	lo := l
	hi := l
	if idx > 0 {
		lo = grid[idx-1]
	}
	if idx+1 < len(grid) {
		hi = grid[idx+1]
	} else if idx < len(grid) {
		hi = grid[len(grid)-1]
	}
	if lo == hi {
		// Degenerate bracket (single-point grid): widen around l.
		lo, hi = l*0.5, l*2.0
	}
	return lo, hi
}

func (f *fitter) build(date time.Time, c candidate, comp Compounder) *FittedModel {
	p := Parameters{
		Variant: f.variant,
		Beta0:   c.betas[0],
		Beta1:   c.betas[1],
		Beta2:   c.betas[2],
		Lambda1: c.lambda1,
	}
	if f.variant == NSS {
		p.Beta3 = c.betas[3]
		p.Lambda2 = c.lambda2
	}

	residuals := make([]float64, len(f.maturities))
	mean := 0.0
	for _, y := range f.yields {
		mean += y
	}
	mean /= float64(len(f.yields))

	sst := 0.0
	for i, t := range f.maturities {
		residuals[i] = f.yields[i] - p.Yield(t)
		sst += (f.yields[i] - mean) * (f.yields[i] - mean)
	}

	r2 := 0.0
	switch {
	case sst > 1e-18:
		r2 = 1.0 - c.ssr/sst
	case c.ssr <= 1e-18:
		r2 = 1.0
	}

	return &FittedModel{
		Parameters:  p,
		Date:        date,
		SSR:         c.ssr,
		R2:          r2,
		Residuals:   residuals,
		Compounding: comp,
	}
}
