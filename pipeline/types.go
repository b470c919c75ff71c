package pipeline

import (
	"time"

	"github.com/meenmo/curvekit/bond"
	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/nelson"
	"github.com/meenmo/curvekit/regress"
	"github.com/meenmo/curvekit/returns"
)

// DateSet is the pipeline input for one valuation date: the cleaned bond
// quotes and the externally observed total returns keyed by bond ID.
type DateSet struct {
	Date     time.Time
	Quotes   []bond.Quote
	Observed map[string]float64
}

// DateResult is the immutable output of one date's computation. A date
// that failed at bootstrap or fit produces a Failure instead.
type DateResult struct {
	Date       time.Time
	Curve      *curve.SpotCurve
	Model      *nelson.FittedModel
	// Yields holds each bond's solved yield to maturity, keyed by ID.
	Yields     map[string]float64
	Components []returns.Components
	// Regression is nil when the date's cross-section was singular or a
	// prior stage failed; see Errors.
	Regression *regress.Result
	// Errors lists the per-bond and per-stage problems that excluded
	// bonds or downstream outputs without failing the date.
	Errors []string
}

// Failure records a date whose bootstrap or fit aborted the date's
// downstream computations. Other dates are unaffected.
type Failure struct {
	Date  time.Time
	Stage string
	Err   string
}

// Report is the merged outcome of a multi-date run.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []DateResult
	Failures []Failure
}
