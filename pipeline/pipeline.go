// Package pipeline sequences the per-date computation — bootstrap, model
// fit, carry/roll-down, decomposition, cross-sectional regression — and
// assembles the multi-date report.
//
// Dates are independent: the run fans them out over a bounded worker
// group and merges immutable per-date results. Errors are best-effort:
// a failed bootstrap or fit aborts only its own date, and a bad bond
// excludes only that bond.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/curvekit/bond"
	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/config"
	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/logger"
	"github.com/meenmo/curvekit/nelson"
	"github.com/meenmo/curvekit/regress"
	"github.com/meenmo/curvekit/returns"
)

// maxBucketYears caps the on-the-run selection horizon.
const maxBucketYears = 30

// Engine runs the return-attribution pipeline under one configuration.
// Configuration is read-only after New; Engines are safe for concurrent
// Run calls.
type Engine struct {
	cfg *config.Config
	log *logger.Entry
}

// New builds an Engine; a nil config means config.Default().
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg: cfg,
		log: logger.Get().WithComponent("pipeline"),
	}, nil
}

// Run processes every DateSet and merges the per-date outcomes, ordered
// by date. It returns an error only for invalid input or context
// cancellation; per-date problems land in the report.
func (e *Engine) Run(ctx context.Context, sets []DateSet) (*Report, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("pipeline: no valuation dates supplied")
	}

	ordered := append([]DateSet(nil), sets...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	report := &Report{
		RunID:   uuid.New().String(),
		Started: time.Now().UTC(),
	}
	e.log.WithFields(logger.Fields{"run_id": report.RunID, "dates": len(ordered)}).
		Info("starting pipeline run")

	type outcome struct {
		result  *DateResult
		failure *Failure
	}
	outcomes := make([]outcome, len(ordered))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := range ordered {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, fail := e.runDate(ordered[i])
			outcomes[i] = outcome{result: res, failure: fail}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pipeline: run aborted: %w", err)
	}

	for _, o := range outcomes {
		if o.failure != nil {
			report.Failures = append(report.Failures, *o.failure)
			continue
		}
		report.Results = append(report.Results, *o.result)
	}
	report.Finished = time.Now().UTC()

	e.log.WithFields(logger.Fields{
		"run_id":   report.RunID,
		"results":  len(report.Results),
		"failures": len(report.Failures),
	}).Info("pipeline run finished")
	return report, nil
}

// runDate executes the full per-date sequence. The returned Failure is
// non-nil when bootstrap or fit aborted the date.
func (e *Engine) runDate(set DateSet) (*DateResult, *Failure) {
	log := e.log.WithField("date", set.Date.Format("2006-01-02"))
	result := &DateResult{Date: set.Date}

	// Per-bond validation: a malformed quote excludes that bond only.
	valid := make([]bond.Quote, 0, len(set.Quotes))
	for _, q := range set.Quotes {
		q.DayCount = e.cfg.DayCount
		if q.SettlementDate.IsZero() {
			q.SettlementDate = set.Date
		}
		if err := q.Validate(); err != nil {
			result.Errors = append(result.Errors, err.Error())
			log.WithError(err).Debug("excluding bond from date")
			continue
		}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil, &Failure{Date: set.Date, Stage: "input", Err: "no valid quotes"}
	}

	// Bootstrap the spot curve from the on-the-run subset.
	bootstrapper := curve.Bootstrapper{
		Compounding:   e.cfg.CurveCompounding(),
		Interpolation: e.cfg.CurveInterpolation(),
		Calendar:      calendar.USGov,
	}
	onTheRun := MostLiquidByBucket(valid, maxBucketYears)
	if len(onTheRun) == 0 {
		return nil, &Failure{Date: set.Date, Stage: "bootstrap", Err: "no bonds eligible for bootstrapping"}
	}
	spot, err := bootstrapper.Bootstrap(set.Date, onTheRun)
	if err != nil {
		log.WithError(err).Warn("bootstrap failed")
		return nil, &Failure{Date: set.Date, Stage: "bootstrap", Err: err.Error()}
	}
	result.Curve = spot

	// Fit the parametric model to the bootstrapped knots.
	model, err := nelson.Fit(set.Date, spot.Maturities(), spot.ZeroRates(), nelson.Options{
		Variant:     e.cfg.Variant(),
		LambdaGrid:  e.cfg.LambdaGrid,
		Ridge:       e.cfg.Ridge,
		Compounding: spot.Compounding,
	})
	if err != nil {
		log.WithError(err).Warn("curve model fit failed")
		return nil, &Failure{Date: set.Date, Stage: "fit", Err: err.Error()}
	}
	result.Model = model

	// Yield, carry, roll-down and decomposition per bond.
	horizon := returns.Horizon{Months: e.cfg.HoldingHorizonMonths}
	result.Yields = make(map[string]float64, len(valid))
	var observations []regress.Observation
	for _, q := range valid {
		cfs, err := bond.Schedule(q, bootstrapper.Calendar)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if ytm, err := bond.YieldToMaturity(q, cfs); err == nil {
			result.Yields[q.ID] = ytm
		} else {
			result.Errors = append(result.Errors, err.Error())
		}

		observed, ok := set.Observed[q.ID]
		if !ok {
			log.WithField("bond", q.ID).Debug("no observed return; skipping decomposition")
			continue
		}

		carry, err := returns.Carry(q, cfs, horizon)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		rolldown, err := returns.RollDown(model, q, cfs, horizon)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		comp := returns.Decompose(q.ID, observed, carry, rolldown)
		result.Components = append(result.Components, comp)
		observations = append(observations, regress.Observation{
			BondID:         q.ID,
			TimeToMaturity: q.TimeToMaturity(),
			Excess:         comp.Excess,
		})
	}

	// Cross-sectional regression; a singular date is reported, not fatal.
	reg, err := regress.CrossSection(set.Date, observations, model.Lambda1)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		log.WithError(err).Debug("cross-section omitted")
	} else {
		result.Regression = reg
	}

	return result, nil
}
