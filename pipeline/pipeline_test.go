package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/meenmo/curvekit/bond"
	"github.com/meenmo/curvekit/config"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func zeroQuote(id string, maturity time.Time, price float64) bond.Quote {
	return bond.Quote{
		ID:           id,
		CouponRate:   0,
		FaceValue:    100,
		Frequency:    1,
		IssueDate:    date(2025, 5, 15),
		MaturityDate: maturity,
		CleanPrice:   price,
	}
}

// ladder is five zero-coupon bonds spanning one to five years from the
// valuation date, enough knots to identify the curve model.
func ladder(valuation time.Time) []bond.Quote {
	prices := []float64{97.00, 93.50, 90.20, 87.10, 84.00}
	quotes := make([]bond.Quote, len(prices))
	for i, p := range prices {
		quotes[i] = zeroQuote(
			string(rune('A'+i)),
			valuation.AddDate(i+1, 0, 0),
			p,
		)
	}
	return quotes
}

func observedFor(quotes []bond.Quote) map[string]float64 {
	out := make(map[string]float64, len(quotes))
	for i, q := range quotes {
		out[q.ID] = 0.004 + 0.0005*float64(i)
	}
	return out
}

func TestRunMultiDate(t *testing.T) {
	t.Parallel()

	d1, d2 := date(2025, 6, 17), date(2025, 6, 18)
	q1, q2 := ladder(d1), ladder(d2)

	// The third date has too few curve points for the model fit and must
	// fail without touching the other dates.
	d3 := date(2025, 6, 19)
	q3 := []bond.Quote{
		zeroQuote("X", d3.AddDate(1, 0, 0), 97.0),
		zeroQuote("Y", d3.AddDate(2, 0, 0), 93.5),
	}

	eng, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := eng.Run(context.Background(), []DateSet{
		{Date: d3, Quotes: q3, Observed: map[string]float64{"X": 0.001, "Y": 0.002}},
		{Date: d1, Quotes: q1, Observed: observedFor(q1)},
		{Date: d2, Quotes: q2, Observed: observedFor(q2)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.RunID == "" {
		t.Error("empty RunID")
	}
	if len(report.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(report.Results))
	}
	if len(report.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(report.Failures))
	}
	if f := report.Failures[0]; !f.Date.Equal(d3) || f.Stage != "fit" {
		t.Errorf("failure = %+v, want date %s at stage fit", f, d3.Format("2006-01-02"))
	}

	// Results come back in date order regardless of input order.
	if !report.Results[0].Date.Equal(d1) || !report.Results[1].Date.Equal(d2) {
		t.Errorf("result dates = %v, %v", report.Results[0].Date, report.Results[1].Date)
	}

	for _, res := range report.Results {
		if res.Curve == nil || len(res.Curve.Points) != 5 {
			t.Fatalf("date %s: curve = %+v, want 5 knots", res.Date.Format("2006-01-02"), res.Curve)
		}
		if res.Model == nil {
			t.Fatalf("date %s: nil model", res.Date.Format("2006-01-02"))
		}
		if len(res.Components) != 5 {
			t.Errorf("date %s: %d components, want 5", res.Date.Format("2006-01-02"), len(res.Components))
		}
		for _, c := range res.Components {
			if got := c.Observed - c.Carry - c.RollDown - c.Excess; got != 0 {
				t.Errorf("bond %s: decomposition identity residual %v", c.BondID, got)
			}
		}
		if len(res.Yields) != 5 {
			t.Errorf("date %s: %d yields, want 5", res.Date.Format("2006-01-02"), len(res.Yields))
		}
		// The one-year zero's yield is pinned by its price.
		if got, want := res.Yields["A"], 100.0/97.0-1.0; math.Abs(got-want) > 1e-8 {
			t.Errorf("date %s: ytm(A) = %v, want %v", res.Date.Format("2006-01-02"), got, want)
		}
		if res.Regression == nil {
			t.Errorf("date %s: nil regression, errors: %v", res.Date.Format("2006-01-02"), res.Errors)
		} else if res.Regression.N != 5 {
			t.Errorf("date %s: regression N = %d, want 5", res.Date.Format("2006-01-02"), res.Regression.N)
		}
	}
}

func TestRunExcludesBadBond(t *testing.T) {
	t.Parallel()

	d := date(2025, 6, 17)
	quotes := ladder(d)
	bad := zeroQuote("BAD", d.AddDate(6, 0, 0), -5.0)
	quotes = append(quotes, bad)

	eng, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := eng.Run(context.Background(), []DateSet{
		{Date: d, Quotes: quotes, Observed: observedFor(quotes[:5])},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("failures = %+v, want none", report.Failures)
	}
	res := report.Results[0]
	if len(res.Errors) == 0 {
		t.Fatal("expected the bad bond recorded in Errors")
	}
	if len(res.Curve.Points) != 5 {
		t.Errorf("got %d knots, want 5 (bad bond excluded)", len(res.Curve.Points))
	}
}

func TestRunAllQuotesInvalid(t *testing.T) {
	t.Parallel()

	d := date(2025, 6, 17)
	bad := zeroQuote("B", d.AddDate(1, 0, 0), -1)

	eng, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := eng.Run(context.Background(), []DateSet{{Date: d, Quotes: []bond.Quote{bad}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failures) != 1 || report.Failures[0].Stage != "input" {
		t.Fatalf("failures = %+v, want one input failure", report.Failures)
	}
}

func TestRunEmptyInput(t *testing.T) {
	t.Parallel()

	eng, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := eng.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.CurveModel = "cubic-spline"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid config")
	}
}
