package curve

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/curvekit/bond"
	"github.com/meenmo/curvekit/calendar"
	"github.com/meenmo/curvekit/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var settle = date(2025, 6, 17)

func zeroQuote(id string, maturity time.Time, price float64) bond.Quote {
	return bond.Quote{
		ID:             id,
		CouponRate:     0,
		FaceValue:      100,
		Frequency:      1,
		MaturityDate:   maturity,
		SettlementDate: settle,
		CleanPrice:     price,
		DayCount:       utils.ActAct,
	}
}

func noneBootstrapper() Bootstrapper {
	b := NewBootstrapper()
	b.Calendar = calendar.None
	return b
}

func TestBootstrapZeroCouponLadder(t *testing.T) {
	t.Parallel()

	quotes := []bond.Quote{
		zeroQuote("Z2", date(2027, 6, 17), 93.50),
		zeroQuote("Z1", date(2026, 6, 17), 97.00),
	}
	sc, err := noneBootstrapper().Bootstrap(settle, quotes)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(sc.Points) != 2 {
		t.Fatalf("got %d knots, want 2", len(sc.Points))
	}

	// Discount factors fall straight out of the prices.
	wantDF := []float64{0.97, 0.935}
	wantT := []float64{1.0, 2.0}
	wantZ := []float64{
		100.0/97.0 - 1.0,
		math.Pow(100.0/93.5, 0.5) - 1.0,
	}
	for i, p := range sc.Points {
		if math.Abs(p.Maturity-wantT[i]) > 1e-12 {
			t.Errorf("knot %d maturity = %v, want %v", i, p.Maturity, wantT[i])
		}
		if math.Abs(p.DiscountFactor-wantDF[i]) > 1e-12 {
			t.Errorf("knot %d DF = %v, want %v", i, p.DiscountFactor, wantDF[i])
		}
		if math.Abs(p.ZeroRate-wantZ[i]) > 1e-12 {
			t.Errorf("knot %d zero = %v, want %v", i, p.ZeroRate, wantZ[i])
		}
	}
	if math.Abs(sc.Points[0].ZeroRate-0.03092783) > 1e-6 {
		t.Errorf("1y zero = %v, want 0.03092783", sc.Points[0].ZeroRate)
	}
	if math.Abs(sc.Points[1].ZeroRate-0.0341754) > 1e-6 {
		t.Errorf("2y zero = %v, want 0.0341754", sc.Points[1].ZeroRate)
	}
}

func TestBootstrapCouponBondsRepriceExactly(t *testing.T) {
	t.Parallel()

	// The 2y semi-annual bond has an 18m coupon beyond the 1y knot,
	// forcing the root-find path instead of the closed-form division.
	oneYear := bond.Quote{
		ID: "A1", CouponRate: 0.03, FaceValue: 100, Frequency: 1,
		MaturityDate: date(2026, 6, 17), SettlementDate: settle,
		CleanPrice: 99.80, DayCount: utils.ActAct,
	}
	twoYear := bond.Quote{
		ID: "S2", CouponRate: 0.04, FaceValue: 100, Frequency: 2,
		MaturityDate: date(2027, 6, 17), SettlementDate: settle,
		CleanPrice: 100.50, DayCount: utils.ActAct,
	}

	b := noneBootstrapper()
	sc, err := b.Bootstrap(settle, []bond.Quote{oneYear, twoYear})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	for _, q := range []bond.Quote{oneYear, twoYear} {
		cfs, err := bond.Schedule(q, calendar.None)
		if err != nil {
			t.Fatalf("Schedule %s: %v", q.ID, err)
		}
		pv := bond.PV(cfs, settle, q.DayCount, sc)
		if diff := math.Abs(pv - q.DirtyPrice()); diff > 1e-6 {
			t.Errorf("bond %s reprices to %v, dirty %v (off by %v)", q.ID, pv, q.DirtyPrice(), diff)
		}
	}

	// Sanity on the curve shape.
	prev := 1.0
	for _, p := range sc.Points {
		if p.DiscountFactor <= 0 || p.DiscountFactor >= prev {
			t.Errorf("DF at %.2fy = %v, not positive and decreasing from %v", p.Maturity, p.DiscountFactor, prev)
		}
		prev = p.DiscountFactor
	}
}

func TestBootstrapAveragesDuplicateMaturities(t *testing.T) {
	t.Parallel()

	quotes := []bond.Quote{
		zeroQuote("D1", date(2026, 6, 17), 96.00),
		zeroQuote("D2", date(2026, 6, 17), 98.00),
	}
	sc, err := noneBootstrapper().Bootstrap(settle, quotes)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(sc.Points) != 1 {
		t.Fatalf("got %d knots, want 1 after merging", len(sc.Points))
	}
	if math.Abs(sc.Points[0].DiscountFactor-0.97) > 1e-12 {
		t.Errorf("merged DF = %v, want 0.97", sc.Points[0].DiscountFactor)
	}
}

func TestBootstrapNegativeImpliedDF(t *testing.T) {
	t.Parallel()

	// The 2y coupons already discounted off the 1y knot exceed the dirty
	// price, so the terminal discount factor would have to be negative.
	oneYear := zeroQuote("Z1", date(2026, 6, 17), 97.00)
	broken := bond.Quote{
		ID: "X2", CouponRate: 0.50, FaceValue: 100, Frequency: 1,
		MaturityDate: date(2027, 6, 17), SettlementDate: settle,
		CleanPrice: 10.0, DayCount: utils.ActAct,
	}
	_, err := noneBootstrapper().Bootstrap(settle, []bond.Quote{oneYear, broken})
	var berr *BootstrapError
	if !errors.As(err, &berr) {
		t.Fatalf("err = %v, want *BootstrapError", err)
	}
	if berr.BondID != "X2" {
		t.Errorf("BondID = %q, want X2", berr.BondID)
	}
}

func TestBootstrapUnbracketableRoot(t *testing.T) {
	t.Parallel()

	// No zero rate in the bracket can push a 2y bond's value to 300.
	oneYear := zeroQuote("Z1", date(2026, 6, 17), 97.00)
	rich := bond.Quote{
		ID: "R2", CouponRate: 0.04, FaceValue: 100, Frequency: 2,
		MaturityDate: date(2027, 6, 17), SettlementDate: settle,
		CleanPrice: 300.0, DayCount: utils.ActAct,
	}
	_, err := noneBootstrapper().Bootstrap(settle, []bond.Quote{oneYear, rich})
	var berr *BootstrapError
	if !errors.As(err, &berr) {
		t.Fatalf("err = %v, want *BootstrapError", err)
	}
}

func TestBootstrapRejectsEmptyAndInvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := noneBootstrapper().Bootstrap(settle, nil); err == nil {
		t.Error("expected error for empty quote set")
	}

	bad := zeroQuote("B", date(2026, 6, 17), 97.00)
	bad.CleanPrice = -1
	_, err := noneBootstrapper().Bootstrap(settle, []bond.Quote{bad})
	var derr *bond.DataError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *bond.DataError", err)
	}
}

func TestSpotCurveInterpolation(t *testing.T) {
	t.Parallel()

	sc := &SpotCurve{
		Settlement:    settle,
		Compounding:   Annual,
		Interpolation: LogLinearDiscount,
		Points: []Point{
			{Maturity: 1.0, ZeroRate: Annual.ZeroRate(0.97, 1.0), DiscountFactor: 0.97},
			{Maturity: 2.0, ZeroRate: Annual.ZeroRate(0.935, 2.0), DiscountFactor: 0.935},
		},
	}

	// Log-linear: the midpoint DF is the geometric mean of the knot DFs.
	want := math.Sqrt(0.97 * 0.935)
	if got := sc.DF(1.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("DF(1.5) = %v, want %v", got, want)
	}

	// Before the first knot it interpolates off DF(0)=1.
	want = math.Pow(0.97, 0.5)
	if got := sc.DF(0.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("DF(0.5) = %v, want %v", got, want)
	}
	if got := sc.DF(0); got != 1.0 {
		t.Errorf("DF(0) = %v, want 1", got)
	}

	// Beyond the last knot the final segment's forward is carried on.
	forward := math.Log(0.97/0.935) / 1.0
	want = 0.935 * math.Exp(-forward*1.0)
	if got := sc.DF(3.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("DF(3.0) = %v, want %v", got, want)
	}

	// Zero at a knot matches the stored rate.
	if got := sc.Zero(2.0); math.Abs(got-sc.Points[1].ZeroRate) > 1e-12 {
		t.Errorf("Zero(2.0) = %v, want %v", got, sc.Points[1].ZeroRate)
	}
}

func TestSpotCurveSample(t *testing.T) {
	t.Parallel()

	sc := &SpotCurve{
		Compounding:   Annual,
		Interpolation: LogLinearDiscount,
		Points: []Point{
			{Maturity: 1.0, ZeroRate: Annual.ZeroRate(0.97, 1.0), DiscountFactor: 0.97},
			{Maturity: 2.0, ZeroRate: Annual.ZeroRate(0.935, 2.0), DiscountFactor: 0.935},
		},
	}
	pts := sc.Sample([]float64{0, 0.5, 1.0, 1.5})
	if len(pts) != 3 {
		t.Fatalf("got %d sampled points, want 3 (non-positive tenors dropped)", len(pts))
	}
	for _, p := range pts {
		if math.Abs(p.DiscountFactor-sc.DF(p.Maturity)) > 1e-12 {
			t.Errorf("sample DF at %v = %v, curve says %v", p.Maturity, p.DiscountFactor, sc.DF(p.Maturity))
		}
		if math.Abs(p.ZeroRate-sc.Zero(p.Maturity)) > 1e-12 {
			t.Errorf("sample zero at %v = %v, curve says %v", p.Maturity, p.ZeroRate, sc.Zero(p.Maturity))
		}
	}
}

func TestSpotCurveLinearZeroRate(t *testing.T) {
	t.Parallel()

	sc := &SpotCurve{
		Compounding:   Annual,
		Interpolation: LinearZeroRate,
		Points: []Point{
			{Maturity: 1.0, ZeroRate: 0.03, DiscountFactor: Annual.DiscountFactor(0.03, 1.0)},
			{Maturity: 2.0, ZeroRate: 0.04, DiscountFactor: Annual.DiscountFactor(0.04, 2.0)},
		},
	}
	want := Annual.DiscountFactor(0.035, 1.5)
	if got := sc.DF(1.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("DF(1.5) = %v, want %v", got, want)
	}
	if got := sc.Zero(1.5); math.Abs(got-0.035) > 1e-12 {
		t.Errorf("Zero(1.5) = %v, want 0.035", got)
	}
}

func TestCompoundingRoundTrip(t *testing.T) {
	t.Parallel()

	for _, comp := range []Compounding{Annual, Semiannual, Continuous} {
		for _, z := range []float64{-0.01, 0.0, 0.025, 0.12} {
			df := comp.DiscountFactor(z, 3.25)
			if got := comp.ZeroRate(df, 3.25); math.Abs(got-z) > 1e-12 {
				t.Errorf("%s: zero round-trip %v -> %v", comp, z, got)
			}
		}
	}
}
