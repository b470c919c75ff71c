// Command curverun runs the curve-construction and return-attribution
// pipeline over a JSON bond quote panel.
//
// Usage:
//
//	curverun -input panel.json [-config config.yaml] [-output report.json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/meenmo/curvekit/bond"
	"github.com/meenmo/curvekit/config"
	"github.com/meenmo/curvekit/logger"
	"github.com/meenmo/curvekit/pipeline"
	"github.com/meenmo/curvekit/utils"
)

type panelInput struct {
	Dates []dateInput `json:"dates"`
}

type dateInput struct {
	Date            string             `json:"date"`
	Quotes          []quoteJSON        `json:"quotes"`
	ObservedReturns map[string]float64 `json:"observed_returns"`
}

type quoteJSON struct {
	ID string `json:"id"`
	// Coupon is the annual coupon in percent (e.g. 2.5 for 2.5%).
	Coupon          float64 `json:"coupon"`
	FaceValue       float64 `json:"face_value"`
	Frequency       int     `json:"frequency"`
	IssueDate       string  `json:"issue_date,omitempty"`
	MaturityDate    string  `json:"maturity_date"`
	CleanPrice      float64 `json:"clean_price"`
	AccruedInterest float64 `json:"accrued_interest"`
}

type reportOutput struct {
	RunID    string             `json:"run_id"`
	Results  []dateResultOutput `json:"results"`
	Failures []failureOutput    `json:"failures,omitempty"`
}

type dateResultOutput struct {
	Date       string             `json:"date"`
	Curve      []curvePointOutput `json:"curve"`
	Model      modelOutput        `json:"model"`
	Yields     map[string]float64 `json:"yields,omitempty"`
	Components []componentOutput  `json:"components,omitempty"`
	Regression *regressionOutput  `json:"regression,omitempty"`
	Errors     []string           `json:"errors,omitempty"`
}

type curvePointOutput struct {
	Maturity       float64 `json:"maturity"`
	ZeroRate       float64 `json:"zero_rate"`
	DiscountFactor float64 `json:"discount_factor"`
}

type modelOutput struct {
	Variant string  `json:"variant"`
	Beta0   float64 `json:"beta0"`
	Beta1   float64 `json:"beta1"`
	Beta2   float64 `json:"beta2"`
	Beta3   float64 `json:"beta3,omitempty"`
	Lambda1 float64 `json:"lambda1"`
	Lambda2 float64 `json:"lambda2,omitempty"`
	SSR     float64 `json:"ssr"`
	R2      float64 `json:"r2"`
}

type componentOutput struct {
	BondID   string  `json:"bond_id"`
	Observed float64 `json:"observed"`
	Carry    float64 `json:"carry"`
	RollDown float64 `json:"rolldown"`
	Excess   float64 `json:"excess"`
}

type regressionOutput struct {
	Alpha     float64 `json:"alpha"`
	Slope     float64 `json:"slope"`
	Curvature float64 `json:"curvature"`
	R2        float64 `json:"r2"`
	N         int     `json:"n"`
}

type failureOutput struct {
	Date  string `json:"date"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

func main() {
	inputPath := flag.String("input", "", "JSON panel path (reads stdin if omitted)")
	configPath := flag.String("config", "", "YAML config path (defaults if omitted)")
	outputPath := flag.String("output", "", "report path (stdout if omitted)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage: curverun -input <panel.json> [-config <config.yaml>] [-output <report.json>]")
		fmt.Fprintln(os.Stderr, "Bootstrap spot curves, fit NS/NSS models and decompose bond returns.")
		return
	}

	_ = godotenv.Load()
	log := logger.Get().WithComponent("curverun")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.WithError(err).Fatal("load config")
		}
		cfg = loaded
	}
	if cfg.Log.Level != "" {
		logger.Get().SetLevel(cfg.Log.Level)
	}
	if cfg.Log.File != "" {
		logger.Get().SetFile(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	}

	raw, err := readInput(*inputPath)
	if err != nil {
		log.WithError(err).Fatal("read input")
	}
	sets, err := parsePanel(raw)
	if err != nil {
		log.WithError(err).Fatal("parse panel")
	}

	engine, err := pipeline.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("build engine")
	}
	report, err := engine.Run(context.Background(), sets)
	if err != nil {
		log.WithError(err).Fatal("run pipeline")
	}

	out := renderReport(report)
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("marshal report")
	}
	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, b, 0o644); err != nil {
			log.WithError(err).Fatal("write report")
		}
		return
	}
	fmt.Println(string(b))
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

func parsePanel(raw []byte) ([]pipeline.DateSet, error) {
	var panel panelInput
	if err := json.Unmarshal(raw, &panel); err != nil {
		return nil, fmt.Errorf("invalid panel JSON: %w", err)
	}
	if len(panel.Dates) == 0 {
		return nil, fmt.Errorf("panel has no dates")
	}

	sets := make([]pipeline.DateSet, 0, len(panel.Dates))
	for _, d := range panel.Dates {
		date, err := utils.ParseDate(d.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", d.Date, err)
		}
		set := pipeline.DateSet{Date: date, Observed: d.ObservedReturns}
		for _, q := range d.Quotes {
			maturity, err := utils.ParseDate(q.MaturityDate)
			if err != nil {
				return nil, fmt.Errorf("bond %s: invalid maturity_date %q: %w", q.ID, q.MaturityDate, err)
			}
			quote := bond.Quote{
				ID:              q.ID,
				CouponRate:      q.Coupon / 100.0,
				FaceValue:       q.FaceValue,
				Frequency:       q.Frequency,
				MaturityDate:    maturity,
				SettlementDate:  date,
				CleanPrice:      q.CleanPrice,
				AccruedInterest: q.AccruedInterest,
			}
			if q.IssueDate != "" {
				issue, err := utils.ParseDate(q.IssueDate)
				if err != nil {
					return nil, fmt.Errorf("bond %s: invalid issue_date %q: %w", q.ID, q.IssueDate, err)
				}
				quote.IssueDate = issue
			}
			set.Quotes = append(set.Quotes, quote)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func renderReport(report *pipeline.Report) reportOutput {
	out := reportOutput{RunID: report.RunID}
	for _, r := range report.Results {
		dr := dateResultOutput{
			Date:   r.Date.Format("2006-01-02"),
			Yields: r.Yields,
			Errors: r.Errors,
		}
		for _, p := range r.Curve.Points {
			dr.Curve = append(dr.Curve, curvePointOutput{
				Maturity:       p.Maturity,
				ZeroRate:       p.ZeroRate,
				DiscountFactor: p.DiscountFactor,
			})
		}
		dr.Model = modelOutput{
			Variant: string(r.Model.Variant),
			Beta0:   r.Model.Beta0,
			Beta1:   r.Model.Beta1,
			Beta2:   r.Model.Beta2,
			Beta3:   r.Model.Beta3,
			Lambda1: r.Model.Lambda1,
			Lambda2: r.Model.Lambda2,
			SSR:     r.Model.SSR,
			R2:      r.Model.R2,
		}
		for _, c := range r.Components {
			dr.Components = append(dr.Components, componentOutput{
				BondID:   c.BondID,
				Observed: c.Observed,
				Carry:    c.Carry,
				RollDown: c.RollDown,
				Excess:   c.Excess,
			})
		}
		if r.Regression != nil {
			dr.Regression = &regressionOutput{
				Alpha:     r.Regression.Alpha,
				Slope:     r.Regression.Slope,
				Curvature: r.Regression.Curvature,
				R2:        r.Regression.R2,
				N:         r.Regression.N,
			}
		}
		out.Results = append(out.Results, dr)
	}
	for _, f := range report.Failures {
		out.Failures = append(out.Failures, failureOutput{
			Date:  f.Date.Format("2006-01-02"),
			Stage: f.Stage,
			Error: f.Err,
		})
	}
	return out
}
