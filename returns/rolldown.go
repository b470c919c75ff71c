package returns

import (
	"github.com/meenmo/curvekit/bond"
	"github.com/meenmo/curvekit/nelson"
)

// RollDown computes the return from the bond sliding down an unchanged
// curve: the fitted model is frozen, only the bond's remaining maturity
// shortens by the horizon. Both prices are model prices, so the pure
// slide is isolated from today's market/model basis.
//
// RollDown = cleanPrice(model, settlement+h) / cleanPrice(model, settlement) − 1.
func RollDown(model *nelson.FittedModel, q bond.Quote, cfs []bond.Cashflow, h Horizon) (float64, error) {
	if model == nil {
		return 0, &bond.DataError{BondID: q.ID, Reason: "fitted curve model is required"}
	}
	if err := q.Validate(); err != nil {
		return 0, err
	}
	end := h.End(q.SettlementDate)
	if !end.Before(q.MaturityDate) {
		return 0, &bond.DataError{
			BondID: q.ID,
			Reason: "holding horizon reaches maturity; no remaining cashflows to reprice",
		}
	}

	priceNow := bond.CleanPrice(q, cfs, q.SettlementDate, model)
	if priceNow <= 0 {
		return 0, &bond.DataError{BondID: q.ID, Reason: "model clean price at settlement is not positive"}
	}
	priceFwd := bond.CleanPrice(q, cfs, end, model)

	return priceFwd/priceNow - 1.0, nil
}
