package returns

// Components is the additive per-bond per-period return decomposition.
// All four values are measured over the identical horizon and day-count
// basis; mixing bases is a caller error.
type Components struct {
	BondID   string
	Observed float64
	Carry    float64
	RollDown float64
	// Excess is the residual: Observed − Carry − RollDown. It is the
	// portion attributable to curve-shape changes or mispricing.
	Excess float64
}

// Decompose forms the excess-return residual. The identity
// Observed − Carry − RollDown − Excess == 0 holds by construction.
func Decompose(bondID string, observed, carry, rolldown float64) Components {
	return Components{
		BondID:   bondID,
		Observed: observed,
		Carry:    carry,
		RollDown: rolldown,
		Excess:   observed - carry - rolldown,
	}
}
