package engine

import "floatbt/internal/domain"

// Strategy constants for the volatility overlay: yield per day is
// (activeTotal / overlayDivisor) * (1 + vol * overlayScale).
const (
	overlayDivisor = 1000.0
	overlayScale   = 10.0
)

// Accrual describes how live float earns yield each day.
type Accrual struct {
	AnnualBondRate float64
	AnnualCashRate float64
	BondShare      float64 // fraction of each position held in bonds; the rest is cash
	Overlay        bool    // add the volatility overlay yield
}

// DefaultAccrual returns the 75/25 bond/cash split at 5.5% and 3.75% with the
// overlay enabled.
func DefaultAccrual() Accrual {
	return Accrual{
		AnnualBondRate: 0.055,
		AnnualCashRate: 0.0375,
		BondShare:      0.75,
		Overlay:        true,
	}
}

// ZeroAccrual earns nothing. Useful to isolate ledger behaviour.
func ZeroAccrual() Accrual {
	return Accrual{BondShare: 0.75}
}

// DailyYield returns the day's profit and the total live float. The base
// accrual is summed per position; the overlay is applied once on the total.
func (a Accrual) DailyYield(active []domain.FloatPosition, volMultiplier float64) (profit, activeTotal float64) {
	dailyBond := a.AnnualBondRate / 365
	dailyCash := a.AnnualCashRate / 365

	for _, p := range active {
		bond := p.Amount * a.BondShare
		cash := p.Amount * (1 - a.BondShare)
		profit += bond*dailyBond + cash*dailyCash
		activeTotal += p.Amount
	}

	if a.Overlay {
		profit += (activeTotal / overlayDivisor) * (1 + volMultiplier*overlayScale)
	}
	return profit, activeTotal
}
