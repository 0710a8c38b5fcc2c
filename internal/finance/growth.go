package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// ZeroPolicy decides the growth figure when the prior period is exactly zero.
type ZeroPolicy int

const (
	// StandardZero reports 0% growth against an empty prior period.
	StandardZero ZeroPolicy = iota
	// ProfitZero reports 100% growth when the current period is positive and
	// 0% otherwise.
	ProfitZero
)

// GrowthPercent returns the percentage change from prior to current. It is 0
// when either input is NaN or infinite.
func GrowthPercent(current, prior float64, policy ZeroPolicy) float64 {
	if !isFinite(current) || !isFinite(prior) {
		return 0
	}
	return growth(decimal.NewFromFloat(current), decimal.NewFromFloat(prior), policy).InexactFloat64()
}

func growth(current, prior decimal.Decimal, policy ZeroPolicy) decimal.Decimal {
	if prior.IsZero() {
		if policy == ProfitZero && current.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return current.Sub(prior).Div(prior).Mul(hundred)
}

// periodSums returns the successful payment totals for the current month and
// the comparison window.
func periodSums(payments []Payment, now time.Time) (current, prior decimal.Decimal) {
	cur := CurrentMonth(now)
	prev := PriorMonth(now)
	current, _ = sumSuccessful(payments, &cur)
	prior, _ = sumSuccessful(payments, &prev)
	return current, prior
}
