package finance

import "github.com/shopspring/decimal"

var (
	commissionRate      = decimal.NewFromFloat(CommissionRate)
	netShareRate        = decimal.NewFromInt(1).Sub(commissionRate)
	grossProfitRate     = decimal.NewFromFloat(GrossProfitRate)
	operationalCostRate = decimal.NewFromFloat(OperationalCostRate)
	hundred             = decimal.NewFromFloat(PercentageMultiplier)
)

// sumSuccessful adds up the amounts of successful payments. A nil window sums
// every successful payment regardless of timestamp.
func sumSuccessful(payments []Payment, w *Window) (decimal.Decimal, int) {
	total := decimal.Zero
	count := 0
	for _, p := range payments {
		if !p.IsSuccessful() {
			continue
		}
		if w != nil && !w.Contains(p.CreatedAt) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(amountOrZero(p.Amount)))
		count++
	}
	return total, count
}

// commission is the expense share of revenue in whole currency units.
func commission(revenue decimal.Decimal) decimal.Decimal {
	return revenue.Mul(commissionRate).Round(0)
}

// units rounds half-up to whole currency units.
func units(d decimal.Decimal) float64 {
	return d.Round(0).InexactFloat64()
}

// cents rounds half-up to two decimal places.
func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// oneDecimal rounds a percentage half-up to one decimal place.
func oneDecimal(d decimal.Decimal) float64 {
	return d.Round(1).InexactFloat64()
}
