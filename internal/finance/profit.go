package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfitMetrics reports platform profitability.
type ProfitMetrics struct {
	NetProfit     float64 `json:"net_profit"`
	GrossProfit   float64 `json:"gross_profit"`
	ProfitMargin  float64 `json:"profit_margin"`
	MonthlyProfit float64 `json:"monthly_profit"`
	ProfitGrowth  float64 `json:"profit_growth"`
}

// CalculateProfitMetrics derives profit figures relative to now. Net and
// monthly profit subtract the same rounded expenses CalculateExpenseMetrics
// reports. GrossProfit is a fixed ratio of revenue, independent of expenses.
func CalculateProfitMetrics(payments []Payment, now time.Time) ProfitMetrics {
	total, _ := sumSuccessful(payments, nil)
	month := CurrentMonth(now)
	monthly, _ := sumSuccessful(payments, &month)
	current, prior := periodSums(payments, now)

	net := total.Sub(commission(total))
	margin := decimal.Zero
	if !total.IsZero() {
		margin = net.Div(total).Mul(hundred)
	}

	return ProfitMetrics{
		NetProfit:     units(net),
		GrossProfit:   units(total.Mul(grossProfitRate)),
		ProfitMargin:  oneDecimal(margin),
		MonthlyProfit: units(monthly.Sub(commission(monthly))),
		ProfitGrowth:  oneDecimal(growth(current.Mul(netShareRate), prior.Mul(netShareRate), ProfitZero)),
	}
}
