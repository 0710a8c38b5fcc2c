package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueMetrics summarises recognised revenue from successful payments.
type RevenueMetrics struct {
	TotalRevenue            float64 `json:"total_revenue"`
	MonthlyRevenue          float64 `json:"monthly_revenue"`
	YearlyRevenue           float64 `json:"yearly_revenue"`
	RevenueGrowth           float64 `json:"revenue_growth"`
	AverageTransactionValue float64 `json:"average_transaction_value"`
}

// CalculateRevenueMetrics derives revenue totals relative to now.
func CalculateRevenueMetrics(payments []Payment, now time.Time) RevenueMetrics {
	total, count := sumSuccessful(payments, nil)
	month := CurrentMonth(now)
	year := CurrentYear(now)
	monthly, _ := sumSuccessful(payments, &month)
	yearly, _ := sumSuccessful(payments, &year)
	current, prior := periodSums(payments, now)

	// The denominator is floored at one rather than special-casing zero.
	divisor := decimal.NewFromInt(int64(max(count, 1)))

	return RevenueMetrics{
		TotalRevenue:            units(total),
		MonthlyRevenue:          units(monthly),
		YearlyRevenue:           units(yearly),
		RevenueGrowth:           oneDecimal(growth(current, prior, StandardZero)),
		AverageTransactionValue: cents(total.Div(divisor)),
	}
}
