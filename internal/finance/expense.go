package finance

import "time"

// ExpenseMetrics reports platform expenses. Expenses are not drawn from a
// ledger; they are always the commission share of revenue.
type ExpenseMetrics struct {
	TotalExpenses    float64 `json:"total_expenses"`
	MonthlyExpenses  float64 `json:"monthly_expenses"`
	YearlyExpenses   float64 `json:"yearly_expenses"`
	OperationalCosts float64 `json:"operational_costs"`
	ExpenseGrowth    float64 `json:"expense_growth"`
}

// CalculateExpenseMetrics derives commission-based expenses relative to now.
func CalculateExpenseMetrics(payments []Payment, now time.Time) ExpenseMetrics {
	total, _ := sumSuccessful(payments, nil)
	month := CurrentMonth(now)
	year := CurrentYear(now)
	monthly, _ := sumSuccessful(payments, &month)
	yearly, _ := sumSuccessful(payments, &year)
	current, prior := periodSums(payments, now)

	monthlyExpenses := commission(monthly)

	return ExpenseMetrics{
		TotalExpenses:    units(commission(total)),
		MonthlyExpenses:  units(monthlyExpenses),
		YearlyExpenses:   units(commission(yearly)),
		OperationalCosts: units(monthlyExpenses.Mul(operationalCostRate)),
		ExpenseGrowth:    oneDecimal(growth(current.Mul(commissionRate), prior.Mul(commissionRate), StandardZero)),
	}
}
