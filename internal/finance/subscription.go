package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionMetrics summarises provider subscriptions.
type SubscriptionMetrics struct {
	ActiveSubscriptions      int     `json:"active_subscriptions"`
	TotalSubscriptionRevenue float64 `json:"total_subscription_revenue"`
	AverageSubscriptionValue float64 `json:"average_subscription_value"`
	NewSubscriptions         int     `json:"new_subscriptions"`
	ChurnRate                float64 `json:"churn_rate"`
}

// CalculateSubscriptionMetrics derives subscription counts and revenue.
// Subscriptions without an amount are valued at DefaultSubscriptionAmount.
func CalculateSubscriptionMetrics(subscriptions []Subscription, now time.Time) SubscriptionMetrics {
	monthStart := startOfMonth(now)
	revenue := decimal.Zero
	var active, cancelled, fresh int
	for _, s := range subscriptions {
		switch {
		case s.IsActive():
			active++
			revenue = revenue.Add(decimal.NewFromFloat(subscriptionAmount(s.Amount)))
			if s.CreatedAt != nil && !s.CreatedAt.Before(monthStart) {
				fresh++
			}
		case s.IsCancelled():
			cancelled++
		}
	}

	metrics := SubscriptionMetrics{
		ActiveSubscriptions:      active,
		TotalSubscriptionRevenue: units(revenue),
		NewSubscriptions:         fresh,
	}
	if active > 0 {
		metrics.AverageSubscriptionValue = cents(revenue.Div(decimal.NewFromInt(int64(active))))
	}
	if population := active + cancelled; population > 0 {
		churn := decimal.NewFromInt(int64(cancelled)).Div(decimal.NewFromInt(int64(population))).Mul(hundred)
		metrics.ChurnRate = oneDecimal(churn)
	}
	return metrics
}
