package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Named day-count periods accepted by the daily chart.
var chartPeriods = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
	"1y":  365,
}

// ValidPeriod reports whether period is a known daily chart period.
func ValidPeriod(period string) bool {
	_, ok := chartPeriods[period]
	return ok
}

// SubscriptionMode selects how a bucket's subscription figure is derived.
type SubscriptionMode int

const (
	// SubscriptionsDefault counts payments for daily buckets and uses the
	// proxy for monthly buckets.
	SubscriptionsDefault SubscriptionMode = iota
	// SubscriptionsCount uses the number of successful payments in the bucket.
	SubscriptionsCount
	// SubscriptionsProxy uses floor(count * SubscriptionProxyRatio). It is an
	// approximation, not a join against subscription records.
	SubscriptionsProxy
)

// ChartRequest selects the bucketing. Exactly one of Period or Months is set.
type ChartRequest struct {
	Period string
	Months int
	Mode   SubscriptionMode
}

// ChartDataPoint is one bucket of the chart series.
type ChartDataPoint struct {
	Label         string    `json:"label"`
	Start         time.Time `json:"start"`
	Revenue       float64   `json:"revenue"`
	Expenses      float64   `json:"expenses"`
	Profit        float64   `json:"profit"`
	Subscriptions int       `json:"subscriptions"`
}

type bucket struct {
	label   string
	start   time.Time
	revenue decimal.Decimal
	count   int64
}

var proxyRatio = decimal.NewFromFloat(SubscriptionProxyRatio)

const (
	dayLayout   = "2006-01-02"
	monthKey    = "2006-01"
	monthLayout = "Jan 2006"
)

// GenerateChartData buckets successful payments by day or calendar month,
// oldest bucket first. Every bucket is emitted even when it is empty.
func GenerateChartData(payments []Payment, req ChartRequest, now time.Time) ([]ChartDataPoint, error) {
	if req.Period != "" && req.Months != 0 {
		return nil, fmt.Errorf("%w: period and months are mutually exclusive", ErrInvalidPeriod)
	}

	var (
		buckets []bucket
		keyFmt  string
		mode    = req.Mode
	)
	switch {
	case req.Period != "":
		days, ok := chartPeriods[req.Period]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, req.Period)
		}
		today := startOfDay(now)
		buckets = make([]bucket, 0, days)
		for i := days - 1; i >= 0; i-- {
			day := today.AddDate(0, 0, -i)
			buckets = append(buckets, bucket{label: day.Format(dayLayout), start: day})
		}
		keyFmt = dayLayout
		if mode == SubscriptionsDefault {
			mode = SubscriptionsCount
		}
	case req.Months > 0:
		month := startOfMonth(now)
		buckets = make([]bucket, 0, req.Months)
		for i := req.Months - 1; i >= 0; i-- {
			start := month.AddDate(0, -i, 0)
			buckets = append(buckets, bucket{label: start.Format(monthLayout), start: start})
		}
		keyFmt = monthKey
		if mode == SubscriptionsDefault {
			mode = SubscriptionsProxy
		}
	default:
		return nil, fmt.Errorf("%w: months must be positive", ErrInvalidPeriod)
	}

	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		index[b.start.Format(keyFmt)] = i
	}
	loc := now.Location()
	for _, p := range payments {
		if p.CreatedAt == nil || !p.IsSuccessful() {
			continue
		}
		i, ok := index[p.CreatedAt.In(loc).Format(keyFmt)]
		if !ok {
			continue
		}
		buckets[i].revenue = buckets[i].revenue.Add(decimal.NewFromFloat(amountOrZero(p.Amount)))
		buckets[i].count++
	}

	points := make([]ChartDataPoint, 0, len(buckets))
	for _, b := range buckets {
		revenue := b.revenue.Round(2)
		expenses := commission(revenue)
		subs := b.count
		if mode == SubscriptionsProxy {
			subs = decimal.NewFromInt(b.count).Mul(proxyRatio).Floor().IntPart()
		}
		points = append(points, ChartDataPoint{
			Label:         b.label,
			Start:         b.start,
			Revenue:       revenue.InexactFloat64(),
			Expenses:      expenses.InexactFloat64(),
			Profit:        revenue.Sub(expenses).InexactFloat64(),
			Subscriptions: int(subs),
		})
	}
	return points, nil
}
