package finance

import (
	"fmt"
	"time"
)

// Input is the record snapshot handed to the Aggregator.
type Input struct {
	Bookings      []Booking
	Payments      []Payment
	Subscriptions []Subscription
}

// FinancialOverviewData is the complete payload behind the finance overview page.
type FinancialOverviewData struct {
	GeneratedAt         time.Time           `json:"generated_at"`
	RevenueMetrics      RevenueMetrics      `json:"revenue_metrics"`
	ExpenseMetrics      ExpenseMetrics      `json:"expense_metrics"`
	ProfitMetrics       ProfitMetrics       `json:"profit_metrics"`
	SubscriptionMetrics SubscriptionMetrics `json:"subscription_metrics"`
	BookingMetrics      BookingMetrics      `json:"booking_metrics"`
	ChartData           []ChartDataPoint    `json:"chart_data"`
	Transactions        []Transaction       `json:"transactions"`
}

// Options tune the chart window and the transaction list.
type Options struct {
	Chart ChartRequest
	Limit int
}

// Option mutates Options.
type Option func(*Options)

// WithPeriod switches the chart to daily buckets over a named period.
func WithPeriod(period string) Option {
	return func(o *Options) {
		o.Chart.Period = period
		o.Chart.Months = 0
	}
}

// WithMonths switches the chart to n monthly buckets.
func WithMonths(n int) Option {
	return func(o *Options) {
		o.Chart.Months = n
		o.Chart.Period = ""
	}
}

// WithSubscriptionMode overrides how chart buckets derive subscriptions.
func WithSubscriptionMode(mode SubscriptionMode) Option {
	return func(o *Options) { o.Chart.Mode = mode }
}

// WithTransactionLimit caps the projected transaction list.
func WithTransactionLimit(limit int) Option {
	return func(o *Options) { o.Limit = limit }
}

func defaultOptions() Options {
	return Options{
		Chart: ChartRequest{Months: DefaultChartMonths},
		Limit: DefaultTransactionLimit,
	}
}

// Aggregator composes the calculators into one overview.
type Aggregator struct {
	clock Clock
}

// NewAggregator builds an Aggregator. A nil clock falls back to SystemClock.
func NewAggregator(clock Clock) *Aggregator {
	if clock == nil {
		clock = SystemClock
	}
	return &Aggregator{clock: clock}
}

// CalculateFinancialMetrics runs the pipeline against the wall clock with the
// default chart window and transaction limit.
func CalculateFinancialMetrics(bookings []Booking, payments []Payment, subscriptions []Subscription) (FinancialOverviewData, error) {
	return NewAggregator(SystemClock).Calculate(Input{
		Bookings:      bookings,
		Payments:      payments,
		Subscriptions: subscriptions,
	})
}

// Calculate validates the records and runs every calculator once. Failures are
// returned as *AggregationError; no partial result is returned with an error.
func (a *Aggregator) Calculate(in Input, opts ...Option) (result FinancialOverviewData, err error) {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	op := "validate"
	defer func() {
		if r := recover(); r != nil {
			result = FinancialOverviewData{}
			err = &AggregationError{Op: op, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if verr := validateRecords(in); verr != nil {
		return FinancialOverviewData{}, &AggregationError{Op: op, Err: verr}
	}

	op = "clock"
	now := a.clock.Now()
	out := FinancialOverviewData{GeneratedAt: now}

	op = "revenue"
	out.RevenueMetrics = CalculateRevenueMetrics(in.Payments, now)
	op = "expenses"
	out.ExpenseMetrics = CalculateExpenseMetrics(in.Payments, now)
	op = "profit"
	out.ProfitMetrics = CalculateProfitMetrics(in.Payments, now)
	op = "subscriptions"
	out.SubscriptionMetrics = CalculateSubscriptionMetrics(in.Subscriptions, now)
	op = "bookings"
	out.BookingMetrics = CalculateBookingMetrics(in.Bookings, now)

	op = "chart"
	chart, err := GenerateChartData(in.Payments, options.Chart, now)
	if err != nil {
		return FinancialOverviewData{}, &AggregationError{Op: op, Err: err}
	}
	out.ChartData = chart

	op = "transactions"
	out.Transactions = ProjectTransactions(in.Payments, options.Limit)
	return out, nil
}
