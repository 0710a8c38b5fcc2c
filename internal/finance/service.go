package finance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Source supplies record snapshots. The aggregation core never fetches on its own.
type Source interface {
	ListPayments(ctx context.Context) ([]Payment, error)
	ListBookings(ctx context.Context) ([]Booking, error)
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
}

// Recorder observes aggregation runs.
type Recorder interface {
	ObserveAggregation(op string, elapsed time.Duration, err error)
}

// OverviewRequest selects the chart window and transaction limit of an overview.
type OverviewRequest struct {
	Period string
	Months int
	Limit  int
}

// Normalize applies the default chart window and transaction limit.
func (r OverviewRequest) Normalize() OverviewRequest {
	if r.Period == "" && r.Months <= 0 {
		r.Months = DefaultChartMonths
	}
	if r.Limit <= 0 {
		r.Limit = DefaultTransactionLimit
	}
	return r
}

// Key is the stable identifier of a normalized request, e.g. "months-6:limit-50".
func (r OverviewRequest) Key() string {
	window := r.Period
	if window == "" {
		window = "months-" + strconv.Itoa(r.Months)
	}
	return window + ":limit-" + strconv.Itoa(r.Limit)
}

func (r OverviewRequest) options() []Option {
	opts := []Option{WithTransactionLimit(r.Limit)}
	if r.Period != "" {
		return append(opts, WithPeriod(r.Period))
	}
	return append(opts, WithMonths(r.Months))
}

// ParseOverviewWindow reads a window token such as "30d" or "months-12".
func ParseOverviewWindow(token string) (OverviewRequest, error) {
	token = strings.TrimSpace(token)
	if ValidPeriod(token) {
		return OverviewRequest{Period: token}.Normalize(), nil
	}
	if rest, ok := strings.CutPrefix(token, "months-"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n > 0 {
			return OverviewRequest{Months: n}.Normalize(), nil
		}
	}
	return OverviewRequest{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, token)
}

// Service loads records from a Source and serves aggregated overviews.
type Service struct {
	source     Source
	cache      *Cache
	clock      Clock
	aggregator *Aggregator
	recorder   Recorder
}

// NewService wires a Source with an optional Cache.
func NewService(source Source, cache *Cache, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{source: source, cache: cache, clock: clock, aggregator: NewAggregator(clock)}
}

// WithRecorder attaches an aggregation observer.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// Overview returns the aggregated overview, served from cache when possible.
func (s *Service) Overview(ctx context.Context, req OverviewRequest) (FinancialOverviewData, error) {
	req = req.Normalize()
	loader := func(ctx context.Context) (any, error) {
		return s.compute(ctx, req)
	}
	key, err := s.cache.BuildKey(ctx, keyOverview(req, s.clock.Now()))
	if err != nil {
		return FinancialOverviewData{}, err
	}
	var out FinancialOverviewData
	if err := s.cache.FetchJSON(ctx, key, &out, loader); err != nil {
		return FinancialOverviewData{}, err
	}
	return out, nil
}

// Refresh recomputes an overview and overwrites its cache entry.
func (s *Service) Refresh(ctx context.Context, req OverviewRequest) (FinancialOverviewData, error) {
	req = req.Normalize()
	out, err := s.compute(ctx, req)
	if err != nil {
		return FinancialOverviewData{}, err
	}
	key, err := s.cache.BuildKey(ctx, keyOverview(req, out.GeneratedAt))
	if err != nil {
		return FinancialOverviewData{}, err
	}
	if err := s.cache.StoreJSON(ctx, key, out); err != nil {
		return FinancialOverviewData{}, err
	}
	return out, nil
}

// Chart buckets the current payments without the rest of the overview.
func (s *Service) Chart(ctx context.Context, req ChartRequest) ([]ChartDataPoint, error) {
	payments, err := s.payments(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	points, err := GenerateChartData(payments, req, s.clock.Now())
	s.observe("chart", start, err)
	return points, err
}

// Transactions projects the first limit payments as supplied by the Source.
func (s *Service) Transactions(ctx context.Context, limit int) ([]Transaction, error) {
	payments, err := s.payments(ctx)
	if err != nil {
		return nil, err
	}
	return ProjectTransactions(payments, limit), nil
}

// InvalidateCache drops every cached overview.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) compute(ctx context.Context, req OverviewRequest) (FinancialOverviewData, error) {
	in, err := s.load(ctx)
	if err != nil {
		return FinancialOverviewData{}, err
	}
	start := time.Now()
	out, err := s.aggregator.Calculate(in, req.options()...)
	s.observe("overview", start, err)
	return out, err
}

func (s *Service) load(ctx context.Context) (Input, error) {
	if s.source == nil {
		return Input{}, errors.New("finance: source not configured")
	}
	var in Input
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		payments, err := s.source.ListPayments(ctx)
		if err != nil {
			return fmt.Errorf("finance: list payments: %w", err)
		}
		in.Payments = payments
		return nil
	})
	g.Go(func() error {
		bookings, err := s.source.ListBookings(ctx)
		if err != nil {
			return fmt.Errorf("finance: list bookings: %w", err)
		}
		in.Bookings = bookings
		return nil
	})
	g.Go(func() error {
		subs, err := s.source.ListSubscriptions(ctx)
		if err != nil {
			return fmt.Errorf("finance: list subscriptions: %w", err)
		}
		in.Subscriptions = subs
		return nil
	})
	if err := g.Wait(); err != nil {
		return Input{}, err
	}
	return in, nil
}

func (s *Service) payments(ctx context.Context) ([]Payment, error) {
	if s.source == nil {
		return nil, errors.New("finance: source not configured")
	}
	payments, err := s.source.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("finance: list payments: %w", err)
	}
	return payments, nil
}

func (s *Service) observe(op string, start time.Time, err error) {
	if s.recorder != nil {
		s.recorder.ObserveAggregation(op, time.Since(start), err)
	}
}
