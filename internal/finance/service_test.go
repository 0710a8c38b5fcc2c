package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type stubSource struct {
	payments      []Payment
	bookings      []Booking
	subscriptions []Subscription
	paymentsErr   error
	paymentCalls  int
	bookingCalls  int
	subCalls      int
}

func (s *stubSource) ListPayments(ctx context.Context) ([]Payment, error) {
	s.paymentCalls++
	return s.payments, s.paymentsErr
}

func (s *stubSource) ListBookings(ctx context.Context) ([]Booking, error) {
	s.bookingCalls++
	return s.bookings, nil
}

func (s *stubSource) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	s.subCalls++
	return s.subscriptions, nil
}

type recordedRun struct {
	op  string
	err error
}

type stubRecorder struct {
	runs []recordedRun
}

func (r *stubRecorder) ObserveAggregation(op string, _ time.Duration, err error) {
	r.runs = append(r.runs, recordedRun{op: op, err: err})
}

func newTestService(t *testing.T, source Source) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(source, NewCache(client, time.Minute), FixedClock(refNow)), mr
}

func TestOverviewCaches(t *testing.T) {
	source := &stubSource{payments: []Payment{pay("p1", 100, PaymentCompleted, &refNow)}}
	svc, _ := newTestService(t, source)
	ctx := context.Background()

	out, err := svc.Overview(ctx, OverviewRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.RevenueMetrics.TotalRevenue != 100 {
		t.Fatalf("expected revenue 100 got %.2f", out.RevenueMetrics.TotalRevenue)
	}
	if source.paymentCalls != 1 || source.bookingCalls != 1 || source.subCalls != 1 {
		t.Fatalf("expected one call per source, got %d/%d/%d", source.paymentCalls, source.bookingCalls, source.subCalls)
	}

	// Second call should hit cache.
	if _, err := svc.Overview(ctx, OverviewRequest{Months: DefaultChartMonths, Limit: DefaultTransactionLimit}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.paymentCalls != 1 {
		t.Fatalf("expected cached result, source called %d times", source.paymentCalls)
	}

	// Bumping the cache should trigger reload.
	if err := svc.InvalidateCache(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	source.payments = append(source.payments, pay("p2", 50, PaymentSuccess, &refNow))
	out, err = svc.Overview(ctx, OverviewRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.RevenueMetrics.TotalRevenue != 150 {
		t.Fatalf("expected refreshed revenue 150 got %.2f", out.RevenueMetrics.TotalRevenue)
	}
	if source.paymentCalls != 2 {
		t.Fatalf("expected source to refresh, calls %d", source.paymentCalls)
	}
}

func TestOverviewWithoutCache(t *testing.T) {
	source := &stubSource{}
	svc := NewService(source, nil, FixedClock(refNow))
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		out, err := svc.Overview(ctx, OverviewRequest{Period: "30d"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.ChartData) != 30 {
			t.Fatalf("expected 30 buckets got %d", len(out.ChartData))
		}
	}
	if source.paymentCalls != 2 {
		t.Fatalf("expected uncached loads, calls %d", source.paymentCalls)
	}
	if err := svc.InvalidateCache(ctx); err != nil {
		t.Fatalf("bump without cache should be a no-op: %v", err)
	}
}

func TestRefreshOverwritesCachedOverview(t *testing.T) {
	source := &stubSource{payments: []Payment{pay("p1", 100, PaymentCompleted, &refNow)}}
	svc, _ := newTestService(t, source)
	ctx := context.Background()

	if _, err := svc.Overview(ctx, OverviewRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	source.payments = append(source.payments, pay("p2", 20, PaymentCompleted, &refNow))
	refreshed, err := svc.Refresh(ctx, OverviewRequest{})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.RevenueMetrics.TotalRevenue != 120 {
		t.Fatalf("expected refreshed revenue 120 got %.2f", refreshed.RevenueMetrics.TotalRevenue)
	}
	out, err := svc.Overview(ctx, OverviewRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.RevenueMetrics.TotalRevenue != 120 {
		t.Fatalf("expected cache to hold refreshed overview, got %.2f", out.RevenueMetrics.TotalRevenue)
	}
	if source.paymentCalls != 2 {
		t.Fatalf("expected two source loads, got %d", source.paymentCalls)
	}
}

func TestOverviewSourceFailure(t *testing.T) {
	boom := errors.New("connection reset")
	source := &stubSource{paymentsErr: boom}
	svc, _ := newTestService(t, source)

	_, err := svc.Overview(context.Background(), OverviewRequest{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
	if _, err := svc.Chart(context.Background(), ChartRequest{Period: "7d"}); !errors.Is(err, boom) {
		t.Fatalf("expected chart to surface source error, got %v", err)
	}
}

func TestServiceRecordsAggregations(t *testing.T) {
	rec := &stubRecorder{}
	svc := NewService(&stubSource{}, nil, FixedClock(refNow)).WithRecorder(rec)
	ctx := context.Background()

	if _, err := svc.Overview(ctx, OverviewRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Chart(ctx, ChartRequest{Period: "2w"}); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}
	if len(rec.runs) != 2 {
		t.Fatalf("expected 2 recorded runs got %d", len(rec.runs))
	}
	if rec.runs[0].op != "overview" || rec.runs[0].err != nil {
		t.Fatalf("unexpected first run %#v", rec.runs[0])
	}
	if rec.runs[1].op != "chart" || rec.runs[1].err == nil {
		t.Fatalf("unexpected second run %#v", rec.runs[1])
	}
}

func TestTransactionsUsesSourceOrder(t *testing.T) {
	source := &stubSource{payments: []Payment{
		pay("b", 1, PaymentPending, nil),
		pay("a", 2, PaymentCompleted, nil),
	}}
	svc := NewService(source, nil, FixedClock(refNow))
	txs, err := svc.Transactions(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "b" {
		t.Fatalf("unexpected transactions %#v", txs)
	}
}

func TestParseOverviewWindow(t *testing.T) {
	cases := map[string]OverviewRequest{
		"30d":       {Period: "30d", Limit: DefaultTransactionLimit},
		" 1y ":      {Period: "1y", Limit: DefaultTransactionLimit},
		"months-12": {Months: 12, Limit: DefaultTransactionLimit},
	}
	for token, want := range cases {
		got, err := ParseOverviewWindow(token)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", token, err)
		}
		if got != want {
			t.Fatalf("%q: expected %#v got %#v", token, want, got)
		}
	}
	for _, token := range []string{"", "2w", "months-0", "months-x"} {
		if _, err := ParseOverviewWindow(token); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("%q: expected invalid period, got %v", token, err)
		}
	}
	if key := (OverviewRequest{}).Normalize().Key(); key != "months-6:limit-50" {
		t.Fatalf("unexpected default key %q", key)
	}
}

func TestCacheListensForBumps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := cache.Version(ctx); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if err := cache.ListenForInvalidation(ctx, ""); err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	if err := client.Publish(ctx, BumpChannel, "7").Err(); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ver, err := cache.Version(ctx)
		if err != nil {
			t.Fatalf("version failed: %v", err)
		}
		if ver == 7 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected version 7 after publish")
}

func TestCacheIgnoresStaleBumps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Set(ctx, cacheVersionKey, 9, 0).Err(); err != nil {
		t.Fatalf("seed version: %v", err)
	}
	if err := cache.ListenForInvalidation(ctx, ""); err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	// Messages apply in order: 12 raises, 7 is stale, the bare bump increments.
	for _, payload := range []string{"12", "7", "bump"} {
		if err := client.Publish(ctx, BumpChannel, payload).Err(); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	var ver int64
	for time.Now().Before(deadline) {
		got, err := client.Get(ctx, cacheVersionKey).Int64()
		if err != nil {
			t.Fatalf("version failed: %v", err)
		}
		ver = got
		if ver == 13 || ver == 8 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if ver != 13 {
		t.Fatalf("expected version 13 got %d", ver)
	}
}
