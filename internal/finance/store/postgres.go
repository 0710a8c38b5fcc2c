package store

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/havenly/havenly-admin/internal/finance"
)

// Schema creates the tables read and written by this package.
//
//go:embed schema.sql
var Schema string

// Store reads marketplace records and persists overview snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store on top of pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies Schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("finance/store: migrate: %w", err)
	}
	return nil
}

const listPaymentsSQL = `
SELECT p.id, p.amount::float8, p.status, p.payment_type, p.method, p.reference, p.created_at,
       b.id, b.check_in, b.check_out,
       payer.id, payer.first_name, payer.last_name, payer.email,
       payee.id, payee.first_name, payee.last_name, payee.email
FROM payments p
LEFT JOIN bookings b ON b.id = p.booking_id
LEFT JOIN profiles payer ON payer.id = p.payer_id
LEFT JOIN profiles payee ON payee.id = p.payee_id
ORDER BY p.created_at DESC NULLS LAST, p.id`

// ListPayments returns every payment, newest first, with its booking and
// both parties joined in.
func (s *Store) ListPayments(ctx context.Context) ([]finance.Payment, error) {
	rows, err := s.pool.Query(ctx, listPaymentsSQL)
	if err != nil {
		return nil, fmt.Errorf("finance/store: query payments: %w", err)
	}
	defer rows.Close()

	var payments []finance.Payment
	for rows.Next() {
		var (
			p                              finance.Payment
			status                         string
			paymentType, method, reference *string
			bookingID                      *string
			checkIn, checkOut              *time.Time
			payer, payee                   profileColumns
		)
		if err := rows.Scan(
			&p.ID, &p.Amount, &status, &paymentType, &method, &reference, &p.CreatedAt,
			&bookingID, &checkIn, &checkOut,
			&payer.id, &payer.first, &payer.last, &payer.email,
			&payee.id, &payee.first, &payee.last, &payee.email,
		); err != nil {
			return nil, fmt.Errorf("finance/store: scan payment: %w", err)
		}
		p.Status = status
		p.PaymentType = deref(paymentType)
		p.Method = deref(method)
		p.Reference = deref(reference)
		if bookingID != nil {
			p.Booking = &finance.BookingRef{ID: *bookingID, CheckIn: checkIn, CheckOut: checkOut}
		}
		p.Payer = payer.profile()
		p.Payee = payee.profile()
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finance/store: iterate payments: %w", err)
	}
	return payments, nil
}

// ListBookings returns every booking.
func (s *Store) ListBookings(ctx context.Context) ([]finance.Booking, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, total_amount::float8, status, check_in, check_out, created_at FROM bookings ORDER BY created_at DESC NULLS LAST, id`)
	if err != nil {
		return nil, fmt.Errorf("finance/store: query bookings: %w", err)
	}
	return collectBookings(rows)
}

// ListSubscriptions returns every provider subscription.
func (s *Store) ListSubscriptions(ctx context.Context) ([]finance.Subscription, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, status, amount::float8, created_at FROM provider_subscriptions ORDER BY created_at DESC NULLS LAST, id`)
	if err != nil {
		return nil, fmt.Errorf("finance/store: query subscriptions: %w", err)
	}
	return collectSubscriptions(rows)
}

func collectBookings(rows pgx.Rows) ([]finance.Booking, error) {
	bookings, err := pgx.CollectRows(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("finance/store: scan bookings: %w", err)
	}
	return bookings, nil
}

func collectSubscriptions(rows pgx.Rows) ([]finance.Subscription, error) {
	subs, err := pgx.CollectRows(rows, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("finance/store: scan subscriptions: %w", err)
	}
	return subs, nil
}

func scanBooking(row pgx.CollectableRow) (finance.Booking, error) {
	var b finance.Booking
	err := row.Scan(&b.ID, &b.TotalAmount, &b.Status, &b.CheckIn, &b.CheckOut, &b.CreatedAt)
	return b, err
}

func scanSubscription(row pgx.CollectableRow) (finance.Subscription, error) {
	var sub finance.Subscription
	err := row.Scan(&sub.ID, &sub.Status, &sub.Amount, &sub.CreatedAt)
	return sub, err
}

type profileColumns struct {
	id, first, last, email *string
}

// profile returns nil when the LEFT JOIN found no row.
func (c profileColumns) profile() *finance.Profile {
	if c.id == nil {
		return nil
	}
	return &finance.Profile{
		ID:        *c.id,
		FirstName: strings.TrimSpace(deref(c.first)),
		LastName:  strings.TrimSpace(deref(c.last)),
		Email:     deref(c.email),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ finance.Source = (*Store)(nil)
