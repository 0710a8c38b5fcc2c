package finance

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fixed rates applied by the metric calculators.
const (
	CommissionRate            = 0.25
	GrossProfitRate           = 0.85
	OperationalCostRate       = 0.60
	DefaultSubscriptionAmount = 100.0
	PercentageMultiplier      = 100.0
	SubscriptionProxyRatio    = 0.3
	DefaultChartMonths        = 6
	DefaultTransactionLimit   = 50
)

// Payment statuses.
const (
	PaymentCompleted = "completed"
	PaymentSuccess   = "success"
	PaymentPending   = "pending"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
	PaymentRefunded  = "refunded"
)

// Subscription and booking statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"

	BookingConfirmed = "confirmed"
	BookingPending   = "pending"
	BookingCancelled = "cancelled"
)

// Profile is the display subset of a user profile joined onto a payment.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// BookingRef is the booking reference joined onto a payment.
type BookingRef struct {
	ID       string     `json:"id"`
	CheckIn  *time.Time `json:"check_in,omitempty"`
	CheckOut *time.Time `json:"check_out,omitempty"`
}

// Payment is a snapshot of a payment record as supplied by the record source.
type Payment struct {
	ID          string      `json:"id" validate:"required"`
	Amount      *float64    `json:"amount,omitempty" validate:"omitempty,finite,gte=0"`
	Status      string      `json:"status" validate:"required"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
	PaymentType string      `json:"payment_type,omitempty"`
	Method      string      `json:"method,omitempty"`
	Reference   string      `json:"reference,omitempty"`
	Booking     *BookingRef `json:"booking,omitempty"`
	Payer       *Profile    `json:"payer,omitempty"`
	Payee       *Profile    `json:"payee,omitempty"`
}

// Booking is a snapshot of a booking record.
type Booking struct {
	ID          string     `json:"id" validate:"required"`
	TotalAmount *float64   `json:"total_amount,omitempty" validate:"omitempty,finite,gte=0"`
	Status      string     `json:"status" validate:"required"`
	CheckIn     *time.Time `json:"check_in,omitempty"`
	CheckOut    *time.Time `json:"check_out,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Subscription is a snapshot of a provider subscription record.
type Subscription struct {
	ID        string     `json:"id" validate:"required"`
	Status    string     `json:"status" validate:"required"`
	Amount    *float64   `json:"amount,omitempty" validate:"omitempty,finite,gte=0"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// normalizeStatus folds upstream casing and whitespace so "Completed " and
// "completed" compare equal.
func normalizeStatus(status string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(status))
}

// IsSuccessful reports whether the payment counts towards revenue.
func (p Payment) IsSuccessful() bool {
	switch normalizeStatus(p.Status) {
	case PaymentCompleted, PaymentSuccess:
		return true
	default:
		return false
	}
}

// IsActive reports whether the subscription is active.
func (s Subscription) IsActive() bool {
	return normalizeStatus(s.Status) == SubscriptionActive
}

// IsCancelled reports whether the subscription has been cancelled.
func (s Subscription) IsCancelled() bool {
	return normalizeStatus(s.Status) == SubscriptionCancelled
}

// amountOrZero treats a missing amount as zero. Non-finite amounts are
// rejected by validation; direct calculator calls count them as zero.
func amountOrZero(v *float64) float64 {
	if v == nil || !isFinite(*v) {
		return 0
	}
	return *v
}

func subscriptionAmount(v *float64) float64 {
	if v == nil {
		return DefaultSubscriptionAmount
	}
	if !isFinite(*v) {
		return 0
	}
	return *v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
