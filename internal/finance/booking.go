package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingMetrics is the booking context shown next to the payment metrics.
// Bookings never feed revenue; payments are the source of truth for that.
type BookingMetrics struct {
	TotalBookings     int     `json:"total_bookings"`
	ConfirmedBookings int     `json:"confirmed_bookings"`
	PendingBookings   int     `json:"pending_bookings"`
	CancelledBookings int     `json:"cancelled_bookings"`
	MonthlyBookings   int     `json:"monthly_bookings"`
	TotalBookingValue float64 `json:"total_booking_value"`
	AverageStayNights float64 `json:"average_stay_nights"`
}

// CalculateBookingMetrics counts bookings by status and sizes the booked value.
func CalculateBookingMetrics(bookings []Booking, now time.Time) BookingMetrics {
	month := CurrentMonth(now)
	value := decimal.Zero
	nights := decimal.Zero
	stays := 0
	metrics := BookingMetrics{TotalBookings: len(bookings)}
	for _, b := range bookings {
		status := normalizeStatus(b.Status)
		switch status {
		case BookingConfirmed:
			metrics.ConfirmedBookings++
		case BookingPending:
			metrics.PendingBookings++
		case BookingCancelled:
			metrics.CancelledBookings++
		}
		if month.Contains(b.CreatedAt) {
			metrics.MonthlyBookings++
		}
		if status == BookingCancelled {
			continue
		}
		value = value.Add(decimal.NewFromFloat(amountOrZero(b.TotalAmount)))
		if b.CheckIn != nil && b.CheckOut != nil && b.CheckOut.After(*b.CheckIn) {
			hours := b.CheckOut.Sub(*b.CheckIn).Hours()
			nights = nights.Add(decimal.NewFromFloat(hours / 24))
			stays++
		}
	}
	metrics.TotalBookingValue = units(value)
	if stays > 0 {
		metrics.AverageStayNights = oneDecimal(nights.Div(decimal.NewFromInt(int64(stays))))
	}
	return metrics
}
