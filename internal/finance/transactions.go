package finance

import (
	"fmt"
	"strings"
	"time"
)

const unknownUser = "Unknown User"

// Party is the display identity of a transaction participant.
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Transaction is a payment shaped for the transactions table.
type Transaction struct {
	ID            string      `json:"id"`
	TransactionID string      `json:"transaction_id"`
	Amount        float64     `json:"amount"`
	Status        string      `json:"status"`
	Method        string      `json:"method,omitempty"`
	PaymentType   string      `json:"payment_type,omitempty"`
	CreatedAt     *time.Time  `json:"created_at,omitempty"`
	User          Party       `json:"user"`
	Provider      Party       `json:"provider"`
	Booking       *BookingRef `json:"booking,omitempty"`
}

// ProjectTransactions maps the first limit payments to display transactions in
// the order supplied. A non-positive limit keeps every payment.
func ProjectTransactions(payments []Payment, limit int) []Transaction {
	if limit > 0 && len(payments) > limit {
		payments = payments[:limit]
	}
	out := make([]Transaction, 0, len(payments))
	for i, p := range payments {
		txID := strings.TrimSpace(p.Reference)
		if txID == "" {
			txID = fmt.Sprintf("TXN%06d", i+1)
		}
		out = append(out, Transaction{
			ID:            p.ID,
			TransactionID: txID,
			Amount:        amountOrZero(p.Amount),
			Status:        displayStatus(p.Status),
			Method:        p.Method,
			PaymentType:   p.PaymentType,
			CreatedAt:     p.CreatedAt,
			User:          party(p.Payer),
			Provider:      party(p.Payee),
			Booking:       p.Booking,
		})
	}
	return out
}

func displayStatus(status string) string {
	if normalizeStatus(status) == PaymentCompleted {
		return PaymentCompleted
	}
	return status
}

func party(p *Profile) Party {
	if p == nil {
		return Party{Name: unknownUser}
	}
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name == "" {
		name = unknownUser
	}
	return Party{Name: name, Email: p.Email}
}
