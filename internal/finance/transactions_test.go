package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectTransactionsKeepsSourceOrderAndLimit(t *testing.T) {
	payments := []Payment{
		pay("p3", 30, PaymentCompleted, at(2025, time.March, 3)),
		pay("p1", 10, PaymentPending, at(2025, time.March, 1)),
		pay("p2", 20, PaymentFailed, at(2025, time.March, 2)),
	}
	txs := ProjectTransactions(payments, 2)
	require.Len(t, txs, 2)
	assert.Equal(t, "p3", txs[0].ID)
	assert.Equal(t, "p1", txs[1].ID)
	assert.Equal(t, "TXN000002", txs[1].TransactionID)

	assert.Len(t, ProjectTransactions(payments, 0), 3)
	assert.Len(t, ProjectTransactions(payments, 50), 3)
	assert.NotNil(t, ProjectTransactions(nil, 10))
	assert.Empty(t, ProjectTransactions(nil, 10))
}

func TestProjectTransactionsShapesParties(t *testing.T) {
	checkIn := at(2025, time.April, 1)
	payments := []Payment{
		{
			ID:        "p1",
			Amount:    amt(250),
			Status:    "COMPLETED",
			Reference: "pi_123",
			Method:    "card",
			Payer:     &Profile{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			Payee:     &Profile{ID: "u2", FirstName: "  ", LastName: ""},
			Booking:   &BookingRef{ID: "b1", CheckIn: checkIn},
		},
		{ID: "p2", Status: "Pending"},
	}
	txs := ProjectTransactions(payments, 10)
	require.Len(t, txs, 2)

	first := txs[0]
	assert.Equal(t, "pi_123", first.TransactionID)
	assert.Equal(t, PaymentCompleted, first.Status)
	assert.Equal(t, 250.0, first.Amount)
	assert.Equal(t, Party{Name: "Ada Lovelace", Email: "ada@example.com"}, first.User)
	assert.Equal(t, "Unknown User", first.Provider.Name)
	require.NotNil(t, first.Booking)
	assert.Equal(t, "b1", first.Booking.ID)

	second := txs[1]
	assert.Equal(t, "TXN000002", second.TransactionID)
	assert.Equal(t, "Pending", second.Status)
	assert.Zero(t, second.Amount)
	assert.Equal(t, "Unknown User", second.User.Name)
	assert.Nil(t, second.Booking)
}
