package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"safatyundangan/backend/internal/domain"
)

func TestUpdateTransactionPaymentRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("SAFATY_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SAFATY_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	txID := fmt.Sprintf("TRX-IT-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, txID)
	})

	paid := int64(100000)
	created, err := s.CreateTransaction(ctx, domain.Transaction{
		ID:           txID,
		Date:         "2024-05-10",
		CustomerName: "Integration Tester",
		TotalAmount:  850000,
		PaidAmount:   &paid,
		Status:       domain.StatusDP,
		Items: []domain.TransactionItem{
			{Name: "X-Banner Standing", Quantity: 10, Price: 85000},
		},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if created.Paid() != 100000 {
		t.Fatalf("expected paid 100000 after insert, got %d", created.Paid())
	}

	updated, err := s.UpdateTransactionPayment(ctx, txID, 850000, 850000, domain.StatusLunas)
	if err != nil {
		t.Fatalf("update payment: %v", err)
	}
	if updated.Status != domain.StatusLunas {
		t.Fatalf("expected Lunas after full payment, got %s", updated.Status)
	}
	if updated.Paid() != 850000 {
		t.Fatalf("expected paid 850000, got %d", updated.Paid())
	}
	if len(updated.Items) != 1 || updated.Items[0].Name != "X-Banner Standing" {
		t.Fatalf("expected item snapshot to survive the round trip, got %+v", updated.Items)
	}
}
