package report

import (
	"testing"

	"safatyundangan/backend/internal/domain"
)

func paid(v int64) *int64 {
	return &v
}

func sampleTransactions() []domain.Transaction {
	return []domain.Transaction{
		{
			ID: "TRX-001", Date: "2024-05-01", CustomerName: "Budi Santoso",
			TotalAmount: 500000, Status: domain.StatusLunas,
			Items: []domain.TransactionItem{{Name: "Undangan Hardcover Mewah", Quantity: 100, Price: 5000}},
		},
		{
			ID: "TRX-002", Date: "2024-05-02", CustomerName: "Siti Aminah",
			TotalAmount: 175000, Status: domain.StatusLunas,
			Items: []domain.TransactionItem{{Name: "Kartu Nama Bisnis", Quantity: 5, Price: 35000}},
		},
		{
			ID: "TRX-003", Date: "2024-05-03", CustomerName: "PT Maju Jaya",
			TotalAmount: 850000, Status: domain.StatusPending,
			Items: []domain.TransactionItem{{Name: "X-Banner Standing", Quantity: 10, Price: 85000}},
		},
	}
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		paid  int64
		want  string
	}{
		{"nothing paid", 1000, 0, domain.StatusPending},
		{"negative paid", 1000, -50, domain.StatusPending},
		{"partial", 1000, 1, domain.StatusDP},
		{"almost full", 1000, 999, domain.StatusDP},
		{"exact", 1000, 1000, domain.StatusLunas},
		{"overpaid", 1000, 1500, domain.StatusLunas},
		{"zero total zero paid", 0, 0, domain.StatusLunas},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(tc.total, tc.paid); got != tc.want {
				t.Fatalf("DeriveStatus(%d, %d) = %s, want %s", tc.total, tc.paid, got, tc.want)
			}
		})
	}
}

func TestDeriveStatusIsExhaustive(t *testing.T) {
	for total := int64(0); total <= 3; total++ {
		for p := int64(0); p <= 4; p++ {
			status := DeriveStatus(total, p)
			if status != domain.StatusLunas && status != domain.StatusDP && status != domain.StatusPending {
				t.Fatalf("DeriveStatus(%d, %d) returned unknown status %q", total, p, status)
			}
			if total > 0 {
				if (p >= total) != (status == domain.StatusLunas) {
					t.Fatalf("DeriveStatus(%d, %d) = %s, Lunas iff paid >= total violated", total, p, status)
				}
				if (p == 0) != (status == domain.StatusPending) {
					t.Fatalf("DeriveStatus(%d, %d) = %s, Pending iff paid == 0 violated", total, p, status)
				}
			}
		}
	}
}

func TestFilterDailyExactMatch(t *testing.T) {
	txs := sampleTransactions()

	got := FilterDaily(txs, "2024-05-02")
	if len(got) != 1 || got[0].ID != "TRX-002" {
		t.Fatalf("expected only TRX-002, got %+v", got)
	}

	if empty := FilterDaily(txs, "2024-05-09"); len(empty) != 0 {
		t.Fatalf("expected no transactions, got %d", len(empty))
	}
}

func TestFilterRangeInclusiveDescending(t *testing.T) {
	txs := sampleTransactions()

	got := FilterRange(txs, "2024-05-01", "2024-05-03")
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}
	wantOrder := []string{"TRX-003", "TRX-002", "TRX-001"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestFilterRangeInvertedYieldsEmpty(t *testing.T) {
	got := FilterRange(sampleTransactions(), "2024-05-03", "2024-05-01")
	if len(got) != 0 {
		t.Fatalf("inverted range should be empty, got %d transactions", len(got))
	}
}

func TestFilterRangeDoesNotMutateInput(t *testing.T) {
	txs := sampleTransactions()
	_ = FilterRange(txs, "2024-05-01", "2024-05-03")

	if txs[0].ID != "TRX-001" || txs[2].ID != "TRX-003" {
		t.Fatalf("input slice was reordered: %s ... %s", txs[0].ID, txs[2].ID)
	}
}

func TestFilterMonthlyStripsLeadingZero(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "a", Date: "2024-05-01", Status: domain.StatusLunas, TotalAmount: 100},
		{ID: "b", Date: "2024-06-06", Status: domain.StatusLunas, TotalAmount: 100},
		{ID: "c", Date: "2023-05-10", Status: domain.StatusLunas, TotalAmount: 100},
		{ID: "broken", Date: "05/01/2024", Status: domain.StatusLunas, TotalAmount: 100},
	}

	got := FilterMonthly(txs, 5, 2024)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only transaction a for May 2024, got %+v", got)
	}
}

func TestSortByDateDescStableOnTies(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "first", Date: "2024-05-03"},
		{ID: "second", Date: "2024-05-03"},
		{ID: "older", Date: "2024-05-01"},
	}

	got := SortByDateDesc(txs)
	if got[0].ID != "first" || got[1].ID != "second" || got[2].ID != "older" {
		t.Fatalf("unexpected order: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestRevenueContributionRule(t *testing.T) {
	txs := []domain.Transaction{
		// Lunas with no explicit paid amount counts as fully paid.
		{ID: "a", Status: domain.StatusLunas, TotalAmount: 500000},
		// DP counts only what was actually received.
		{ID: "b", Status: domain.StatusDP, TotalAmount: 3000000, PaidAmount: paid(1000000)},
		// Pending contributes nothing.
		{ID: "c", Status: domain.StatusPending, TotalAmount: 850000},
		// Explicit paid amount wins over the total.
		{ID: "d", Status: domain.StatusLunas, TotalAmount: 200000, PaidAmount: paid(250000)},
	}

	if got := Revenue(txs); got != 500000+1000000+250000 {
		t.Fatalf("unexpected revenue: %d", got)
	}
}

func TestAnnualRecapBucketsAndZeroFills(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "a", Date: "2024-05-01", Status: domain.StatusLunas, TotalAmount: 500000},
		{ID: "b", Date: "2024-05-05", Status: domain.StatusDP, TotalAmount: 3000000, PaidAmount: paid(1000000)},
		{ID: "c", Date: "2024-05-03", Status: domain.StatusPending, TotalAmount: 850000},
		{ID: "d", Date: "2023-12-30", Status: domain.StatusLunas, TotalAmount: 999999},
	}

	recap := AnnualRecap(txs, 2024)
	if len(recap.Months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(recap.Months))
	}
	for i, m := range recap.Months {
		if m.Month != i+1 {
			t.Fatalf("month %d out of order: %d", i, m.Month)
		}
		if m.Month == 5 {
			continue
		}
		if m.TransactionCount != 0 || m.Revenue != 0 {
			t.Fatalf("month %d should be zero-filled, got %+v", m.Month, m)
		}
	}

	may := recap.Months[4]
	if may.TransactionCount != 2 {
		t.Fatalf("expected 2 transactions in May, got %d", may.TransactionCount)
	}
	if may.Revenue != 1500000 {
		t.Fatalf("expected May revenue 1500000, got %d", may.Revenue)
	}
	if recap.TotalRevenue != 1500000 || recap.TotalTransactions != 2 {
		t.Fatalf("unexpected totals: %d transactions, %d revenue", recap.TotalTransactions, recap.TotalRevenue)
	}
}

func TestReceivablesOnlyDP(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "dp", Status: domain.StatusDP, TotalAmount: 3000000, PaidAmount: paid(1000000)},
		{ID: "lunas", Status: domain.StatusLunas, TotalAmount: 500000},
		{ID: "pending", Status: domain.StatusPending, TotalAmount: 850000},
		{ID: "dp-no-paid", Status: domain.StatusDP, TotalAmount: 400000},
	}

	got := Receivables(txs)
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 receivables, got %d", len(got.Items))
	}
	if got.Items[0].Transaction.ID != "dp" || got.Items[0].Remaining != 2000000 {
		t.Fatalf("unexpected first receivable: %+v", got.Items[0])
	}
	if got.Items[1].Remaining != 400000 {
		t.Fatalf("missing paid amount should count as zero paid, got remaining %d", got.Items[1].Remaining)
	}
	if got.TotalReceivable != 2400000 {
		t.Fatalf("expected total receivable 2400000, got %d", got.TotalReceivable)
	}
}

func TestSoldCountMatchesNameExactly(t *testing.T) {
	product := domain.Product{Name: "Undangan Hardcover Mewah", Stock: 1500}
	txs := []domain.Transaction{
		{Status: domain.StatusLunas, Items: []domain.TransactionItem{
			{Name: "Undangan Hardcover Mewah", Quantity: 100, Price: 5000},
		}},
		// Pending orders still count as sold in this view.
		{Status: domain.StatusPending, Items: []domain.TransactionItem{
			{Name: "Undangan Hardcover Mewah", Quantity: 30, Price: 5000},
		}},
		{Status: domain.StatusLunas, Items: []domain.TransactionItem{
			{Name: "Undangan Hardcover Premium", Quantity: 200, Price: 15000},
		}},
	}

	if got := SoldCount(product, txs); got != 130 {
		t.Fatalf("expected sold count 130, got %d", got)
	}
	if got := TotalStockEstimate(product, txs); got != 1630 {
		t.Fatalf("expected stock estimate 1630, got %d", got)
	}

	other := domain.Product{Name: "Cetak Sticker Label", Stock: 500}
	if got := SoldCount(other, txs); got != 0 {
		t.Fatalf("unmatched product should sell 0, got %d", got)
	}
}

func TestStockLabelThresholds(t *testing.T) {
	cases := []struct {
		stock int
		want  string
	}{
		{51, domain.StockSafe},
		{1500, domain.StockSafe},
		{50, domain.StockLow},
		{11, domain.StockLow},
		{10, domain.StockCritical},
		{0, domain.StockCritical},
	}

	for _, tc := range cases {
		if got := StockLabel(tc.stock); got != tc.want {
			t.Fatalf("StockLabel(%d) = %s, want %s", tc.stock, got, tc.want)
		}
	}
}
