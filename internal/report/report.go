// Package report holds the pure ledger computations: payment status
// derivation, period filtering and the revenue, receivable and stock
// aggregations. Every function copies or reads its inputs and is safe to
// recompute on every request.
package report

import (
	"slices"
	"time"

	"safatyundangan/backend/internal/domain"
)

// DeriveStatus is the single source of truth for a transaction's payment
// status. Overpayment (paid > total) is still Lunas; the surplus is reported
// elsewhere, never clamped.
func DeriveStatus(total int64, paid int64) string {
	switch {
	case paid >= total:
		return domain.StatusLunas
	case paid > 0:
		return domain.StatusDP
	default:
		return domain.StatusPending
	}
}

// FilterDaily returns the transactions dated exactly on the given ISO date,
// most recent first.
func FilterDaily(txs []domain.Transaction, date string) []domain.Transaction {
	result := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date == date {
			result = append(result, tx)
		}
	}
	return sortByDateDesc(result)
}

// FilterRange returns the transactions with start <= date <= end. Both bounds
// are inclusive and compared as ISO date strings, which orders the same as the
// calendar for the YYYY-MM-DD layout. An inverted range yields an empty
// result; no validation is performed.
func FilterRange(txs []domain.Transaction, start string, end string) []domain.Transaction {
	result := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date >= start && tx.Date <= end {
			result = append(result, tx)
		}
	}
	return sortByDateDesc(result)
}

// FilterMonthly returns the transactions falling in the given calendar month
// (1-12) of the given year, most recent first. Transactions with malformed
// dates are skipped.
func FilterMonthly(txs []domain.Transaction, month int, year int) []domain.Transaction {
	result := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		parsed, err := time.Parse(domain.DateLayout, tx.Date)
		if err != nil {
			continue
		}
		if parsed.Year() == year && int(parsed.Month()) == month {
			result = append(result, tx)
		}
	}
	return sortByDateDesc(result)
}

// sortByDateDesc sorts most recent first. The sort is stable: transactions
// sharing a date keep their original relative order.
func sortByDateDesc(txs []domain.Transaction) []domain.Transaction {
	slices.SortStableFunc(txs, func(a, b domain.Transaction) int {
		switch {
		case a.Date > b.Date:
			return -1
		case a.Date < b.Date:
			return 1
		default:
			return 0
		}
	})
	return txs
}

// SortByDateDesc returns a copy of txs sorted most recent first, stable on
// ties. Display ordering is a view concern; the ledger itself preserves
// insertion order.
func SortByDateDesc(txs []domain.Transaction) []domain.Transaction {
	result := make([]domain.Transaction, len(txs))
	copy(result, txs)
	return sortByDateDesc(result)
}

// contribution is the amount a transaction adds to revenue: the recorded paid
// amount when present, otherwise the full total for Lunas records (a
// backward-compatible default for manually seeded data). Pending contributes
// nothing.
func contribution(tx domain.Transaction) int64 {
	if tx.Status != domain.StatusLunas && tx.Status != domain.StatusDP {
		return 0
	}
	if tx.PaidAmount != nil {
		return *tx.PaidAmount
	}
	if tx.Status == domain.StatusLunas {
		return tx.TotalAmount
	}
	return 0
}

// Revenue sums the contribution of an already-filtered transaction set.
func Revenue(txs []domain.Transaction) int64 {
	total := int64(0)
	for _, tx := range txs {
		total += contribution(tx)
	}
	return total
}

var monthLabels = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// AnnualRecap buckets every Lunas/DP transaction of the given year into its
// calendar month. All 12 months are always present, zero-filled, in calendar
// order.
func AnnualRecap(txs []domain.Transaction, year int) domain.AnnualReport {
	months := make([]domain.MonthRecap, 12)
	for i := range months {
		months[i] = domain.MonthRecap{Month: i + 1, Label: monthLabels[i]}
	}

	for _, tx := range txs {
		if tx.Status != domain.StatusLunas && tx.Status != domain.StatusDP {
			continue
		}
		parsed, err := time.Parse(domain.DateLayout, tx.Date)
		if err != nil || parsed.Year() != year {
			continue
		}
		bucket := &months[int(parsed.Month())-1]
		bucket.TransactionCount++
		bucket.Revenue += contribution(tx)
	}

	recap := domain.AnnualReport{Year: year, Months: months}
	for _, m := range months {
		recap.TotalTransactions += m.TransactionCount
		recap.TotalRevenue += m.Revenue
	}
	return recap
}

// Receivables lists every DP transaction with its outstanding balance
// (total minus paid) and the aggregate outstanding amount.
func Receivables(txs []domain.Transaction) domain.ReceivablesReport {
	result := domain.ReceivablesReport{Items: make([]domain.Receivable, 0, len(txs))}
	for _, tx := range txs {
		if tx.Status != domain.StatusDP {
			continue
		}
		remaining := tx.TotalAmount - tx.Paid()
		result.Items = append(result.Items, domain.Receivable{Transaction: tx, Remaining: remaining})
		result.TotalReceivable += remaining
	}
	return result
}

// SoldCount sums item quantities across ALL transactions whose item name
// matches the product name exactly. Pending transactions count too: stock is
// reconciled manually by the operator, so this view deliberately mirrors what
// left the shelf on paper rather than what was paid for.
func SoldCount(product domain.Product, txs []domain.Transaction) int {
	sold := 0
	for _, tx := range txs {
		for _, item := range tx.Items {
			if item.Name == product.Name {
				sold += item.Quantity
			}
		}
	}
	return sold
}

// TotalStockEstimate derives the original stocked quantity: checkout never
// decrements Product.Stock, so remaining stock plus everything sold
// reconstructs the starting figure.
func TotalStockEstimate(product domain.Product, txs []domain.Transaction) int {
	return product.Stock + SoldCount(product, txs)
}

// StockLabel classifies remaining stock against fixed thresholds.
func StockLabel(stock int) string {
	switch {
	case stock > 50:
		return domain.StockSafe
	case stock > 10:
		return domain.StockLow
	default:
		return domain.StockCritical
	}
}
