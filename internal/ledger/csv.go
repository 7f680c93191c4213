package ledger

import (
	"sort"
	"strconv"
	"strings"
)

// csvHeader is the fixed export header. Every field is quoted; embedded
// quotes are doubled (RFC 4180 style).
var csvHeader = []string{"ID", "Date", "Type", "Amount", "Description", "Category", "Account"}

// ExportCSV renders every transaction as CSV, oldest first. With no
// transactions it returns the empty string.
func (t *Tracker) ExportCSV() string {
	t.mu.Lock()
	txns := make([]*Transaction, len(t.transactions))
	copy(txns, t.transactions)
	t.mu.Unlock()

	return renderCSV(txns)
}

// ExportMonthCSV renders one 0-indexed month's transactions as CSV, oldest
// first. With no transactions in the month it returns the empty string.
func (t *Tracker) ExportMonthCSV(year, month int) string {
	return renderCSV(t.TransactionsByMonth(year, month))
}

func renderCSV(txns []*Transaction) string {
	if len(txns) == 0 {
		return ""
	}

	sorted := make([]*Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for _, txn := range sorted {
		b.WriteByte('\n')
		writeCSVRow(&b, []string{
			strconv.FormatInt(txn.ID, 10),
			txn.Timestamp.Format("2006-01-02"),
			string(txn.Kind),
			txn.Amount.StringFixed(2),
			txn.Description,
			txn.Category,
			txn.Account,
		})
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
}
