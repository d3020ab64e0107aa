package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"retail-insights/internal/models"
)

var retailHeader = []string{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"}

func rawRow(invoice, desc, qty, ts, price, country string) []string {
	return []string{invoice, "", desc, qty, ts, price, "", country}
}

func txn(invoice, desc, country string, qty int, price string, ts time.Time) models.Transaction {
	p := decimal.RequireFromString(price)
	return models.Transaction{
		InvoiceNo:   invoice,
		Description: desc,
		Quantity:    qty,
		UnitPrice:   p,
		InvoiceDate: ts,
		Country:     country,
		Total:       p.Mul(decimal.NewFromInt(int64(qty))),
		Period:      ts.Format(PeriodLayout),
		Weekday:     ts.Weekday(),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

// specExample is the three-row dataset with one cancelled invoice.
func specExample() models.RawTable {
	return models.RawTable{
		Header: retailHeader,
		Rows: [][]string{
			rawRow("1", "A", "2", "2020-01-05", "10", "UK"),
			rawRow("2", "B", "1", "2020-01-06", "5", "UK"),
			rawRow("C1", "A", "2", "2020-01-06", "10", "UK"),
		},
	}
}
