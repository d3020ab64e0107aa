package analysis

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
)

// CancellationMarker prefixes invoice ids of returns and cancellations.
const CancellationMarker = "C"

// PeriodLayout formats the year-month period key.
const PeriodLayout = "2006-01"

var timestampLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006",
}

type column int

const (
	colInvoice column = iota
	colDescription
	colQuantity
	colUnitPrice
	colInvoiceDate
	colCountry
	colStockCode
	colCustomerID
	numColumns
)

type columnSpec struct {
	col      column
	name     string
	required bool
	aliases  []string
}

var columnSpecs = []columnSpec{
	{colInvoice, "invoice id", true, []string{"invoiceno", "invoiceid", "invoice", "invoicenumber"}},
	{colDescription, "product description", true, []string{"description", "productdescription", "product"}},
	{colQuantity, "quantity", true, []string{"quantity", "qty"}},
	{colUnitPrice, "unit price", true, []string{"unitprice", "price"}},
	{colInvoiceDate, "invoice date", true, []string{"invoicedate", "invoicetimestamp", "invoicedatetime", "date"}},
	{colCountry, "country", true, []string{"country"}},
	{colStockCode, "stock code", false, []string{"stockcode", "sku"}},
	{colCustomerID, "customer id", false, []string{"customerid", "customer"}},
}

// CleanResult is the cleaned table plus the bookkeeping of what was dropped.
type CleanResult struct {
	Transactions []models.Transaction
	Stats        models.CleanStats
}

// Clean turns raw rows into typed transactions. Malformed, cancelled and
// non-positive rows are dropped and counted; only a missing required column
// fails the whole call.
func Clean(raw models.RawTable) (*CleanResult, error) {
	index, err := resolveColumns(raw.Header)
	if err != nil {
		return nil, err
	}

	result := &CleanResult{
		Transactions: make([]models.Transaction, 0, len(raw.Rows)),
		Stats: models.CleanStats{
			Read:      len(raw.Rows),
			Discarded: make(map[string]int),
		},
	}

	for _, row := range raw.Rows {
		tx, reason, ok := cleanRow(row, index)
		if !ok {
			result.Stats.Discarded[string(reason)]++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	result.Stats.Kept = len(result.Transactions)

	return result, nil
}

func resolveColumns(header []string) ([numColumns]int, error) {
	var index [numColumns]int
	for i := range index {
		index[i] = -1
	}

	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	var missing []string
	for _, spec := range columnSpecs {
		for _, alias := range spec.aliases {
			if pos, ok := positions[alias]; ok {
				index[spec.col] = pos
				break
			}
		}
		if spec.required && index[spec.col] == -1 {
			missing = append(missing, spec.name)
		}
	}

	if len(missing) > 0 {
		return index, &SchemaError{Missing: missing, Header: header}
	}
	return index, nil
}

// normalizeHeader maps "Invoice No", "invoice_no" and a BOM-prefixed "InvoiceNo" to "invoiceno".
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func cleanRow(row []string, index [numColumns]int) (models.Transaction, DiscardReason, bool) {
	cell := func(c column) string {
		i := index[c]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	invoice := cell(colInvoice)
	country := cell(colCountry)
	if invoice == "" || country == "" {
		return models.Transaction{}, DiscardMissingField, false
	}

	ts, ok := parseTimestamp(cell(colInvoiceDate))
	if !ok {
		return models.Transaction{}, DiscardBadTimestamp, false
	}

	quantity, ok := parseQuantity(cell(colQuantity))
	if !ok {
		return models.Transaction{}, DiscardBadQuantity, false
	}
	price, err := decimal.NewFromString(cell(colUnitPrice))
	if err != nil {
		return models.Transaction{}, DiscardBadUnitPrice, false
	}
	total := price.Mul(decimal.NewFromInt(int64(quantity)))

	if strings.HasPrefix(invoice, CancellationMarker) {
		return models.Transaction{}, DiscardCancelled, false
	}

	// Positivity is checked independently of the cancellation marker.
	if quantity <= 0 || !price.IsPositive() {
		return models.Transaction{}, DiscardNonPositive, false
	}

	return models.Transaction{
		InvoiceNo:   invoice,
		StockCode:   cell(colStockCode),
		Description: cell(colDescription),
		Quantity:    quantity,
		UnitPrice:   price,
		InvoiceDate: ts,
		CustomerID:  cell(colCustomerID),
		Country:     country,
		Total:       total,
		Period:      ts.Format(PeriodLayout),
		Weekday:     ts.Weekday(),
	}, "", true
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseQuantity accepts integers and integral floats such as "6.0".
func parseQuantity(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
