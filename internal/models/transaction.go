package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTable is the untyped dataset handed over by a source reader.
type RawTable struct {
	Header []string
	Rows   [][]string

	// Skipped counts records the reader could not decode at all.
	Skipped int
}

type Transaction struct {
	InvoiceNo   string          `json:"invoice_no"`
	StockCode   string          `json:"stock_code,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	InvoiceDate time.Time       `json:"invoice_date"`
	CustomerID  string          `json:"customer_id,omitempty"`
	Country     string          `json:"country"`

	Total   decimal.Decimal `json:"total"`
	Period  string          `json:"period"`
	Weekday time.Weekday    `json:"weekday"`
}

type Aggregate struct {
	Key               string          `json:"key"`
	Revenue           decimal.Decimal `json:"revenue"`
	Orders            int             `json:"orders"`
	Quantity          int64           `json:"quantity"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type CountryAggregate struct {
	Country           string          `json:"country"`
	Revenue           decimal.Decimal `json:"revenue"`
	Orders            int             `json:"orders"`
	Quantity          int64           `json:"quantity"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type KPIs struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	Orders            int             `json:"orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}
