package analysis

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
)

// Dimension selects the grouping key for AggregateBy.
type Dimension string

const (
	DimensionCountry Dimension = "country"
	DimensionMonth   Dimension = "month"
	DimensionWeekday Dimension = "weekday"
)

// DefaultTopCountries is the size of the country revenue ranking.
const DefaultTopCountries = 10

// WeekOrder is the fixed order of the weekday series.
var WeekOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

type groupTotals struct {
	revenue  decimal.Decimal
	invoices map[string]struct{}
	quantity int64
}

func (g *groupTotals) add(tx models.Transaction) {
	g.revenue = g.revenue.Add(tx.Total)
	g.invoices[tx.InvoiceNo] = struct{}{}
	g.quantity += int64(tx.Quantity)
}

func (g *groupTotals) aggregate(key string) models.Aggregate {
	if g == nil {
		return models.Aggregate{Key: key, Revenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	}
	orders := len(g.invoices)
	return models.Aggregate{
		Key:               key,
		Revenue:           g.revenue,
		Orders:            orders,
		Quantity:          g.quantity,
		AverageOrderValue: averageOrderValue(g.revenue, orders),
	}
}

// AggregateBy sums revenue, counts distinct invoices and sums quantity per
// dimension key. Month keys come back chronologically, weekday keys always as
// the seven days Monday to Sunday, and country keys alphabetically.
func AggregateBy(table []models.Transaction, dim Dimension) ([]models.Aggregate, error) {
	var keyOf func(models.Transaction) string
	switch dim {
	case DimensionCountry:
		keyOf = func(tx models.Transaction) string { return tx.Country }
	case DimensionMonth:
		keyOf = func(tx models.Transaction) string { return tx.Period }
	case DimensionWeekday:
		keyOf = func(tx models.Transaction) string { return tx.Weekday.String() }
	default:
		return nil, fmt.Errorf("unknown aggregation dimension %q", dim)
	}

	groups := make(map[string]*groupTotals)
	for _, tx := range table {
		key := keyOf(tx)
		g, ok := groups[key]
		if !ok {
			g = &groupTotals{revenue: decimal.Zero, invoices: make(map[string]struct{})}
			groups[key] = g
		}
		g.add(tx)
	}

	if dim == DimensionWeekday {
		result := make([]models.Aggregate, 0, len(WeekOrder))
		for _, day := range WeekOrder {
			result = append(result, groups[day.String()].aggregate(day.String()))
		}
		return result, nil
	}

	result := make([]models.Aggregate, 0, len(groups))
	for key, g := range groups {
		result = append(result, g.aggregate(key))
	}
	// "YYYY-MM" keys sort chronologically as plain strings.
	slices.SortFunc(result, func(a, b models.Aggregate) int {
		return strings.Compare(a.Key, b.Key)
	})
	return result, nil
}

// CountryAggregates returns the per-country rows used by the ranking and the
// clusterer, ordered by country name.
func CountryAggregates(table []models.Transaction) []models.CountryAggregate {
	rows, _ := AggregateBy(table, DimensionCountry)
	result := make([]models.CountryAggregate, len(rows))
	for i, row := range rows {
		result[i] = models.CountryAggregate{
			Country:           row.Key,
			Revenue:           row.Revenue,
			Orders:            row.Orders,
			Quantity:          row.Quantity,
			AverageOrderValue: row.AverageOrderValue,
		}
	}
	return result
}

// RankCountries orders countries by revenue, highest first, and keeps the
// first n. n <= 0 keeps every country.
func RankCountries(aggs []models.CountryAggregate, n int) []models.CountryAggregate {
	ranked := slices.Clone(aggs)
	slices.SortStableFunc(ranked, func(a, b models.CountryAggregate) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return strings.Compare(a.Country, b.Country)
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ComputeKPIs returns the headline totals of a table.
func ComputeKPIs(table []models.Transaction) models.KPIs {
	revenue := decimal.Zero
	invoices := make(map[string]struct{})
	for _, tx := range table {
		revenue = revenue.Add(tx.Total)
		invoices[tx.InvoiceNo] = struct{}{}
	}
	return models.KPIs{
		TotalRevenue:      revenue,
		Orders:            len(invoices),
		AverageOrderValue: averageOrderValue(revenue, len(invoices)),
	}
}

func averageOrderValue(revenue decimal.Decimal, orders int) decimal.Decimal {
	if orders == 0 {
		return decimal.Zero
	}
	return revenue.Div(decimal.NewFromInt(int64(orders)))
}
