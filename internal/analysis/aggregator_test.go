package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-insights/internal/models"
)

func sampleTable() []models.Transaction {
	return []models.Transaction{
		txn("100", "Mug", "United Kingdom", 2, "10", day(2011, time.February, 7)),
		txn("100", "Plate", "United Kingdom", 1, "4.5", day(2011, time.February, 7)),
		txn("101", "Mug", "France", 3, "10", day(2010, time.December, 5)),
		txn("102", "Lamp", "Germany", 1, "30", day(2011, time.January, 3)),
		txn("103", "Plate", "France", 4, "4.5", day(2011, time.January, 4)),
	}
}

func TestAggregateBy_Weekday_AlwaysSevenDaysInOrder(t *testing.T) {
	// 2020-01-05 is a Sunday and 2020-01-06 a Monday.
	table := []models.Transaction{
		txn("1", "A", "UK", 2, "10", day(2020, time.January, 5)),
		txn("2", "B", "UK", 1, "5", day(2020, time.January, 6)),
	}

	rows, err := AggregateBy(table, DimensionWeekday)
	require.NoError(t, err)
	require.Len(t, rows, 7)

	want := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	for i, row := range rows {
		assert.Equal(t, want[i], row.Key)
	}
	requireDecimal(t, "5", rows[0].Revenue)
	requireDecimal(t, "20", rows[6].Revenue)
	for _, row := range rows[1:6] {
		assert.True(t, row.Revenue.IsZero())
		assert.Zero(t, row.Orders)
		assert.True(t, row.AverageOrderValue.IsZero())
	}
}

func TestAggregateBy_Weekday_EmptyTable(t *testing.T) {
	rows, err := AggregateBy(nil, DimensionWeekday)
	require.NoError(t, err)
	assert.Len(t, rows, 7)
}

func TestAggregateBy_Month_Chronological(t *testing.T) {
	rows, err := AggregateBy(sampleTable(), DimensionMonth)
	require.NoError(t, err)

	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	assert.Equal(t, []string{"2010-12", "2011-01", "2011-02"}, keys)
	requireDecimal(t, "24.5", rows[2].Revenue)
	assert.Equal(t, 1, rows[2].Orders)
	assert.Equal(t, int64(3), rows[2].Quantity)
}

func TestAggregateBy_Country(t *testing.T) {
	rows, err := AggregateBy(sampleTable(), DimensionCountry)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "France", rows[0].Key)
	requireDecimal(t, "48", rows[0].Revenue)
	assert.Equal(t, 2, rows[0].Orders)
	assert.Equal(t, int64(7), rows[0].Quantity)
	requireDecimal(t, "24", rows[0].AverageOrderValue)

	assert.Equal(t, "United Kingdom", rows[2].Key)
	assert.Equal(t, 1, rows[2].Orders, "lines of one invoice count as one order")
}

func TestAggregateBy_UnknownDimension(t *testing.T) {
	_, err := AggregateBy(sampleTable(), Dimension("region"))
	assert.Error(t, err)
}

func TestCountryAggregates_SumEqualsGrandTotal(t *testing.T) {
	table := sampleTable()
	total := decimal.Zero
	for _, c := range CountryAggregates(table) {
		total = total.Add(c.Revenue)
	}
	assert.True(t, total.Equal(ComputeKPIs(table).TotalRevenue))
}

func TestRankCountries(t *testing.T) {
	aggs := []models.CountryAggregate{
		{Country: "Belgium", Revenue: dec("10")},
		{Country: "Austria", Revenue: dec("10")},
		{Country: "Spain", Revenue: dec("99")},
		{Country: "Italy", Revenue: dec("1")},
	}

	ranked := RankCountries(aggs, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Spain", ranked[0].Country)
	assert.Equal(t, "Austria", ranked[1].Country)
	assert.Equal(t, "Belgium", ranked[2].Country)
	assert.Equal(t, "Belgium", aggs[0].Country, "input must not be reordered")

	assert.Len(t, RankCountries(aggs, 0), 4)
	assert.Len(t, RankCountries(aggs, 10), 4)
}

func TestComputeKPIs_NoOrders(t *testing.T) {
	kpis := ComputeKPIs(nil)
	assert.True(t, kpis.TotalRevenue.IsZero())
	assert.Zero(t, kpis.Orders)
	assert.True(t, kpis.AverageOrderValue.IsZero())
}

func TestApplyFilter(t *testing.T) {
	table := sampleTable()

	byCountry := ApplyFilter(table, Filter{Countries: []string{"France"}})
	assert.Len(t, byCountry, 2)

	byDate := ApplyFilter(table, Filter{
		From: time.Date(2011, 1, 3, 23, 0, 0, 0, time.UTC),
		To:   time.Date(2011, 1, 4, 0, 0, 0, 0, time.UTC),
	})
	require.Len(t, byDate, 2)
	assert.Equal(t, "102", byDate[0].InvoiceNo)
	assert.Equal(t, "103", byDate[1].InvoiceNo)

	assert.Len(t, ApplyFilter(table, Filter{}), len(table))
	assert.Len(t, table, 5)
}

func TestCountriesAndDateBounds(t *testing.T) {
	table := sampleTable()
	assert.Equal(t, []string{"France", "Germany", "United Kingdom"}, Countries(table))

	lo, hi := DateBounds(table)
	assert.Equal(t, day(2010, time.December, 5), lo)
	assert.Equal(t, day(2011, time.February, 7), hi)
}
