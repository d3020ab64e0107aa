package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-insights/internal/models"
)

func warningCodes(ws []models.Warning) []string {
	codes := make([]string, len(ws))
	for i, w := range ws {
		codes[i] = w.Code
	}
	return codes
}

func TestRun_SingleCountryDataset(t *testing.T) {
	report, err := Run(context.Background(), specExample(), Options{})
	require.NoError(t, err)

	requireDecimal(t, "25", report.KPIs.TotalRevenue)
	assert.Equal(t, 2, report.KPIs.Orders)
	requireDecimal(t, "12.5", report.KPIs.AverageOrderValue)
	assert.Equal(t, 2, report.Transactions)

	require.NotNil(t, report.CleanStats)
	assert.Equal(t, 3, report.CleanStats.Read)
	assert.Equal(t, 2, report.CleanStats.Kept)

	require.Len(t, report.Weekday, 7)
	requireDecimal(t, "5", report.Weekday[0].Revenue)
	requireDecimal(t, "20", report.Weekday[6].Revenue)

	require.Len(t, report.Products, 2)
	assert.Equal(t, models.TierA, report.Products[0].Tier)
	assert.Equal(t, models.TierC, report.Products[1].Tier)

	assert.Equal(t, 1, report.Clusters)
	require.Len(t, report.Segments, 1)
	assert.Equal(t, "UK", report.Segments[0].Country)
	assert.Equal(t, 0, report.Segments[0].Cluster)
	assert.Equal(t, []string{WarnClustersReduced}, warningCodes(report.Warnings))
}

func TestRun_SchemaError(t *testing.T) {
	_, err := Run(context.Background(), models.RawTable{Header: []string{"foo"}}, Options{})
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestAnalyze_EmptyTable(t *testing.T) {
	report, err := Analyze(context.Background(), nil, Options{})
	require.NoError(t, err)

	assert.True(t, report.KPIs.AverageOrderValue.IsZero())
	assert.Len(t, report.Weekday, 7)
	assert.Empty(t, report.Products)
	assert.Len(t, report.TierSummary, 3)
	assert.Zero(t, report.Clusters)
	assert.Equal(t, []string{WarnZeroOrders, WarnZeroRevenue, WarnClustersReduced}, warningCodes(report.Warnings))
}

func TestAnalyze_Filter(t *testing.T) {
	table := sampleTable()
	report, err := Analyze(context.Background(), table, Options{
		Filter:   Filter{Countries: []string{"France", "Germany"}},
		Clusters: ClusterOptions{K: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Transactions)
	requireDecimal(t, "78", report.KPIs.TotalRevenue)
	require.Len(t, report.TopCountries, 2)
	assert.Equal(t, "France", report.TopCountries[0].Country)
	assert.Equal(t, 2, report.Clusters)
	assert.Empty(t, report.Warnings)
	assert.Len(t, table, 5)
}

func TestAnalyze_TopCountriesLimit(t *testing.T) {
	report, err := Analyze(context.Background(), sampleTable(), Options{TopCountries: 1})
	require.NoError(t, err)
	require.Len(t, report.TopCountries, 1)
	assert.Equal(t, "France", report.TopCountries[0].Country)
	assert.Len(t, report.Countries, 3)

	all, err := Analyze(context.Background(), sampleTable(), Options{TopCountries: -1})
	require.NoError(t, err)
	assert.Len(t, all.TopCountries, 3)
}

func TestAnalyze_ClusterTimeout(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := Analyze(ctx, sampleTable(), Options{ClusterTimeout: time.Minute})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
