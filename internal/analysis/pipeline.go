package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"retail-insights/internal/models"
)

type Options struct {
	Filter Filter
	// TopCountries is the ranking size; 0 means DefaultTopCountries and a
	// negative value keeps every country.
	TopCountries   int
	Clusters       ClusterOptions
	ClusterTimeout time.Duration
}

// Run cleans raw rows and analyzes the result in one go.
func Run(ctx context.Context, raw models.RawTable, opts Options) (*models.Report, error) {
	cleaned, err := Clean(raw)
	if err != nil {
		return nil, err
	}
	report, err := Analyze(ctx, cleaned.Transactions, opts)
	if err != nil {
		return nil, err
	}
	report.CleanStats = &cleaned.Stats
	return report, nil
}

// Analyze derives every report section from a cleaned table. The aggregations
// only read the table, so they run concurrently; clustering runs afterwards on
// the country rows, bounded by opts.ClusterTimeout when set.
func Analyze(ctx context.Context, table []models.Transaction, opts Options) (*models.Report, error) {
	table = ApplyFilter(table, opts.Filter)
	report := &models.Report{Transactions: len(table)}

	var countries []models.CountryAggregate
	var wg errgroup.Group

	wg.Go(func() error {
		report.KPIs = ComputeKPIs(table)
		return nil
	})
	wg.Go(func() error {
		countries = CountryAggregates(table)
		return nil
	})
	wg.Go(func() error {
		monthly, err := AggregateBy(table, DimensionMonth)
		report.Monthly = monthly
		return err
	})
	wg.Go(func() error {
		weekday, err := AggregateBy(table, DimensionWeekday)
		report.Weekday = weekday
		return err
	})
	wg.Go(func() error {
		report.Products = Classify(table)
		report.TierSummary = SummarizeTiers(report.Products)
		return nil
	})

	if err := wg.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	topN := opts.TopCountries
	if topN == 0 {
		topN = DefaultTopCountries
	}
	report.Countries = countries
	report.TopCountries = RankCountries(countries, topN)

	clusterCtx := ctx
	if opts.ClusterTimeout > 0 {
		var cancel context.CancelFunc
		clusterCtx, cancel = context.WithTimeout(ctx, opts.ClusterTimeout)
		defer cancel()
	}
	clusters, err := Cluster(clusterCtx, countries, opts.Clusters)
	if err != nil {
		return nil, fmt.Errorf("cluster countries: %w", err)
	}
	report.Clusters = clusters.K
	report.Segments = joinSegments(countries, clusters.Assignments)

	report.Warnings = degenerateWarnings(report, opts.Clusters.withDefaults().K)
	return report, nil
}

func joinSegments(countries []models.CountryAggregate, assignments []models.ClusterAssignment) []models.CountrySegment {
	byCountry := make(map[string]models.ClusterAssignment, len(assignments))
	for _, a := range assignments {
		byCountry[a.Country] = a
	}
	segments := make([]models.CountrySegment, 0, len(countries))
	for _, c := range countries {
		a, ok := byCountry[c.Country]
		if !ok {
			continue
		}
		segments = append(segments, models.CountrySegment{
			CountryAggregate: c,
			Features:         a.Features,
			Cluster:          a.Cluster,
		})
	}
	return segments
}

func degenerateWarnings(report *models.Report, requestedK int) []models.Warning {
	var warnings []models.Warning
	if report.KPIs.Orders == 0 {
		warnings = append(warnings, models.Warning{
			Code:    WarnZeroOrders,
			Message: "no orders in the selected data; average order value reported as 0",
		})
	}
	if len(report.Products) == 0 {
		warnings = append(warnings, models.Warning{
			Code:    WarnZeroRevenue,
			Message: "total revenue is 0; ABC classification is empty",
		})
	}
	if report.Clusters < requestedK {
		warnings = append(warnings, models.Warning{
			Code:    WarnClustersReduced,
			Message: fmt.Sprintf("requested %d clusters but only %d countries are available", requestedK, report.Clusters),
		})
	}
	return warnings
}
