package analysis

import (
	"slices"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
)

type tierBound struct {
	upper decimal.Decimal
	tier  models.Tier
}

// tierTable is evaluated in order; upper bounds are inclusive and anything
// above the last bound falls into TierC.
var tierTable = []tierBound{
	{upper: decimal.RequireFromString("0.80"), tier: models.TierA},
	{upper: decimal.RequireFromString("0.95"), tier: models.TierB},
}

// TierFor maps a cumulative revenue share to its ABC tier.
func TierFor(share decimal.Decimal) models.Tier {
	for _, b := range tierTable {
		if share.LessThanOrEqual(b.upper) {
			return b.tier
		}
	}
	return models.TierC
}

type productTotal struct {
	description string
	revenue     decimal.Decimal
}

// Classify ranks products by revenue and assigns ABC tiers from the running
// share of the grand total. Products with equal revenue keep the order in
// which they first appear in the table. A table without revenue yields no rows.
func Classify(table []models.Transaction) []models.ProductRevenueRow {
	position := make(map[string]int)
	var products []productTotal
	for _, tx := range table {
		if tx.Description == "" {
			continue
		}
		i, ok := position[tx.Description]
		if !ok {
			i = len(products)
			position[tx.Description] = i
			products = append(products, productTotal{description: tx.Description, revenue: decimal.Zero})
		}
		products[i].revenue = products[i].revenue.Add(tx.Total)
	}

	grand := decimal.Zero
	for _, p := range products {
		grand = grand.Add(p.revenue)
	}
	if !grand.IsPositive() {
		return []models.ProductRevenueRow{}
	}

	slices.SortStableFunc(products, func(a, b productTotal) int {
		return b.revenue.Cmp(a.revenue)
	})

	rows := make([]models.ProductRevenueRow, len(products))
	running := decimal.Zero
	for i, p := range products {
		running = running.Add(p.revenue)
		share := running.Div(grand)
		rows[i] = models.ProductRevenueRow{
			Rank:            i + 1,
			Description:     p.description,
			Revenue:         p.revenue,
			CumulativeShare: share,
			Tier:            TierFor(share),
		}
	}
	return rows
}

// SummarizeTiers counts products per tier, always reporting A, B and C.
func SummarizeTiers(rows []models.ProductRevenueRow) []models.TierCount {
	counts := make(map[models.Tier]int, len(models.Tiers))
	for _, r := range rows {
		counts[r.Tier]++
	}
	summary := make([]models.TierCount, 0, len(models.Tiers))
	for _, t := range models.Tiers {
		summary = append(summary, models.TierCount{Tier: t, Products: counts[t]})
	}
	return summary
}
