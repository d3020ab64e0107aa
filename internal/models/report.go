package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// Tiers lists every tier in reporting order.
var Tiers = []Tier{TierA, TierB, TierC}

type ProductRevenueRow struct {
	Rank            int             `json:"rank"`
	Description     string          `json:"description"`
	Revenue         decimal.Decimal `json:"revenue"`
	CumulativeShare decimal.Decimal `json:"cumulative_share"`
	Tier            Tier            `json:"tier"`
}

type TierCount struct {
	Tier     Tier `json:"tier"`
	Products int  `json:"products"`
}

type ClusterAssignment struct {
	Country  string     `json:"country"`
	Features [4]float64 `json:"features"`
	Cluster  int        `json:"cluster"`
}

// CountrySegment joins a cluster assignment back to its country aggregate.
type CountrySegment struct {
	CountryAggregate
	Features [4]float64 `json:"features"`
	Cluster  int        `json:"cluster"`
}

type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CleanStats struct {
	Read      int            `json:"read"`
	Kept      int            `json:"kept"`
	Discarded map[string]int `json:"discarded"`
}

type Report struct {
	RunID        string              `json:"run_id"`
	GeneratedAt  time.Time           `json:"generated_at"`
	KPIs         KPIs                `json:"kpis"`
	TopCountries []CountryAggregate  `json:"top_countries"`
	Countries    []CountryAggregate  `json:"countries"`
	Monthly      []Aggregate         `json:"monthly"`
	Weekday      []Aggregate         `json:"weekday"`
	Products     []ProductRevenueRow `json:"products"`
	TierSummary  []TierCount         `json:"tier_summary"`
	Segments     []CountrySegment    `json:"segments"`
	Clusters     int                 `json:"clusters"`
	Transactions int                 `json:"transactions"`
	CleanStats   *CleanStats         `json:"clean_stats,omitempty"`
	Warnings     []Warning           `json:"warnings,omitempty"`
}
