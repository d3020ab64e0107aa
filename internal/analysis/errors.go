package analysis

import (
	"fmt"
	"strings"
)

// SchemaError reports a dataset that cannot be cleaned at all because
// required columns are absent.
type SchemaError struct {
	Missing []string
	Header  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required columns not found: %s (header: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Header, ","))
}

// DiscardReason names why a raw row was left out of the cleaned table.
type DiscardReason string

const (
	DiscardMissingField DiscardReason = "missing_field"
	DiscardBadTimestamp DiscardReason = "bad_timestamp"
	DiscardBadQuantity  DiscardReason = "bad_quantity"
	DiscardBadUnitPrice DiscardReason = "bad_unit_price"
	DiscardCancelled    DiscardReason = "cancelled"
	DiscardNonPositive  DiscardReason = "non_positive"
)

// Warning codes for degenerate input that resolves to fallback values.
const (
	WarnZeroOrders      = "zero_orders"
	WarnZeroRevenue     = "zero_revenue"
	WarnClustersReduced = "clusters_reduced"
)
