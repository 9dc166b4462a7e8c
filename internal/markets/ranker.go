package markets

import (
	"fmt"
	"sort"

	"github.com/jlow/kalshipulse/internal/models"
)

// Rank orders events by the selected key, descending, and returns at most
// limit of them. Sorting is stable: events with equal key values keep their
// pre-sort relative order. The price_change key orders by the absolute value
// of MaxPriceChange and assumes enrichment already ran; Rank never triggers
// it.
//
// limit must be positive and sortBy must be a supported key; violations are
// the caller's contract error and are returned loudly rather than defaulted.
// The front ends use limits in the 5–20 range.
func Rank(events []models.Event, sortBy string, limit int) ([]models.Event, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if !models.ValidSortKey(sortBy) {
		return nil, fmt.Errorf("unsupported sort key %q", sortBy)
	}

	ranked := make([]models.Event, len(events))
	copy(ranked, events)

	switch sortBy {
	case models.SortByVolume:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].TotalVolume > ranked[j].TotalVolume
		})
	case models.SortByNumMarkets:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].NumMarkets > ranked[j].NumMarkets
		})
	case models.SortByPriceChange:
		sort.SliceStable(ranked, func(i, j int) bool {
			return abs(ranked[i].MaxPriceChange) > abs(ranked[j].MaxPriceChange)
		})
	}

	if limit > len(ranked) {
		limit = len(ranked)
	}
	return ranked[:limit], nil
}
