package models

// Sort keys accepted by the ranking stage. price_change requires the
// price-delta enrichment pass and is markedly slower, since it costs one
// historical lookup per option.
const (
	SortByVolume      = "volume"
	SortByNumMarkets  = "num_markets"
	SortByPriceChange = "price_change"
)

// ValidSortKey reports whether key is one of the supported sort keys.
func ValidSortKey(key string) bool {
	switch key {
	case SortByVolume, SortByNumMarkets, SortByPriceChange:
		return true
	}
	return false
}
