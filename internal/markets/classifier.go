package markets

import (
	"strings"

	"github.com/jlow/kalshipulse/internal/kalshi"
)

// ClassifierConfig carries the lookup tables the classifier matches against.
// It is injected at construction so tests can substitute their own tables;
// the keyword list is configuration, not semantics, and new coin names get
// added here, not in code.
type ClassifierConfig struct {
	// CategoryTargets maps a lower-cased user-facing category name to the
	// lower-cased upstream taxonomy labels it should match.
	CategoryTargets map[string][]string
	// CryptoKeywords are title substrings that mark a financial event as
	// crypto-flavored. Used to split "crypto" out of the Financials label and
	// to keep those same events out of "economics".
	CryptoKeywords []string
}

// DefaultClassifierConfig returns the production tables. Upstream categories
// as of writing: Climate and Weather, Companies, Economics, Elections,
// Entertainment, Financials, Health, Politics, Science and Technology,
// Social, Sports, Transportation, World.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		CategoryTargets: map[string][]string{
			// Financials holds Fed decisions, inflation, rates, and crypto
			// prices; economics and crypto partition it via the keyword list.
			"economics": {"financials", "economics"},
			"crypto":    {"financials"},
			"politics":  {"politics", "elections"},

			"elections":      {"elections"},
			"financials":     {"financials"},
			"sports":         {"sports"},
			"entertainment":  {"entertainment"},
			"climate":        {"climate and weather"},
			"weather":        {"climate and weather"},
			"health":         {"health"},
			"science":        {"science and technology"},
			"technology":     {"science and technology"},
			"world":          {"world"},
			"companies":      {"companies"},
			"social":         {"social"},
			"transportation": {"transportation"},
		},
		CryptoKeywords: []string{
			"bitcoin", "btc", "ethereum", "eth", "crypto", "cryptocurrency",
			"solana", "sol", "dogecoin", "doge", "xrp", "ripple", "cardano",
			"ada", "polkadot", "dot", "avalanche", "avax", "chainlink", "link",
			"polygon", "matic", "litecoin", "ltc", "uniswap", "uni", "shiba",
			"pepe", "memecoin", "altcoin", "defi", "nft", "web3", "binance",
			"coinbase", "stablecoin", "usdt", "usdc",
		},
	}
}

// Classifier decides whether an upstream event belongs to a requested
// user-facing category.
type Classifier struct {
	targets        map[string][]string
	cryptoKeywords []string
}

// NewClassifier creates a Classifier from the given tables. Keys, labels,
// and keywords are lower-cased once here so matching never re-normalizes.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	targets := make(map[string][]string, len(cfg.CategoryTargets))
	for name, labels := range cfg.CategoryTargets {
		lowered := make([]string, len(labels))
		for i, label := range labels {
			lowered[i] = strings.ToLower(label)
		}
		targets[strings.ToLower(name)] = lowered
	}
	keywords := make([]string, len(cfg.CryptoKeywords))
	for i, kw := range cfg.CryptoKeywords {
		keywords[i] = strings.ToLower(kw)
	}
	return &Classifier{targets: targets, cryptoKeywords: keywords}
}

// Targets returns the upstream labels to match for a requested category. An
// unrecognized category falls back to itself as a single-label target.
func (c *Classifier) Targets(category string) []string {
	key := strings.ToLower(category)
	if labels, ok := c.targets[key]; ok {
		return labels
	}
	return []string{key}
}

// Matches reports whether the event belongs to the requested category.
//
// The base rule is a bidirectional partial match: the upstream category label
// is a substring of a target label or vice versa, which absorbs upstream
// label drift ("Financials" vs "financial"). Two refinements sit on top:
// crypto additionally requires a crypto keyword in the title, and economics
// additionally requires its absence, so the two cleanly partition Financials.
func (c *Classifier) Matches(category string, event kalshi.Event) bool {
	requested := strings.ToLower(category)
	eventCategory := strings.ToLower(event.Category)
	title := strings.ToLower(event.Title)

	base := false
	for _, target := range c.Targets(requested) {
		if target == "" || eventCategory == "" {
			continue
		}
		if strings.Contains(eventCategory, target) || strings.Contains(target, eventCategory) {
			base = true
			break
		}
	}
	if !base {
		return false
	}

	switch requested {
	case "crypto":
		return c.hasCryptoKeyword(title)
	case "economics":
		return !c.hasCryptoKeyword(title)
	}
	return true
}

func (c *Classifier) hasCryptoKeyword(loweredTitle string) bool {
	for _, kw := range c.cryptoKeywords {
		if strings.Contains(loweredTitle, kw) {
			return true
		}
	}
	return false
}
