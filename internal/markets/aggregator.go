package markets

import (
	"math"
	"sort"
	"strconv"

	"github.com/jlow/kalshipulse/internal/kalshi"
	"github.com/jlow/kalshipulse/internal/models"
)

// marketStatusActive is the only market status that enters aggregation.
const marketStatusActive = "active"

// Aggregator groups an upstream event's active markets into normalized
// options with derived probabilities and per-event totals.
type Aggregator struct {
	classifier *Classifier
}

// NewAggregator creates an Aggregator that admits events via the classifier.
func NewAggregator(classifier *Classifier) *Aggregator {
	return &Aggregator{classifier: classifier}
}

// Aggregate builds one Event per upstream event that the classifier accepts
// and that has at least one active market. Events with no active markets are
// dropped entirely. Options within each event are sorted by probability
// descending with a stable sort, so equal probabilities keep their upstream
// relative order. The returned slice is unsorted across events; ordering is
// the ranking stage's job.
//
// Aggregate never mutates its input and never fails on malformed market
// fields: an unparseable bid yields probability 0 and a missing YES label
// becomes "Unknown".
func (a *Aggregator) Aggregate(events []kalshi.Event, category string) []models.Event {
	var result []models.Event

	for _, ev := range events {
		if !a.classifier.Matches(category, ev) {
			continue
		}

		var options []models.Option
		var totalVolume int64
		for _, m := range ev.Markets {
			if m.Status != marketStatusActive {
				continue
			}
			name := m.YesSubTitle
			if name == "" {
				name = "Unknown"
			}
			volume := m.Volume24h
			if volume < 0 {
				volume = 0
			}
			options = append(options, models.Option{
				Name:         name,
				Probability:  parseProbability(m.YesBidDollars),
				Volume24h:    volume,
				Ticker:       m.Ticker,
				SeriesTicker: ev.SeriesTicker,
			})
			totalVolume += volume
		}

		if len(options) == 0 {
			continue
		}

		sort.SliceStable(options, func(i, j int) bool {
			return options[i].Probability > options[j].Probability
		})

		result = append(result, models.Event{
			EventTicker:  ev.EventTicker,
			Title:        ev.Title,
			Category:     ev.Category,
			SeriesTicker: ev.SeriesTicker,
			Options:      options,
			TotalVolume:  totalVolume,
			NumMarkets:   len(options),
		})
	}

	return result
}

// parseProbability converts a dollar-denominated YES bid ("0.9600") to an
// integer percentage: clamp(floor(bid × 100), 0, 100). Malformed or missing
// input yields 0, never an error.
func parseProbability(yesBidDollars string) int {
	bid, err := strconv.ParseFloat(yesBidDollars, 64)
	if err != nil || math.IsNaN(bid) || math.IsInf(bid, 0) {
		return 0
	}
	p := int(math.Floor(bid * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
