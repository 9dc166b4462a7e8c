// Package models defines the core domain entities for the kalshipulse application.
// These models represent the normalized view of Kalshi prediction-market data:
// events (questions) and their multi-way outcome options.
//
// Terminology (matching Kalshi's own naming):
//   - Event: a real-world question that groups one or more tradeable markets.
//   - Market: a single yes/no contract within an event; its bid price is the
//     market-implied probability of "yes".
//   - Option: our normalized view of one market as a named, probability-weighted
//     choice within its parent event.
//
// Both Option and Event are request-scoped value objects. They are built from
// one fetched snapshot, rendered once, and discarded; nothing here writes back
// to the upstream source.
package models

import "errors"

// Option is one outcome of an event, derived from a single active market.
//
// Probability is an integer percentage in [0,100], derived as floor(bid × 100)
// from the market's YES bid price. A malformed or missing price yields 0.
// PriceChange24h stays 0 unless price-delta enrichment ran for this option.
type Option struct {
	Name           string `json:"name"`
	Probability    int    `json:"probability"`
	Volume24h      int64  `json:"volume_24h"`
	Ticker         string `json:"ticker"`
	SeriesTicker   string `json:"series_ticker"`
	PriceChange24h int    `json:"price_change_24h"` // signed percentage points
}

// Event groups all active options for a single upstream event.
//
// Options are ordered by probability descending; options with equal
// probability keep their upstream relative order. An event with zero active
// markets is never materialized.
type Event struct {
	EventTicker    string   `json:"event_ticker"`
	Title          string   `json:"title"`
	Category       string   `json:"category"` // upstream category label, verbatim
	SeriesTicker   string   `json:"series_ticker"`
	Options        []Option `json:"options"`
	TotalVolume    int64    `json:"total_volume"`
	NumMarkets     int      `json:"num_markets"`
	MaxPriceChange int      `json:"max_price_change"` // largest |option change|, signed
}

// TopOptions returns the first n options. Options are already sorted by
// probability descending, so this is the n most likely outcomes.
func (e *Event) TopOptions(n int) []Option {
	if n >= len(e.Options) {
		return e.Options
	}
	return e.Options[:n]
}

// Validate checks the structural invariants of a derived event.
func (e *Event) Validate() error {
	if e.EventTicker == "" {
		return errors.New("event ticker must not be empty")
	}
	if e.Title == "" {
		return errors.New("event title must not be empty")
	}
	if len(e.Options) == 0 {
		return errors.New("event must have at least one option")
	}
	if e.NumMarkets != len(e.Options) {
		return errors.New("num markets must equal the number of options")
	}
	var sum int64
	for _, opt := range e.Options {
		if opt.Probability < 0 || opt.Probability > 100 {
			return errors.New("option probability must be between 0 and 100")
		}
		if opt.Volume24h < 0 {
			return errors.New("option volume must not be negative")
		}
		sum += opt.Volume24h
	}
	if sum != e.TotalVolume {
		return errors.New("total volume must equal the sum of option volumes")
	}
	return nil
}
