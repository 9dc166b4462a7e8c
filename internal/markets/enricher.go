package markets

import (
	"context"
	"time"

	"github.com/jlow/kalshipulse/internal/kalshi"
	"github.com/jlow/kalshipulse/internal/logger"
	"github.com/jlow/kalshipulse/internal/models"
)

// CandleSource supplies historical price candles for a single market.
// Implemented by kalshi.Client; tests substitute fakes.
type CandleSource interface {
	GetMarketCandlesticks(ctx context.Context, seriesTicker, marketTicker string, startTs, endTs int64, periodInterval int) (*kalshi.CandlesticksResponse, error)
}

// dailyPeriodMinutes selects one-day candle buckets.
const dailyPeriodMinutes = 1440

// Enricher populates each option's 24-hour price change from historical
// candles. This costs one lookup per option, so it only runs when the caller
// asked to sort by price change.
type Enricher struct {
	source CandleSource
	now    func() time.Time
}

// NewEnricher creates an Enricher backed by the given candle source.
func NewEnricher(source CandleSource) *Enricher {
	return &Enricher{source: source, now: time.Now}
}

// Enrich fills in PriceChange24h for every option that carries both a series
// ticker and a market ticker, then sets each event's MaxPriceChange. A failed
// or empty lookup leaves that option's change at 0 and never aborts the rest;
// the final values are deterministic for a fixed set of lookup results
// regardless of how the lookups interleave. The input slice is updated in
// place and returned.
func (e *Enricher) Enrich(ctx context.Context, events []models.Event) []models.Event {
	for i := range events {
		ev := &events[i]
		for j := range ev.Options {
			opt := &ev.Options[j]
			if opt.SeriesTicker == "" || opt.Ticker == "" {
				continue
			}
			change, err := e.priceChange24h(ctx, opt.SeriesTicker, opt.Ticker)
			if err != nil {
				logger.Debug("price history unavailable for %s: %v", opt.Ticker, err)
				continue
			}
			opt.PriceChange24h = change
		}
		ev.MaxPriceChange = MaxAbsChange(ev.Options)
	}
	return events
}

func (e *Enricher) priceChange24h(ctx context.Context, seriesTicker, marketTicker string) (int, error) {
	end := e.now()
	start := end.Add(-24 * time.Hour)
	resp, err := e.source.GetMarketCandlesticks(ctx, seriesTicker, marketTicker, start.Unix(), end.Unix(), dailyPeriodMinutes)
	if err != nil {
		return 0, err
	}
	return PriceChangeFromCandles(resp.Candlesticks), nil
}

// PriceChangeFromCandles derives a 24-hour change in percentage points from
// the most recent candle: close minus previous when a previous reference
// price exists, else close minus open, else 0. Candle prices are in cents, so the
// subtraction is already in percentage points.
func PriceChangeFromCandles(candles []kalshi.Candlestick) int {
	if len(candles) == 0 {
		return 0
	}
	price := candles[len(candles)-1].Price
	open := intOrZero(price.Open)
	closePrice := intOrZero(price.Close)
	previous := intOrZero(price.Previous)

	switch {
	case previous != 0:
		return closePrice - previous
	case open != 0:
		return closePrice - open
	default:
		return 0
	}
}

// MaxAbsChange returns the option-level change with the largest absolute
// value, keeping the first encountered on ties. Returns 0 for no options.
func MaxAbsChange(options []models.Option) int {
	maxChange := 0
	for _, opt := range options {
		if abs(opt.PriceChange24h) > abs(maxChange) {
			maxChange = opt.PriceChange24h
		}
	}
	return maxChange
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
