// Package markets implements the aggregation pipeline that turns a flat list
// of individually-priced binary markets into grouped, percentage-normalized,
// ranked event leaderboards.
//
// The pipeline stages run as classify, aggregate, optionally enrich, rank:
//
//	Classifier  maps user-facing category names to upstream taxonomy labels
//	            and decides which events belong to a requested category.
//	Aggregator  groups an event's active markets into options with derived
//	            probabilities, total volume, and a stable option ordering.
//	Enricher    optionally adds a 24-hour price change per option from
//	            historical candles (one lookup per option, the slow path).
//	Rank        orders events by volume, option count, or price change and
//	            truncates to the requested count.
//
// Each invocation runs synchronously over its own freshly fetched snapshot;
// no state is shared across requests. Callers own caching and cancellation.
package markets

import (
	"context"
	"fmt"
	"time"

	"github.com/jlow/kalshipulse/internal/kalshi"
	"github.com/jlow/kalshipulse/internal/logger"
	"github.com/jlow/kalshipulse/internal/models"
)

// EventSource lists open upstream events with nested market quotes.
// Implemented by kalshi.Client; tests substitute fakes.
type EventSource interface {
	GetEvents(ctx context.Context, status string, withNestedMarkets bool, limit int) (*kalshi.EventsResponse, error)
}

const (
	fetchStatus = "open"
	fetchLimit  = 200 // upstream per-request maximum
)

// Service is the single entry point the front ends consume. It encapsulates
// the whole pipeline behind TopEventsByCategory.
type Service struct {
	source     EventSource
	aggregator *Aggregator
	enricher   *Enricher
}

// NewService wires the pipeline. The classifier tables come from cfg so tests
// and deployments can adjust them without touching code.
func NewService(source EventSource, candles CandleSource, cfg ClassifierConfig) *Service {
	return &Service{
		source:     source,
		aggregator: NewAggregator(NewClassifier(cfg)),
		enricher:   NewEnricher(candles),
	}
}

// TopEventsByCategory returns at most topN events for the category, ordered
// by sortBy. A whole-fetch transport failure propagates to the caller;
// per-record data defects degrade silently per the aggregation rules. An
// empty result is not an error.
func (s *Service) TopEventsByCategory(ctx context.Context, category string, topN int, sortBy string) ([]models.Event, error) {
	if topN < 1 {
		return nil, fmt.Errorf("topN must be positive, got %d", topN)
	}
	if !models.ValidSortKey(sortBy) {
		return nil, fmt.Errorf("unsupported sort key %q", sortBy)
	}

	start := time.Now()
	resp, err := s.source.GetEvents(ctx, fetchStatus, true, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	logger.Debug("fetched %d open events in %v", len(resp.Events), time.Since(start))

	events := s.aggregator.Aggregate(resp.Events, category)
	logger.Debug("category %q matched %d events with active markets", category, len(events))

	if sortBy == models.SortByPriceChange {
		// One candle lookup per option; this is the slow path callers opt into.
		events = s.enricher.Enrich(ctx, events)
	}

	ranked, err := Rank(events, sortBy, topN)
	if err != nil {
		return nil, err
	}
	logger.Info("top events: category=%s sort=%s returned=%d elapsed=%v", category, sortBy, len(ranked), time.Since(start))
	return ranked, nil
}
