package markets

import (
	"reflect"
	"testing"

	"github.com/jlow/kalshipulse/internal/kalshi"
)

func newTestAggregator() *Aggregator {
	return NewAggregator(NewClassifier(DefaultClassifierConfig()))
}

func TestParseProbability(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0.9550", 95},
		{"1.0000", 100},
		{"0.5", 50},
		{"0.0000", 0},
		{"0.0099", 0},
		{"", 0},
		{"n/a", 0},
		{"-0.25", 0},  // clamped low
		{"1.5000", 100}, // clamped high
	}

	for _, tt := range tests {
		if got := parseProbability(tt.in); got != tt.want {
			t.Errorf("parseProbability(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAggregateBuildsEvents(t *testing.T) {
	agg := newTestAggregator()

	events := []kalshi.Event{
		{
			EventTicker:  "KXFEDCHAIR",
			SeriesTicker: "KXFED",
			Title:        "Who will be the next Fed Chair?",
			Category:     "Politics",
			Markets: []kalshi.Market{
				{Ticker: "KXFEDCHAIR-SHELTON", Status: "active", YesSubTitle: "Judy Shelton", YesBidDollars: "0.0300", Volume24h: 500},
				{Ticker: "KXFEDCHAIR-WARSH", Status: "active", YesSubTitle: "Kevin Warsh", YesBidDollars: "0.9600", Volume24h: 2000},
				{Ticker: "KXFEDCHAIR-CLOSED", Status: "closed", YesSubTitle: "Closed Option", YesBidDollars: "0.5000", Volume24h: 999},
			},
		},
	}

	got := agg.Aggregate(events, "politics")
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}

	ev := got[0]
	if ev.NumMarkets != 2 || len(ev.Options) != 2 {
		t.Fatalf("expected 2 active options, got %d (NumMarkets=%d)", len(ev.Options), ev.NumMarkets)
	}
	if ev.TotalVolume != 2500 {
		t.Errorf("TotalVolume = %d, want 2500", ev.TotalVolume)
	}
	if ev.Options[0].Name != "Kevin Warsh" || ev.Options[0].Probability != 96 {
		t.Errorf("top option = %s/%d, want Kevin Warsh/96", ev.Options[0].Name, ev.Options[0].Probability)
	}
	if ev.Options[0].SeriesTicker != "KXFED" {
		t.Errorf("option series ticker = %s, want KXFED", ev.Options[0].SeriesTicker)
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("aggregated event failed validation: %v", err)
	}
}

func TestAggregateDropsEventWithNoActiveMarkets(t *testing.T) {
	agg := newTestAggregator()

	events := []kalshi.Event{
		{
			EventTicker: "KXDEAD",
			Title:       "All settled?",
			Category:    "Politics",
			Markets: []kalshi.Market{
				{Ticker: "KXDEAD-A", Status: "settled", YesBidDollars: "0.50"},
				{Ticker: "KXDEAD-B", Status: "closed", YesBidDollars: "0.50"},
			},
		},
	}

	if got := agg.Aggregate(events, "politics"); len(got) != 0 {
		t.Errorf("expected event with no active markets to be dropped, got %d events", len(got))
	}
}

func TestAggregateMalformedFieldsDefault(t *testing.T) {
	agg := newTestAggregator()

	events := []kalshi.Event{
		{
			EventTicker: "KXODD",
			Title:       "Malformed quotes?",
			Category:    "Politics",
			Markets: []kalshi.Market{
				{Ticker: "KXODD-A", Status: "active", YesSubTitle: "", YesBidDollars: "not-a-price", Volume24h: -5},
			},
		},
	}

	got := agg.Aggregate(events, "politics")
	if len(got) != 1 {
		t.Fatalf("malformed fields must not drop the event, got %d events", len(got))
	}
	opt := got[0].Options[0]
	if opt.Probability != 0 {
		t.Errorf("malformed bid probability = %d, want 0", opt.Probability)
	}
	if opt.Name != "Unknown" {
		t.Errorf("missing label name = %q, want Unknown", opt.Name)
	}
	if opt.Volume24h != 0 {
		t.Errorf("negative volume = %d, want 0", opt.Volume24h)
	}
}

func TestAggregateStableTieOrder(t *testing.T) {
	agg := newTestAggregator()

	events := []kalshi.Event{
		{
			EventTicker: "KXTIE",
			Title:       "Tied options?",
			Category:    "Politics",
			Markets: []kalshi.Market{
				{Ticker: "KXTIE-FIRST", Status: "active", YesSubTitle: "First", YesBidDollars: "0.10"},
				{Ticker: "KXTIE-SECOND", Status: "active", YesSubTitle: "Second", YesBidDollars: "0.10"},
				{Ticker: "KXTIE-TOP", Status: "active", YesSubTitle: "Top", YesBidDollars: "0.80"},
			},
		},
	}

	got := agg.Aggregate(events, "politics")
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	names := []string{got[0].Options[0].Name, got[0].Options[1].Name, got[0].Options[2].Name}
	want := []string{"Top", "First", "Second"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("option order = %v, want %v (equal probabilities keep upstream order)", names, want)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	agg := newTestAggregator()

	events := []kalshi.Event{
		{
			EventTicker: "KXREP",
			Title:       "Repeatable?",
			Category:    "Politics",
			Markets: []kalshi.Market{
				{Ticker: "KXREP-A", Status: "active", YesSubTitle: "A", YesBidDollars: "0.60", Volume24h: 10},
				{Ticker: "KXREP-B", Status: "active", YesSubTitle: "B", YesBidDollars: "0.40", Volume24h: 20},
			},
		},
	}

	first := agg.Aggregate(events, "politics")
	second := agg.Aggregate(events, "politics")
	if !reflect.DeepEqual(first, second) {
		t.Error("Aggregate is not idempotent over the same snapshot")
	}
}
