package kalshi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetEvents(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("expected path /events, got %s", r.URL.Path)
		}

		query := r.URL.Query()
		if query.Get("status") != "open" {
			t.Errorf("expected status=open, got %s", query.Get("status"))
		}
		if query.Get("with_nested_markets") != "true" {
			t.Errorf("expected with_nested_markets=true, got %s", query.Get("with_nested_markets"))
		}
		if query.Get("limit") != "200" {
			t.Errorf("expected limit=200, got %s", query.Get("limit"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"events": [
				{
					"event_ticker": "KXFEDCHAIR",
					"series_ticker": "KXFED",
					"title": "Who will be the next Fed Chair?",
					"category": "Politics",
					"markets": [
						{
							"ticker": "KXFEDCHAIR-WARSH",
							"event_ticker": "KXFEDCHAIR",
							"status": "active",
							"yes_sub_title": "Kevin Warsh",
							"yes_bid_dollars": "0.9600",
							"volume_24h": 3275000
						}
					]
				}
			],
			"cursor": ""
		}`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, 5*time.Second)
	resp, err := client.GetEvents(context.Background(), "open", true, 200)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}

	if len(resp.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(resp.Events))
	}
	ev := resp.Events[0]
	if ev.EventTicker != "KXFEDCHAIR" || ev.SeriesTicker != "KXFED" {
		t.Errorf("unexpected event identifiers: %+v", ev)
	}
	if len(ev.Markets) != 1 {
		t.Fatalf("expected 1 nested market, got %d", len(ev.Markets))
	}
	m := ev.Markets[0]
	if m.YesBidDollars != "0.9600" {
		t.Errorf("expected yes bid 0.9600, got %s", m.YesBidDollars)
	}
	if m.Volume24h != 3275000 {
		t.Errorf("expected volume 3275000, got %d", m.Volume24h)
	}
}

func TestGetMarketCandlesticks(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/series/KXFED/markets/KXFEDCHAIR-WARSH/candlesticks"
		if r.URL.Path != wantPath {
			t.Errorf("expected path %s, got %s", wantPath, r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("period_interval") != "1440" {
			t.Errorf("expected period_interval=1440, got %s", query.Get("period_interval"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"ticker": "KXFEDCHAIR-WARSH",
			"candlesticks": [
				{"end_period_ts": 1700000000, "price": {"open": 91, "close": 96, "previous": 90}}
			]
		}`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, 5*time.Second)
	resp, err := client.GetMarketCandlesticks(context.Background(), "KXFED", "KXFEDCHAIR-WARSH", 1699913600, 1700000000, 1440)
	if err != nil {
		t.Fatalf("GetMarketCandlesticks failed: %v", err)
	}

	if len(resp.Candlesticks) != 1 {
		t.Fatalf("expected 1 candlestick, got %d", len(resp.Candlesticks))
	}
	price := resp.Candlesticks[0].Price
	if price.Close == nil || *price.Close != 96 {
		t.Errorf("expected close 96, got %v", price.Close)
	}
	if price.Previous == nil || *price.Previous != 90 {
		t.Errorf("expected previous 90, got %v", price.Previous)
	}
	if price.High != nil {
		t.Errorf("expected absent high to stay nil, got %v", *price.High)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events": [], "cursor": ""}`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, 5*time.Second, WithRetries(3, time.Millisecond))
	if _, err := client.GetEvents(context.Background(), "open", true, 10); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, 5*time.Second, WithRetries(3, time.Millisecond))
	if _, err := client.GetEvents(context.Background(), "open", true, 10); err == nil {
		t.Fatal("expected error on 404, got nil")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected a single attempt on 404, got %d", got)
	}
}
