package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jlow/kalshipulse/internal/models"
)

type fakeProvider struct {
	events map[string][]models.Event
	err    error
	calls  []string
}

func (f *fakeProvider) TopEventsByCategory(_ context.Context, category string, topN int, sortBy string) ([]models.Event, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%d:%s", category, topN, sortBy))
	if f.err != nil {
		return nil, f.err
	}
	return f.events[category], nil
}

func politicsEvents() map[string][]models.Event {
	return map[string][]models.Event{
		"Politics": {{
			EventTicker: "PRES",
			Title:       "Presidential winner?",
			Category:    "Politics",
			Options:     []models.Option{{Name: "Candidate A", Probability: 55, Volume24h: 900}},
			TotalVolume: 900,
			NumMarkets:  1,
		}},
	}
}

func newTestServer(provider *fakeProvider, ttl time.Duration) *Server {
	return New(provider, Options{
		ListenAddr: ":0",
		CacheTTL:   ttl,
		Categories: []string{"Politics", "Economics"},
	})
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeProvider{}, 0)

	w := get(t, s, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestEventsAPIDefaults(t *testing.T) {
	provider := &fakeProvider{events: politicsEvents()}
	s := newTestServer(provider, 0)

	w := get(t, s, "/api/events")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(provider.calls) != 1 || provider.calls[0] != "Politics:5:volume" {
		t.Errorf("provider calls = %v, want default Politics:5:volume", provider.calls)
	}

	var body struct {
		Category string         `json:"category"`
		Sort     string         `json:"sort"`
		Count    int            `json:"count"`
		Events   []models.Event `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Category != "Politics" || body.Sort != "volume" || body.Count != 1 {
		t.Errorf("body = %+v", body)
	}
	if len(body.Events) != 1 || body.Events[0].Title != "Presidential winner?" {
		t.Errorf("events = %+v", body.Events)
	}
}

func TestEventsAPIQueryParams(t *testing.T) {
	provider := &fakeProvider{events: politicsEvents()}
	s := newTestServer(provider, 0)

	w := get(t, s, "/api/events?category=Economics&limit=3&sort=price_change")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if len(provider.calls) != 1 || provider.calls[0] != "Economics:3:price_change" {
		t.Errorf("provider calls = %v", provider.calls)
	}
}

func TestEventsAPIRejectsBadParams(t *testing.T) {
	tests := []string{
		"/api/events?sort=alphabetical",
		"/api/events?limit=0",
		"/api/events?limit=21",
		"/api/events?limit=abc",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			provider := &fakeProvider{events: politicsEvents()}
			s := newTestServer(provider, 0)

			w := get(t, s, path)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if len(provider.calls) != 0 {
				t.Errorf("provider must not be called on bad params, got %v", provider.calls)
			}
		})
	}
}

func TestEventsAPIProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: fmt.Errorf("kalshi down")}
	s := newTestServer(provider, 0)

	w := get(t, s, "/api/events")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if strings.Contains(w.Body.String(), "kalshi down") {
		t.Errorf("internal error leaked to client: %s", w.Body.String())
	}
}

func TestEventsAPICaching(t *testing.T) {
	provider := &fakeProvider{events: politicsEvents()}
	s := newTestServer(provider, time.Minute)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.cache.now = func() time.Time { return now }

	get(t, s, "/api/events")
	get(t, s, "/api/events")
	if len(provider.calls) != 1 {
		t.Fatalf("provider calls = %d, want 1 (second request cached)", len(provider.calls))
	}

	// A different key misses the cache.
	get(t, s, "/api/events?sort=num_markets")
	if len(provider.calls) != 2 {
		t.Fatalf("provider calls = %d, want 2 after new sort key", len(provider.calls))
	}

	// Expiry forces a refetch.
	now = now.Add(2 * time.Minute)
	get(t, s, "/api/events")
	if len(provider.calls) != 3 {
		t.Fatalf("provider calls = %d, want 3 after TTL expiry", len(provider.calls))
	}
}

func TestIndexPage(t *testing.T) {
	provider := &fakeProvider{events: politicsEvents()}
	s := newTestServer(provider, 0)

	w := get(t, s, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"Presidential winner?", "Candidate A", "55%", "Economics"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestIndexPageEmptyCategory(t *testing.T) {
	provider := &fakeProvider{events: map[string][]models.Event{}}
	s := newTestServer(provider, 0)

	w := get(t, s, "/?category=Economics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No active events found") {
		t.Errorf("missing empty state: %s", w.Body.String())
	}
}

func TestIndexPageProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: fmt.Errorf("kalshi down")}
	s := newTestServer(provider, 0)

	w := get(t, s, "/")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "temporarily unavailable") {
		t.Errorf("missing error banner: %s", body)
	}
	if strings.Contains(body, "kalshi down") {
		t.Errorf("internal error leaked to client: %s", body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(&fakeProvider{}, 0)

	w := get(t, s, "/healthz")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want caller's value echoed", got)
	}
}
