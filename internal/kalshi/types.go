package kalshi

// EventsResponse from GET /events.
type EventsResponse struct {
	Events []Event `json:"events"`
	Cursor string  `json:"cursor"`
}

// Event represents an event from the Kalshi API, with its markets nested
// when the request asked for with_nested_markets=true.
type Event struct {
	EventTicker  string   `json:"event_ticker"`
	SeriesTicker string   `json:"series_ticker"`
	Title        string   `json:"title"`
	SubTitle     string   `json:"sub_title"`
	Category     string   `json:"category"`
	Markets      []Market `json:"markets"`
}

// Market represents a single yes/no contract nested inside an event.
// Dollar prices arrive as strings (sub-penny precision); parsing to a
// probability happens in the aggregation layer with a malformed-to-zero
// policy, so no field here is ever a parse hazard.
type Market struct {
	Ticker               string `json:"ticker"`
	EventTicker          string `json:"event_ticker"`
	Title                string `json:"title"`
	YesSubTitle          string `json:"yes_sub_title"`
	NoSubTitle           string `json:"no_sub_title"`
	Status               string `json:"status"`
	YesBidDollars        string `json:"yes_bid_dollars"`
	YesAskDollars        string `json:"yes_ask_dollars"`
	LastPriceDollars     string `json:"last_price_dollars"`
	PreviousPriceDollars string `json:"previous_price_dollars"`
	Volume24h            int64  `json:"volume_24h"`
	OpenInterest         int64  `json:"open_interest"`
}

// CandlesticksResponse from GET /series/{series}/markets/{ticker}/candlesticks.
type CandlesticksResponse struct {
	Ticker       string        `json:"ticker"`
	Candlesticks []Candlestick `json:"candlesticks"`
}

// Candlestick is one aggregated price bucket.
type Candlestick struct {
	EndPeriodTs int64       `json:"end_period_ts"`
	Volume      int64       `json:"volume"`
	Price       CandlePrice `json:"price"`
}

// CandlePrice carries cent-denominated prices for one bucket. Fields are
// pointers because the API omits them when no trades occurred in the period.
// One cent equals one percentage point of implied probability.
type CandlePrice struct {
	Open     *int `json:"open"`
	Close    *int `json:"close"`
	High     *int `json:"high"`
	Low      *int `json:"low"`
	Previous *int `json:"previous"`
}
