package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"cryptoetl/internal/market"
)

// MarketRecord returns a complete CoinGecko market record for id.
// A nil roi produces "roi": null.
func MarketRecord(id string, price float64, roi map[string]any) market.Record {
	var roiValue any
	if roi != nil {
		roiValue = roi
	}

	return market.Record{
		"id":                               id,
		"symbol":                           strings.ToLower(id[:3]),
		"name":                             strings.ToUpper(id[:1]) + id[1:],
		"image":                            "https://assets.coingecko.com/coins/images/1/large/" + id + ".png",
		"current_price":                    price,
		"market_cap":                       price * 1e6,
		"market_cap_rank":                  1,
		"fully_diluted_valuation":          price * 2e6,
		"total_volume":                     price * 1e4,
		"high_24h":                         price * 1.05,
		"low_24h":                          price * 0.95,
		"price_change_24h":                 -12.5,
		"price_change_percentage_24h":      -0.4,
		"market_cap_change_24h":            -1.5e8,
		"market_cap_change_percentage_24h": -0.35,
		"circulating_supply":               19700000.0,
		"total_supply":                     21000000.0,
		"max_supply":                       nil,
		"ath":                              price * 1.2,
		"ath_change_percentage":            -16.7,
		"ath_date":                         "2024-03-14T07:10:36.635Z",
		"atl":                              0.43,
		"atl_change_percentage":            1.5e7,
		"atl_date":                         "2013-07-06T00:00:00.000Z",
		"roi":                              roiValue,
		"last_updated":                     "2024-06-01T12:00:00.000Z",
	}
}

// ROI builds a populated roi sub-object.
func ROI(times float64, currency string, percentage float64) map[string]any {
	return map[string]any{
		"times":      times,
		"currency":   currency,
		"percentage": percentage,
	}
}

// SampleBatch is the three-record batch used across package tests: one
// record without roi and two with it.
func SampleBatch() []market.Record {
	return []market.Record{
		MarketRecord("bitcoin", 67000, nil),
		MarketRecord("ethereum", 3500, ROI(72.5, "btc", 7250.1)),
		MarketRecord("solana", 150, ROI(2.1, "usd", 210.4)),
	}
}

// MarketServer serves body with status on every request and counts hits.
type MarketServer struct {
	*httptest.Server
	hits     atomic.Int32
	LastPath atomic.Value
}

// Hits returns how many requests the server received.
func (s *MarketServer) Hits() int {
	return int(s.hits.Load())
}

// NewMarketServer starts a fake CoinGecko markets endpoint.
func NewMarketServer(t *testing.T, status int, body any) *MarketServer {
	t.Helper()

	payload, ok := body.([]byte)
	if !ok {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal server body: %v", err)
		}
	}

	s := &MarketServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.LastPath.Store(r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(payload)
	}))
	t.Cleanup(s.Close)
	return s
}
