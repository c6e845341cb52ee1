package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"resty.dev/v3"

	"cryptoetl/internal/jsonstore"
	"cryptoetl/internal/market"
	"cryptoetl/internal/ratelimit"
)

const filePrefix = "coingecko_crypto_market"

// Query holds the paging parameters of a markets request.
type Query struct {
	Order     string
	PerPage   int
	Page      int
	Sparkline bool
}

// Options configures a MarketFetcher.
type Options struct {
	// Coins is the list of CoinGecko coin ids to request
	Coins    []string
	Currency string
	Endpoint string
	Query    Query

	Client  *resty.Client
	Limiter *ratelimit.Limiter
	Logger  *slog.Logger
}

// MarketFetcher fetches a market snapshot for a fixed coin list from CoinGecko
type MarketFetcher struct {
	coins    []string
	currency string
	endpoint string
	query    Query

	client  *resty.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewMarketFetcher creates a fetcher. Missing query fields default to
// market_cap_desc ordering, one page sized to the coin list.
func NewMarketFetcher(opts Options) *MarketFetcher {
	q := opts.Query
	if q.Order == "" {
		q.Order = "market_cap_desc"
	}
	if q.PerPage <= 0 {
		q.PerPage = max(len(opts.Coins), 1)
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	client := opts.Client
	if client == nil {
		client = NewHTTPClient(ClientOptions{})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MarketFetcher{
		coins:    append([]string(nil), opts.Coins...),
		currency: opts.Currency,
		endpoint: opts.Endpoint,
		query:    q,
		client:   client,
		limiter:  opts.Limiter,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// BuildQuery returns the markets URL for the configured coins and currency.
func (f *MarketFetcher) BuildQuery(order string, perPage, page int, sparkline bool) string {
	return fmt.Sprintf("%s?vs_currency=%s&ids=%s&order=%s&per_page=%d&page=%d&sparkline=%t",
		f.endpoint, f.currency, strings.Join(f.coins, ","), order, perPage, page, sparkline)
}

// Fetch performs one GET against the markets endpoint and validates every
// record. The returned result is not yet persisted.
func (f *MarketFetcher) Fetch(ctx context.Context) (FetchResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, ratelimit.APICoinGecko); err != nil {
			return FetchResult{}, NewTimeoutError(err)
		}
	}

	url := f.BuildQuery(f.query.Order, f.query.PerPage, f.query.Page, f.query.Sparkline)
	f.logger.Info("fetching market snapshot", "url", url)

	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return FetchResult{}, NewTimeoutError(err)
		}
		return FetchResult{}, NewNetworkError(err)
	}

	if !resp.IsSuccess() {
		return FetchResult{}, ClassifyHTTPError(resp.StatusCode())
	}

	var records []market.Record
	if err := json.Unmarshal(resp.Bytes(), &records); err != nil {
		return FetchResult{}, NewValidationError("response is not a list of market records", err)
	}

	if err := validate(records); err != nil {
		return FetchResult{}, NewValidationError("market record failed validation", err)
	}

	result := FetchResult{
		Records:       records,
		Source:        market.Source,
		BatchID:       f.newID(),
		LoadTimestamp: f.now().Format(market.TimestampLayout),
	}
	f.logger.Info("fetched market snapshot",
		"batch_id", result.BatchID,
		"records", len(records))

	return result, nil
}

// Persist writes the batch as JSON into dir and returns a copy carrying the
// file name and path. A result that was already persisted is refused.
func (f *MarketFetcher) Persist(result FetchResult, dir string) (FetchResult, error) {
	if result.Persisted() {
		return FetchResult{}, ErrAlreadyPersisted
	}

	filename := fmt.Sprintf("%s_%s_%s.json", filePrefix, result.LoadTimestamp, result.BatchID)
	fullPath := filepath.Join(dir, filename)

	if err := jsonstore.WriteNew(fullPath, result.Records); err != nil {
		return FetchResult{}, fmt.Errorf("persist raw batch %s: %w", result.BatchID, err)
	}

	f.logger.Info("persisted raw batch", "batch_id", result.BatchID, "path", fullPath)
	return result.withFile(filename, fullPath), nil
}

// validate checks every record for the required keys, in order.
func validate(records []market.Record) error {
	for i, rec := range records {
		if rec == nil {
			return fmt.Errorf("record #%d is null", i)
		}
		for _, field := range market.RequiredFields {
			if _, ok := rec[field]; !ok {
				id := rec.ID()
				if id == "" {
					id = fmt.Sprintf("#%d", i)
				}
				return &FieldMissingError{RecordID: id, Field: field}
			}
		}
	}
	return nil
}
