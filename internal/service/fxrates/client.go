package fxrates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PlumbWatch/internal/domain/models"
	drepo "PlumbWatch/internal/domain/repository"
	"PlumbWatch/pkg/cache"
	xhttp "PlumbWatch/pkg/http"
	"PlumbWatch/pkg/logger"
	"PlumbWatch/pkg/util"
)

const (
	DefaultBaseURL = "https://api.exchangerate-api.com"
	DefaultTTL     = 60 * time.Second
)

var errMissingRate = errors.New("fxrates: currency missing from feed")

// quote describes how a pair is read from a USD-based table of units per dollar.
type quote struct {
	currency string
	inverted bool // true for XXX/USD pairs
}

var pairs = map[models.Series]quote{
	models.EURUSD: {currency: "EUR", inverted: true},
	models.GBPUSD: {currency: "GBP", inverted: true},
	models.USDJPY: {currency: "JPY"},
	models.USDCHF: {currency: "CHF"},
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithAPIKey sends key as a bearer token. The public endpoint works without one.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithCacheOptions(opts ...cache.MemoryOption) Option {
	return func(c *Client) { c.cacheOpts = append(c.cacheOpts, opts...) }
}

// Client reads spot FX from a USD-based latest-rates feed. The feed has no history,
// so a series is at most one point long.
type Client struct {
	baseURL   string
	apiKey    string
	ttl       time.Duration
	http      *xhttp.Client
	cache     *cache.MemoryCache
	cacheOpts []cache.MemoryOption
	logger    *logger.Logger
	metrics   drepo.Metrics
}

var _ drepo.SeriesProvider = (*Client)(nil)

func New(httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		ttl:     DefaultTTL,
		http:    httpClient,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient()
	}

	cacheOpts := []cache.MemoryOption{cache.WithMemoryCleanup(5 * c.ttl)}
	if c.metrics != nil {
		cacheOpts = append(cacheOpts, cache.WithLookupHook(func(hit bool) {
			c.metrics.RecordCacheLookup(string(models.SourceFXRates), hit)
		}))
	}
	c.cache = cache.NewMemoryCache(append(cacheOpts, c.cacheOpts...)...)
	return c
}

func (c *Client) Name() models.Source { return models.SourceFXRates }

func (c *Client) Configured() bool { return true }

func (c *Client) Supports(s models.Series) bool {
	_, ok := pairs[s]
	return ok
}

func (c *Client) Close() error {
	return c.cache.Close()
}

// FetchSeries returns the latest quote as a single observation.
func (c *Client) FetchSeries(ctx context.Context, s models.Series, count int) []models.Observation {
	q, ok := pairs[s]
	if !ok || count <= 0 {
		return nil
	}

	table, err := cache.GetOrFetch(ctx, c.cache, cache.Key("fxrates", "latest", "USD"), c.ttl, c.fetch)
	if err != nil {
		c.warn(s, err)
		return nil
	}

	rate, ok := table.Rates[q.currency]
	if !ok || rate <= 0 {
		c.warn(s, fmt.Errorf("%s: %w", q.currency, errMissingRate))
		return nil
	}
	if q.inverted {
		rate = 1 / rate
	}

	date, ok := util.ParseDay(table.Date)
	if !ok {
		date = util.StartOfDay(time.Now())
	}
	return []models.Observation{{Date: date, Value: rate}}
}

func (c *Client) FetchLatest(ctx context.Context, s models.Series) *float64 {
	obs := c.FetchSeries(ctx, s, 1)
	if len(obs) == 0 {
		return nil
	}
	return models.Float(obs[0].Value)
}

// latestResponse is the USD rate table; Rates holds units of each currency per dollar.
type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

func (c *Client) fetch(ctx context.Context) (latestResponse, error) {
	start := time.Now()
	opts := &xhttp.RequestOptions{URL: c.baseURL + "/v4/latest/USD"}
	if c.apiKey != "" {
		opts.Headers = map[string]string{"Authorization": "Bearer " + c.apiKey}
	}

	var resp latestResponse
	if err := c.http.SendAndParse(ctx, opts, &resp); err != nil {
		c.record("error", start)
		return latestResponse{}, fmt.Errorf("fetch latest: %w", err)
	}
	if len(resp.Rates) == 0 {
		c.record("empty", start)
		return latestResponse{}, errors.New("fxrates: empty rate table")
	}

	c.record("ok", start)
	return resp, nil
}

func (c *Client) warn(s models.Series, err error) {
	c.logger.Warn("provider unavailable",
		logger.String("provider", string(models.SourceFXRates)),
		logger.String("series", string(s)),
		logger.Error(err),
	)
}

func (c *Client) record(result string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordProviderFetch(string(models.SourceFXRates), result, time.Since(start).Seconds())
}
