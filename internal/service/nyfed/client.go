package nyfed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"PlumbWatch/internal/domain/models"
	drepo "PlumbWatch/internal/domain/repository"
	"PlumbWatch/pkg/cache"
	xhttp "PlumbWatch/pkg/http"
	"PlumbWatch/pkg/logger"
	"PlumbWatch/pkg/util"
)

const (
	DefaultBaseURL = "https://markets.newyorkfed.org"
	DefaultTTL     = 60 * time.Second
)

var errNoData = errors.New("nyfed: no reference rates")

// paths maps each published reference rate to its API path segment.
var paths = map[models.Series]string{
	models.SOFR: "secured/sofr",
	models.BGCR: "secured/bgcr",
	models.TGCR: "secured/tgcr",
	models.EFFR: "unsecured/effr",
	models.OBFR: "unsecured/obfr",
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
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

// Client reads the New York Fed reference rates. No key is required.
type Client struct {
	baseURL   string
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
			c.metrics.RecordCacheLookup(string(models.SourceNYFed), hit)
		}))
	}
	c.cache = cache.NewMemoryCache(append(cacheOpts, c.cacheOpts...)...)
	return c
}

func (c *Client) Name() models.Source { return models.SourceNYFed }

func (c *Client) Configured() bool { return true }

func (c *Client) Supports(s models.Series) bool {
	_, ok := paths[s]
	return ok
}

func (c *Client) Close() error {
	return c.cache.Close()
}

func (c *Client) FetchSeries(ctx context.Context, s models.Series, count int) []models.Observation {
	path, ok := paths[s]
	if !ok || count <= 0 {
		return nil
	}

	key := cache.Key("nyfed", path, count)
	obs, err := cache.GetOrFetch(ctx, c.cache, key, c.ttl, func(ctx context.Context) ([]models.Observation, error) {
		return c.fetch(ctx, path, count)
	})
	if err != nil {
		c.logger.Warn("provider unavailable",
			logger.String("provider", string(models.SourceNYFed)),
			logger.String("series", string(s)),
			logger.Error(err),
		)
		return nil
	}
	return obs
}

func (c *Client) FetchLatest(ctx context.Context, s models.Series) *float64 {
	obs := c.FetchSeries(ctx, s, 1)
	if len(obs) == 0 {
		return nil
	}
	return models.Float(obs[len(obs)-1].Value)
}

type refRatesResponse struct {
	RefRates []struct {
		EffectiveDate string   `json:"effectiveDate"`
		Type          string   `json:"type"`
		PercentRate   *float64 `json:"percentRate"`
	} `json:"refRates"`
}

func (c *Client) fetch(ctx context.Context, path string, count int) ([]models.Observation, error) {
	start := time.Now()
	var resp refRatesResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL: fmt.Sprintf("%s/api/rates/%s/last/%d.json", c.baseURL, path, count),
	}, &resp)
	if err != nil {
		c.record("error", start)
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}

	out := make([]models.Observation, 0, len(resp.RefRates))
	for _, r := range resp.RefRates {
		if r.PercentRate == nil {
			continue
		}
		day, ok := util.ParseDay(r.EffectiveDate)
		if !ok {
			continue
		}
		out = append(out, models.Observation{Date: day, Value: *r.PercentRate})
	}
	if len(out) == 0 {
		c.record("empty", start)
		return nil, fmt.Errorf("%s: %w", path, errNoData)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	c.record("ok", start)
	return out, nil
}

func (c *Client) record(result string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordProviderFetch(string(models.SourceNYFed), result, time.Since(start).Seconds())
}
