package fred

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"PlumbWatch/internal/domain/models"
	drepo "PlumbWatch/internal/domain/repository"
	"PlumbWatch/pkg/cache"
	xhttp "PlumbWatch/pkg/http"
	"PlumbWatch/pkg/logger"
	"PlumbWatch/pkg/util"
)

const (
	DefaultBaseURL = "https://api.stlouisfed.org/fred"
	DefaultTTL     = 300 * time.Second

	// missing is FRED's placeholder for a day without an observation.
	missing = "."
	// latestLookback covers a few holidays when only the last value is wanted.
	latestLookback = 5
)

var errNoData = errors.New("fred: no observations")

type seriesSpec struct {
	id      string
	divisor float64
}

var catalog = map[models.Series]seriesSpec{
	models.SOFR:            {id: "SOFR", divisor: 1},
	models.EFFR:            {id: "EFFR", divisor: 1},
	models.IORB:            {id: "IORB", divisor: 1},
	models.OBFR:            {id: "OBFR", divisor: 1},
	models.TGCR:            {id: "TGCR", divisor: 1},
	models.BGCR:            {id: "BGCR", divisor: 1},
	models.GCF:             {id: "GCFREPO", divisor: 1},
	models.ONRRP:           {id: "RRPONTSYAWARD", divisor: 1},
	models.AMERIBOR:        {id: "AMERIBOR", divisor: 1},
	models.CP3M:            {id: "DCPF3M", divisor: 1},
	models.TBill3M:         {id: "DTB3", divisor: 1},
	models.EURIBOR:         {id: "IR3TIB01EZM156N", divisor: 1},
	models.SONIA:           {id: "IUDSOIA", divisor: 1},
	models.ONRRPVolume:     {id: "RRPONTSYD", divisor: 1000},
	models.ForeignRepoPool: {id: "WLRRAFOIAL", divisor: 1000},
	models.SRFVolume:       {id: "RPONTSYD", divisor: 1},

	// H.10 noon rates, already in market quoting
	models.EURUSD: {id: "DEXUSEU", divisor: 1},
	models.GBPUSD: {id: "DEXUSUK", divisor: 1},
	models.USDJPY: {id: "DEXJPUS", divisor: 1},
	models.USDCHF: {id: "DEXSZUS", divisor: 1},
}

// SeriesID returns the FRED identifier for s.
func SeriesID(s models.Series) (string, bool) {
	spec, ok := catalog[s]
	return spec.id, ok
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

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

// WithCacheOptions is appended to the adapter's cache options.
func WithCacheOptions(opts ...cache.MemoryOption) Option {
	return func(c *Client) { c.cacheOpts = append(c.cacheOpts, opts...) }
}

// Client is the daily economic-series adapter backed by the FRED observations API.
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
			c.metrics.RecordCacheLookup(string(models.SourceFRED), hit)
		}))
	}
	c.cache = cache.NewMemoryCache(append(cacheOpts, c.cacheOpts...)...)
	return c
}

func (c *Client) Name() models.Source { return models.SourceFRED }

func (c *Client) Configured() bool { return c.apiKey != "" }

func (c *Client) Supports(s models.Series) bool {
	_, ok := catalog[s]
	return ok
}

// Close stops the cache janitor.
func (c *Client) Close() error {
	return c.cache.Close()
}

// FetchSeries returns up to count observations, oldest first.
// Without an API key it returns nil and sends nothing.
func (c *Client) FetchSeries(ctx context.Context, s models.Series, count int) []models.Observation {
	spec, ok := catalog[s]
	if !ok || !c.Configured() || count <= 0 {
		return nil
	}

	key := cache.Key("fred", spec.id, count)
	obs, err := cache.GetOrFetch(ctx, c.cache, key, c.ttl, func(ctx context.Context) ([]models.Observation, error) {
		return c.fetch(ctx, spec, count)
	})
	if err != nil {
		c.logger.Warn("provider unavailable",
			logger.String("provider", string(models.SourceFRED)),
			logger.String("series", string(s)),
			logger.Error(err),
		)
		return nil
	}
	return obs
}

// FetchLatest returns the most recent non-missing value.
func (c *Client) FetchLatest(ctx context.Context, s models.Series) *float64 {
	obs := c.FetchSeries(ctx, s, latestLookback)
	if len(obs) == 0 {
		return nil
	}
	return models.Float(obs[len(obs)-1].Value)
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

func (c *Client) fetch(ctx context.Context, spec seriesSpec, count int) ([]models.Observation, error) {
	start := time.Now()
	var resp observationsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL: c.baseURL + "/series/observations",
		QueryParams: map[string][]string{
			"series_id":  {spec.id},
			"api_key":    {c.apiKey},
			"file_type":  {"json"},
			"sort_order": {"desc"},
			"limit":      {strconv.Itoa(count)},
		},
	}, &resp)
	if err != nil {
		c.record("error", start)
		return nil, fmt.Errorf("fetch %s: %w", spec.id, err)
	}

	// newest first on the wire
	out := make([]models.Observation, 0, len(resp.Observations))
	for i := len(resp.Observations) - 1; i >= 0; i-- {
		o := resp.Observations[i]
		if o.Value == missing {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		day, ok := util.ParseDay(o.Date)
		if !ok {
			continue
		}
		out = append(out, models.Observation{Date: day, Value: v / spec.divisor})
	}
	if len(out) == 0 {
		c.record("empty", start)
		return nil, fmt.Errorf("%s: %w", spec.id, errNoData)
	}

	c.record("ok", start)
	return out, nil
}

func (c *Client) record(result string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordProviderFetch(string(models.SourceFRED), result, time.Since(start).Seconds())
}
