// Package core is the HTTP layer under every letterboxd scraper: one resty
// client per worker, bounded retries with exponential backoff, and a fixed
// post-request delay so each client paces itself against the site.
package core

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"boxdharvest/lib/restyutil"
	"boxdharvest/lib/scrapers/letterboxd/pagecache"
	"boxdharvest/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/letterboxd/core")

const (
	DefaultBaseUrl = "https://letterboxd.com"

	defaultTimeout     = time.Second * 30
	defaultMaxRetries  = 3
	defaultBackoffBase = time.Second
	defaultDelay       = time.Millisecond * 200

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// FetchError is the terminal failure after the retry budget is exhausted.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type ClientOptions struct {
	BaseUrl string
	// zero values fall back to the package defaults
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	Delay       time.Duration
	// optional read-through cache of fetched pages
	Cache    *pagecache.Cache
	CacheTtl time.Duration
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	maxRetries  int
	backoffBase time.Duration
	delay       time.Duration
	cache       *pagecache.Cache
	cacheTtl    time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.Delay == 0 {
		opts.Delay = defaultDelay
	}
	if opts.CacheTtl == 0 {
		opts.CacheTtl = time.Hour * 24
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "scrapers/letterboxd/http")

	return &Client{
		BaseUrl:     baseUrl,
		Http:        client,
		maxRetries:  opts.MaxRetries,
		backoffBase: opts.BackoffBase,
		delay:       opts.Delay,
		cache:       opts.Cache,
		cacheTtl:    opts.CacheTtl,
	}, nil
}

func (c *Client) SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(c.Http, output)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get fetches one page. endpoints are resolved against the base url,
// absolute urls pass through unchanged. transport failures and non-2xx
// statuses are retried with backoffBase * 2^attempt between attempts; an
// exhausted budget comes back as *FetchError. after a successful fetch the
// client sleeps its fixed delay before returning, which is what keeps a
// single client polite. concurrent clients each pace themselves, aggregate
// request rate scales with worker count.
func (c *Client) Get(ctx context.Context, endpoint string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:Get")
	defer span.End()

	if c.cache != nil {
		if contents, ok := c.cache.Get(ctx, endpoint); ok {
			span.AddEvent("cache hit")
			return contents, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffBase * (1 << (attempt - 1))
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, err
			}
		}

		res, err := c.Http.R().
			SetContext(ctx).
			Get(endpoint)
		if err != nil {
			lastErr = err
			continue
		}
		if !res.IsSuccess() {
			lastErr = fmt.Errorf("HTTP %d", res.StatusCode())
			continue
		}

		if err := sleepCtx(ctx, c.delay); err != nil {
			return nil, err
		}

		body := res.Body()
		if c.cache != nil {
			if err := c.cache.Set(ctx, endpoint, body, c.cacheTtl); err != nil {
				span.RecordError(err)
			}
		}
		return body, nil
	}

	ferr := &FetchError{
		URL:      endpoint,
		Attempts: c.maxRetries + 1,
		Err:      lastErr,
	}
	span.RecordError(ferr)
	span.SetStatus(codes.Error, "retry budget exhausted")
	return nil, ferr
}
