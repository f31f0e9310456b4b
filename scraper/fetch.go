package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"skin-analysis-service/metrics"
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("could not access %s: status code %d", e.URL, e.Code)
}

// FetcherConfig tunes page downloads.
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
	// SizeCap bounds the number of body bytes read per page.
	SizeCap int64
	// RateLimit is the sustained number of requests per second, Burst the bucket size.
	RateLimit  float64
	Burst      int
	MaxRetries uint64
}

// Fetcher downloads HTML pages politely: rate limited, retried on transient
// failures and decoded to UTF-8.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	sizeCap    int64
	limiter    *rate.Limiter
	maxRetries uint64
	backoff    func() backoff.BackOff
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		userAgent:  cfg.UserAgent,
		sizeCap:    cfg.SizeCap,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxElapsedTime = cfg.Timeout
			return b
		},
	}
}

// Fetch returns the UTF-8 decoded body of rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	var body []byte
	op := func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		b, err := f.get(ctx, u.String())
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.Code < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(f.backoff(), f.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		metrics.PageFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PageFetches.WithLabelValues("ok").Inc()
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}

	r, err := charset.NewReader(io.LimitReader(resp.Body, f.sizeCap), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode %s: %w", target, err))
	}
	return io.ReadAll(r)
}
