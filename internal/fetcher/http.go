package fetcher

import (
	"context"
	"io"
	"maps"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/artist-etl/internal/resilience"
)

// HTTPOptions configures an HTTPFetcher. Hosts in AdaptiveLimiters ignore
// any entry in RateLimiters. Hosts in neither share a 20 req/s limiter.
type HTTPOptions struct {
	UserAgent        string
	Timeout          time.Duration
	MaxRetries       int
	InitialBackoff   time.Duration
	RateLimiters     map[string]*rate.Limiter
	AdaptiveLimiters map[string]*AdaptiveLimiter
}

func (o *HTTPOptions) applyDefaults() {
	if o.Timeout == 0 {
		o.Timeout = 60 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "artist-etl/1.0"
	}
}

// HTTPFetcher is a Fetcher over net/http with per-host rate limiting and
// retries on transient failures.
type HTTPFetcher struct {
	client   *http.Client
	opts     HTTPOptions
	fixed    map[string]*rate.Limiter
	adaptive map[string]*AdaptiveLimiter
	shared   *rate.Limiter
}

func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	opts.applyDefaults()
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		fixed:    maps.Clone(opts.RateLimiters),
		adaptive: maps.Clone(opts.AdaptiveLimiters),
		shared:   rate.NewLimiter(20, 20),
	}
}

func (f *HTTPFetcher) waitTurn(ctx context.Context, host string) error {
	if a := f.adaptive[host]; a != nil {
		return a.Wait(ctx)
	}
	if l := f.fixed[host]; l != nil {
		return l.Wait(ctx)
	}
	return f.shared.Wait(ctx)
}

type requestFunc func(ctx context.Context) (*http.Request, error)

// attempt sends one request. Only 2xx responses are returned; anything else
// is closed and reported as a status error.
func (f *HTTPFetcher) attempt(ctx context.Context, host, rawURL string, build requestFunc) (*http.Response, error) {
	if err := f.waitTurn(ctx, host); err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}
	req, err := build(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, err
	case err != nil:
		return nil, resilience.NewTransientError(err, 0)
	}

	adaptive := f.adaptive[host]
	if resp.StatusCode/100 == 2 {
		if adaptive != nil {
			adaptive.OnSuccess()
		}
		return resp, nil
	}
	_ = resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests && adaptive != nil {
		adaptive.OnRateLimit()
	}
	return nil, resilience.StatusError(resp.StatusCode, rawURL)
}

// do retries attempt on network errors, 429 and 5xx. build runs once per
// attempt so request bodies are never reused.
func (f *HTTPFetcher) do(ctx context.Context, rawURL string, build requestFunc) (*http.Response, error) {
	var host string
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	cfg := resilience.RetryConfig{
		MaxAttempts:    f.opts.MaxRetries,
		InitialBackoff: f.opts.InitialBackoff,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.25,
		OnRetry:        resilience.RetryLogger("http", rawURL),
	}
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*http.Response, error) {
		return f.attempt(ctx, host, rawURL, build)
	})
	if err != nil && resilience.IsTransient(err) {
		return nil, eris.Wrap(err, "all retries exhausted")
	}
	return resp, err
}

// Download GETs rawURL. The caller closes the body.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := f.do(ctx, rawURL, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
	if err != nil {
		return nil, eris.Wrap(err, "download")
	}
	return resp.Body, nil
}

// DownloadToFile GETs rawURL into path and returns the bytes written.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	out, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, body)
	return n, eris.Wrap(err, "write file")
}

// PostForm POSTs form to rawURL, asking for accept when set.
func (f *HTTPFetcher) PostForm(ctx context.Context, rawURL string, form url.Values, accept string) (io.ReadCloser, error) {
	payload := form.Encode()
	resp, err := f.do(ctx, rawURL, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		return req, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "post form")
	}
	return resp.Body, nil
}
