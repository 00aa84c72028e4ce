// Package ytapi wraps the YouTube Data API v3 with credential rotation,
// bounded retries and quota accounting.
package ytapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/quota"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ServiceFactory builds a service handle for one API key.
type ServiceFactory func(ctx context.Context, key string) (*youtube.Service, error)

// Client rotates among a pool of API keys. Each call advances the rotation;
// a quota-exceeded answer moves on to the next key until the pool is spent.
type Client struct {
	gov *quota.Governor

	mu      sync.Mutex
	keys    []string
	next    int
	handles map[string]*youtube.Service

	factory    ServiceFactory
	retry      engine.RetryPolicy
	limiter    *rate.Limiter
	httpClient *http.Client
	endpoint   string
}

// Option configures a Client.
type Option func(*Client)

// WithServiceFactory replaces the default service constructor.
func WithServiceFactory(f ServiceFactory) Option {
	return func(c *Client) { c.factory = f }
}

// WithRetryPolicy sets the transient-error retry schedule.
func WithRetryPolicy(p engine.RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithRateLimit paces outgoing requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient sets the HTTP client used by service handles.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoint overrides the API base URL.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// New returns a client over keys. Empty keys are ignored; an empty pool is an error.
func New(keys []string, gov *quota.Governor, opts ...Option) (*Client, error) {
	pool := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			pool = append(pool, k)
		}
	}
	if len(pool) == 0 {
		return nil, errors.New("ytapi: at least one API key is required")
	}
	if gov == nil {
		gov = quota.New(quota.DefaultDailyBudget)
	}
	c := &Client{
		gov:     gov,
		keys:    pool,
		handles: make(map[string]*youtube.Service, len(pool)),
		retry:   engine.DefaultRetryPolicy,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	c.factory = c.newService
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Governor returns the quota ledger the client records into.
func (c *Client) Governor() *quota.Governor { return c.gov }

// KeyCount returns the size of the credential pool.
func (c *Client) KeyCount() int { return len(c.keys) }

func (c *Client) newService(ctx context.Context, key string) (*youtube.Service, error) {
	var opts []option.ClientOption
	if c.httpClient != nil {
		// option.WithHTTPClient bypasses option.WithAPIKey, so the key goes in the transport.
		hc := *c.httpClient
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc.Transport = &transport.APIKey{Key: key, Transport: base}
		opts = append(opts, option.WithHTTPClient(&hc))
	} else {
		opts = append(opts, option.WithAPIKey(key))
	}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return youtube.NewService(ctx, opts...)
}

// service picks the next key in rotation and returns its cached handle.
func (c *Client) service(ctx context.Context) (string, *youtube.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.keys[c.next]
	c.next = (c.next + 1) % len(c.keys)

	if svc, ok := c.handles[key]; ok {
		return key, svc, nil
	}
	svc, err := c.factory(ctx, key)
	if err != nil {
		return key, nil, fmt.Errorf("create youtube service: %w", err)
	}
	c.handles[key] = svc
	return key, svc, nil
}

// Call invokes fn against the next key's service handle.
// Transient failures are retried on the same key per the retry policy.
// Quota failures rotate to the next key, at most once per key in the pool;
// when every key is spent the error wraps engine.ErrKeysExhausted.
// Any other failure is returned at once as a terminal *CallError.
// On success the endpoint's cost is recorded with the governor, after rolling
// the ledger over if a Pacific midnight has passed.
func Call[T any](ctx context.Context, c *Client, ep quota.Endpoint, fn func(*youtube.Service) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < len(c.keys); attempt++ {
		key, svc, err := c.service(ctx)
		if err != nil {
			return zero, &CallError{Kind: KindTerminal, Endpoint: ep, Err: err}
		}

		res, err := engine.Retry(ctx, c.retry, IsTransient, func() (T, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return zero, err
			}
			engine.IncrAPICalls()
			return fn(svc)
		})
		if err == nil {
			cost := quota.Cost(ep)
			if c.gov.Rollover(time.Now()) {
				slog.Info("ytapi: daily quota ledger rolled over")
			}
			c.gov.Consume(cost)
			engine.AddQuotaUnits(cost)
			return res, nil
		}

		engine.IncrAPIErrors()
		kind := Classify(err)
		if kind != KindQuota {
			slog.Warn("ytapi: call failed",
				slog.String("endpoint", string(ep)),
				slog.String("kind", kind.String()),
				slog.Any("error", err))
			return zero, &CallError{Kind: kind, Endpoint: ep, Err: err}
		}

		lastErr = err
		engine.IncrKeyRotations()
		slog.Warn("ytapi: key quota exceeded, rotating",
			slog.String("endpoint", string(ep)),
			slog.String("key", maskKey(key)),
			slog.Int("attempt", attempt+1),
			slog.Int("pool", len(c.keys)))
	}

	slog.Error("ytapi: all keys exhausted", slog.String("endpoint", string(ep)), slog.Int("pool", len(c.keys)))
	return zero, &CallError{Kind: KindQuota, Endpoint: ep, Err: fmt.Errorf("%w: %w", engine.ErrKeysExhausted, lastErr)}
}

// maskKey keeps only the last four characters of a key for logs.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
