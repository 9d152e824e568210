// Package fetcher issues the GET requests for listing and detail pages.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/dtnitsch/estate-harvester/pkg/caching"
	"github.com/dtnitsch/estate-harvester/pkg/pacing"
	"golang.org/x/time/rate"
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch %s, status code: %d", e.URL, e.StatusCode)
}

// Status codes worth another attempt.
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:        true,
	http.StatusRequestEntityTooLarge: true,
	http.StatusTooManyRequests:       true,
	http.StatusInternalServerError:   true,
	http.StatusBadGateway:            true,
	http.StatusServiceUnavailable:    true,
	http.StatusGatewayTimeout:        true,
	521:                              true,
	522:                              true,
	524:                              true,
}

// IsConnectionRefused reports whether the remote end actively refused the connection.
func IsConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// IsTimeout reports whether err is a request or dial timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus[statusErr.StatusCode]
	}
	return IsTimeout(err) && !IsConnectionRefused(err)
}

type Options struct {
	Timeout    time.Duration
	Agents     *pacing.Agents
	Retries    int // extra attempts after the first; 0 disables retry
	RetryDelay time.Duration
	Sleeper    pacing.Sleeper
	Cache      *caching.Cache
	Logger     *slog.Logger

	// MaxRPS caps network requests per second across retries; 0 means no cap.
	// Cache hits are not counted.
	MaxRPS float64
}

type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Sleeper == nil {
		opts.Sleeper = pacing.ContextSleeper{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.MaxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxRPS), 1)
	}
	return &Fetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
		opts:    opts,
	}
}

// GetHtmlBytes fetches url and returns the body of a 200 response.
// Retryable failures are retried with doubling delay up to Options.Retries times.
func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	if f.opts.Cache != nil {
		if body, ok := f.opts.Cache.Get(url); ok {
			f.opts.Logger.Debug("cache hit", "url", url)
			return body, nil
		}
	}

	delay := f.opts.RetryDelay
	attempts := f.opts.Retries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := f.get(ctx, url)
		if err == nil {
			if f.opts.Cache != nil {
				if err := f.opts.Cache.Set(url, body); err != nil {
					f.opts.Logger.Warn("failed to cache page", "url", url, "error", err)
				}
			}
			return body, nil
		}
		lastErr = err

		if attempt == attempts || !retryable(err) || ctx.Err() != nil {
			break
		}
		f.opts.Logger.Warn("fetch failed, retrying",
			"url", url, "attempt", attempt, "max_attempts", attempts, "delay", delay, "error", err)
		if err := f.opts.Sleeper.Sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}

	return nil, lastErr
}

// Evict drops any cached body for url so the next GetHtmlBytes goes to the network.
func (f *Fetcher) Evict(url string) {
	if f.opts.Cache == nil {
		return
	}
	if err := f.opts.Cache.Delete(url); err != nil {
		f.opts.Logger.Warn("failed to evict cached page", "url", url, "error", err)
	}
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if ua := f.opts.Agents.Next(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
