// Package avatar fetches and caches node avatar images with a shared
// placeholder fallback.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRateLimit is the default number of image requests per second.
	DefaultRateLimit = 20.0

	// MaxImageBytes caps a single downloaded image.
	MaxImageBytes = 5 * 1024 * 1024

	// DefaultTripAfter is the number of consecutive host failures (network
	// errors or 5xx) that opens the circuit.
	DefaultTripAfter = 5

	// DefaultCooldown is how long an open circuit rejects requests before
	// letting a trial request through.
	DefaultCooldown = 30 * time.Second
)

// Fetch errors.
var (
	ErrUnavailable = errors.New("image unavailable")
	ErrNotImage    = errors.New("response is not an image")
	ErrTooLarge    = errors.New("image exceeds size limit")

	// ErrHostFailure marks failures that count against the image host: the
	// request did not complete or the host answered 5xx. A 404 is an answer.
	ErrHostFailure = errors.New("image host failure")

	// ErrCircuitOpen is returned without contacting the host while the
	// circuit is open.
	ErrCircuitOpen = errors.New("image host circuit open")
)

// Image is a downloaded image.
type Image struct {
	Data        []byte
	ContentType string
}

// Fetcher is a rate-limited HTTP image client. Requests are never retried.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = hc
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient.Timeout = d
	}
}

// WithCircuitBreaker stops contacting the image host for cooldown after
// tripAfter consecutive host failures.
func WithCircuitBreaker(tripAfter uint32, cooldown time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.breaker = newBreaker(tripAfter, cooldown)
	}
}

// NewFetcher creates a new image fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		breaker:    newBreaker(DefaultTripAfter, DefaultCooldown),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// timeout bounds one shared fetch, including the wait for the rate limiter.
func (f *Fetcher) timeout() time.Duration {
	if f.httpClient.Timeout > 0 {
		return f.httpClient.Timeout
	}
	return DefaultTimeout
}

func newBreaker(tripAfter uint32, cooldown time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "avatar-host",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrHostFailure)
		},
	})
}

// Fetch downloads the image at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Image, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	v, err := f.breaker.Execute(func() (interface{}, error) {
		return f.fetch(ctx, url)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Image), nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}
		return nil, fmt.Errorf("%w: executing request: %w", ErrHostFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %w: HTTP %d", ErrUnavailable, ErrHostFailure, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q", ErrNotImage, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, ErrTooLarge
	}

	return &Image{Data: data, ContentType: contentType}, nil
}
