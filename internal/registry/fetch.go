package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/telemetry"
)

const (
	// DefaultTimeout bounds a single registry fetch.
	DefaultTimeout = 15 * time.Second

	// DefaultConcurrency is the number of registries fetched at once.
	DefaultConcurrency = 8

	// maxDocumentSize caps the size of a registry document.
	maxDocumentSize = 32 << 20
)

// FetchOptions configures a Fetcher. Zero fields take the defaults.
type FetchOptions struct {
	Timeout     time.Duration
	Retries     int
	Concurrency int
	Client      *http.Client
	Logger      *slog.Logger
	Metrics     *telemetry.Metrics
}

func defaultFetchOptions() FetchOptions {
	return FetchOptions{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		Client:      &http.Client{},
		Logger:      slog.Default(),
	}
}

// FetchOption configures a Fetcher.
type FetchOption func(*FetchOptions)

// WithHTTPClient sets the HTTP client used for remote registries.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(o *FetchOptions) {
		o.Client = c
	}
}

// WithTimeout sets the per-registry timeout.
func WithTimeout(d time.Duration) FetchOption {
	return func(o *FetchOptions) {
		o.Timeout = d
	}
}

// WithRetries sets how many times a failed fetch is retried. Client
// errors (4xx) and invalid documents are never retried.
func WithRetries(n int) FetchOption {
	return func(o *FetchOptions) {
		o.Retries = n
	}
}

// WithConcurrency bounds the number of concurrent fetches.
func WithConcurrency(n int) FetchOption {
	return func(o *FetchOptions) {
		o.Concurrency = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) FetchOption {
	return func(o *FetchOptions) {
		o.Logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *telemetry.Metrics) FetchOption {
	return func(o *FetchOptions) {
		o.Metrics = m
	}
}

// Fetcher retrieves registry documents from HTTP(S) URLs, file:// URLs
// and local paths.
type Fetcher struct {
	opts FetchOptions
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...FetchOption) *Fetcher {
	var o FetchOptions
	for _, opt := range opts {
		opt(&o)
	}
	_ = mergo.Merge(&o, defaultFetchOptions(), mergo.WithoutDereference)
	if o.Retries < 0 {
		o.Retries = 0
	}
	return &Fetcher{opts: o}
}

// Options returns the effective options.
func (f *Fetcher) Options() FetchOptions {
	return f.opts
}

// FetchAll fetches every URL concurrently. It never fails: a registry that
// cannot be fetched or does not validate yields a degraded result. The
// returned slice is in input order.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []FetchResult {
	results := make([]FetchResult, len(urls))

	var g errgroup.Group
	g.SetLimit(f.opts.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = f.Fetch(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Fetch retrieves and validates a single registry.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) FetchResult {
	ctx, span := telemetry.StartSpan(ctx, "registry.fetch", attribute.String("uikit.registry_url", rawURL))

	start := time.Now()
	reg, err := f.fetch(ctx, rawURL)
	f.opts.Metrics.RecordFetch(err, time.Since(start))
	telemetry.EndSpan(span, err)

	if err != nil {
		f.opts.Logger.WarnContext(ctx, "registry fetch failed", "url", rawURL, "error", err)
		return degraded(rawURL, err)
	}

	f.opts.Logger.DebugContext(ctx, "registry fetched",
		"url", rawURL,
		"name", reg.Name,
		"items", len(reg.Items),
		"duration", time.Since(start))

	return FetchResult{
		URL:   rawURL,
		Data:  reg,
		Items: reg.Items,
	}
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*Registry, error) {
	data, err := f.read(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

// FetchItem retrieves and validates a standalone item document. Items that
// carry no provenance are tagged with the "local" registry and their URL.
func (f *Fetcher) FetchItem(ctx context.Context, rawURL string) (*Item, error) {
	ctx, span := telemetry.StartSpan(ctx, "registry.fetch_item", attribute.String("uikit.item_url", rawURL))

	start := time.Now()
	data, err := f.read(ctx, rawURL)
	if err != nil {
		err = errors.New("E111").
			WithDetail("Could not fetch " + rawURL).
			Wrap(err)
	}
	var item *Item
	if err == nil {
		item, err = ParseItem(data)
	}
	f.opts.Metrics.RecordFetch(err, time.Since(start))
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	if item.Meta == nil {
		item.Meta = make(map[string]any, 2)
	}
	setDefault(item.Meta, MetaRegistryName, LocalRegistry)
	setDefault(item.Meta, MetaRegistryHomepage, rawURL)
	return item, nil
}

func (f *Fetcher) read(ctx context.Context, rawURL string) ([]byte, error) {
	if path, ok := LocalPath(rawURL); ok {
		return os.ReadFile(path)
	}
	return backoff.Retry(ctx, func() ([]byte, error) {
		return f.get(ctx, rawURL)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(f.opts.Retries+1)),
	)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.opts.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("registry returned status %d", resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	data, err := readDocument(resp.Body, maxDocumentSize)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return data, nil
}

// readDocument reads r in full, failing once it passes limit bytes.
func readDocument(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("registry document exceeds %d MiB", limit>>20)
	}
	return data, nil
}

// IsItemRef reports whether an argument to add names a standalone item
// document rather than an item in the index.
func IsItemRef(arg string) bool {
	return isURL(arg) || strings.HasSuffix(arg, ".json")
}

// LocalPath reports whether rawURL names a file on disk and returns its path.
func LocalPath(rawURL string) (string, bool) {
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return strings.TrimPrefix(rawURL, "file://"), true
		}
		return u.Path, true
	}
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return "", false
	}
	return rawURL, true
}
