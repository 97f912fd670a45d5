// Package fetcher retrieves rule-list sources over HTTP or from local files.
package fetcher

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

	"github.com/xxxbrian/ruleset-converter/internal/cache"
)

const userAgent = "ruleset-converter/1.0"

// FetchError reports a source that could not be retrieved.
type FetchError struct {
	Source string
	Status int // HTTP status, 0 for transport and file errors
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher handles source retrieval
type Fetcher struct {
	client *http.Client
	cache  *cache.SourceCache
}

// NewFetcher creates a new Fetcher. A nil cache disables conditional requests.
func NewFetcher(sourceCache *cache.SourceCache, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		cache: sourceCache,
	}
}

// Fetch returns the raw text of source. An empty document is not an error.
func (f *Fetcher) Fetch(ctx context.Context, source string) (string, error) {
	u, err := url.Parse(source)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return f.fetchHTTP(ctx, source)
	}

	path := source
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &FetchError{Source: source, Err: err}
	}
	return string(data), nil
}

// ETag returns the validator of the last successful fetch of source.
func (f *Fetcher) ETag(source string) string {
	if f.cache == nil {
		return ""
	}
	return f.cache.GetETag(source)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, source string) (string, error) {
	var cached cache.SourceEntry
	var haveCached bool
	if f.cache != nil {
		if entry, ok := f.cache.Get(source); ok {
			return entry.Body, nil
		}
		cached, haveCached = f.cache.GetAny(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", &FetchError{Source: source, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	if haveCached && cached.ETag != "" {
		req.Header.Set("If-None-Match", `"`+cached.ETag+`"`)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && haveCached {
		f.cache.Touch(source)
		return cached.Body, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{Source: source, Status: resp.StatusCode, Err: fmt.Errorf("download failed: %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{Source: source, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	body := string(data)

	if f.cache != nil {
		if err := f.cache.Set(source, body, cleanETag(resp.Header.Get("ETag"))); err != nil {
			slog.Warn("failed to persist source cache", "source", source, "err", err)
		}
	}
	return body, nil
}

// cleanETag removes quotes and the W/ prefix
func cleanETag(etag string) string {
	etag = strings.ReplaceAll(etag, "\"", "")
	return strings.TrimPrefix(etag, "W/")
}
