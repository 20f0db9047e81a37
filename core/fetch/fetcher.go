// Package fetch implements the Fetcher interface.
// It downloads a degree-progress report over HTTP when the CLI is given a
// URL instead of a saved HTML file.
package fetch

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gaurav-prasanna/auditpipe/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "auditpipe/1.0"
	// maxBodyBytes bounds a single report download.
	maxBodyBytes = 32 << 20
)

// HTTPFetcher fetches reports via HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// New creates an HTTPFetcher. Zero values fall back to defaults.
func New(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: creating request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("fetch: unexpected status %d for %s", resp.StatusCode, url)
	}

	if err := checkContentType(resp.Header.Get("Content-Type")); err != nil {
		return nil, eris.Wrapf(err, "fetch: %s", url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: reading response body")
	}

	return &core.FetchResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}

// reportTypes are the media types an advising report is served as. A
// missing Content-Type is accepted; saved pages often come without one.
var reportTypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
	"text/plain":            true,
}

func checkContentType(header string) error {
	if header == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return eris.Wrapf(err, "parsing content type %q", header)
	}
	if !reportTypes[mediaType] {
		return eris.Errorf("content type %s is not an HTML report", mediaType)
	}
	return nil
}
