package fetch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	userAgent = "cell-editor/1.0"
	// fetchRetries bounds how often a transient failure (network error, 429
	// or 5xx) is retried.
	fetchRetries = 3
	retryBase    = 200 * time.Millisecond
)

// HTTP is a Source that fetches names relative to a base URL. Resolved assets
// are downloaded into cacheDir.
type HTTP struct {
	base       *url.URL
	client     *http.Client
	cacheDir   string
	newBackoff func() retry.Backoff
}

// NewHTTP returns a Source for baseURL. timeout bounds each request.
func NewHTTP(baseURL, cacheDir string, timeout time.Duration) (*HTTP, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("asset url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("asset url %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &HTTP{
		base:     u,
		client:   &http.Client{Timeout: timeout},
		cacheDir: cacheDir,
		newBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(fetchRetries, retry.NewExponential(retryBase))
		},
	}, nil
}

// Fetch implements Source. A 404 is reported as fs.ErrNotExist. Transient
// failures are retried with exponential backoff.
func (h *HTTP) Fetch(ctx context.Context, name string) ([]byte, error) {
	n, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	target := h.base.JoinPath(n).String()
	var data []byte
	err = retry.Do(ctx, h.newBackoff(), func(ctx context.Context) error {
		var err error
		data, err = h.get(ctx, target)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", n, err)
	}
	return data, nil
}

func (h *HTTP) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, fs.ErrNotExist
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, retry.RetryableError(fmt.Errorf("HTTP %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.RetryableError(err)
	}
	return data, nil
}

// Resolve implements Source.
func (h *HTTP) Resolve(ctx context.Context, name string) (string, error) {
	n, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return materialize(ctx, h.Fetch, n, h.cacheDir)
}
