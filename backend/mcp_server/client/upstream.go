package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/config"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/aistudiolabx/mcp-tools", "client")

// MaxBodySize caps the upstream response read into memory. Larger bodies
// are rejected rather than truncated.
const MaxBodySize = 8 << 20

// browserUserAgent is sent by clients scraping pages meant for browsers.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return "upstream " + e.URL + " returned " + e.Status
}

// Upstream is an HTTP accessor bound to one base URL and at most one
// API key, sent as a query parameter.
type Upstream struct {
	HTTPClient *http.Client

	baseURL   string
	keyParam  string
	apiKey    string
	userAgent string
}

// Option configures an Upstream.
type Option func(*Upstream)

// WithAPIKey sends key as the query parameter param on every request.
func WithAPIKey(param, key string) Option {
	return func(u *Upstream) {
		u.keyParam = param
		u.apiKey = key
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Upstream) {
		if c != nil {
			u.HTTPClient = c
		}
	}
}

// WithBrowserUserAgent makes requests look like they come from a desktop browser.
func WithBrowserUserAgent() Option {
	return func(u *Upstream) {
		u.userAgent = browserUserAgent
	}
}

// NewUpstream creates a client for cfg. The API key, when required, must be
// passed with WithAPIKey so credentials are checked by the caller at startup.
func NewUpstream(cfg config.Upstream, opts ...Option) *Upstream {
	u := &Upstream{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// BaseURL returns the base URL requests are resolved against.
func (u *Upstream) BaseURL() string {
	return u.baseURL
}

// Get issues GET baseURL+path with query and returns the JSON body.
// Empty query values are dropped.
func (u *Upstream) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	body, err := u.do(ctx, path, query, "application/json")
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.Newf("upstream %s returned invalid JSON", path)
	}
	return body, nil
}

// GetPage issues GET baseURL+path and returns the raw body, for HTML pages.
func (u *Upstream) GetPage(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return u.do(ctx, path, query, "text/html")
}

func (u *Upstream) do(ctx context.Context, path string, query url.Values, accept string) ([]byte, error) {
	reqURL, err := u.buildURL(path, query)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", accept)
	if u.userAgent != "" {
		req.Header.Set("User-Agent", u.userAgent)
	}

	logger.ContextKV(ctx, xlog.DEBUG, "method", req.Method, "path", path)

	resp, err := u.HTTPClient.Do(req)
	if err != nil {
		// url.Error carries the full URL, including the API key
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, errors.Wrapf(err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: u.baseURL + path}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s response", path)
	}
	if len(body) > MaxBodySize {
		return nil, errors.Newf("upstream %s response exceeds %d bytes", path, MaxBodySize)
	}
	return body, nil
}

// buildURL never includes the API key in errors it returns.
func (u *Upstream) buildURL(path string, query url.Values) (string, error) {
	parsed, err := url.Parse(u.baseURL + path)
	if err != nil {
		return "", errors.Wrapf(err, "invalid upstream url for %s", path)
	}
	q := parsed.Query()
	for k, vals := range query {
		for _, v := range vals {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	if u.keyParam != "" {
		q.Set(u.keyParam, u.apiKey)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
