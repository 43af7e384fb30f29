// Package gateway is the single chokepoint for API calls. It adds default
// headers, always sends cookie credentials, and reports auth-failure
// statuses to one registered handler instead of acting on them itself.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

var (
	ErrInvalidBaseURL = errors.New("invalid base URL")
	ErrBodyConflict   = errors.New("request options set both Body and JSON")
)

// DefaultUnauthorizedStatuses are the statuses treated as "send the user to login".
// 402 is included to match the existing server contract even though it
// conventionally means payment required.
var DefaultUnauthorizedStatuses = []int{
	http.StatusUnauthorized,
	http.StatusPaymentRequired,
	http.StatusForbidden,
}

// UnauthorizedHandler is notified when a response carries an unauthorized status.
type UnauthorizedHandler func(ctx context.Context, resp *Response)

// RequestOptions describes a single API call
type RequestOptions struct {
	Method  string
	Headers http.Header
	Body    io.Reader
	JSON    any // marshalled as the body when set
}

// Gateway wraps an HTTP client for the API
type Gateway struct {
	baseURL        *url.URL
	httpClient     *http.Client
	defaultHeaders http.Header
	unauthorized   map[int]struct{}
	logger         zerolog.Logger

	mu        sync.RWMutex
	onUnauthz UnauthorizedHandler
}

// Option configures a Gateway
type Option func(*Gateway) error

// WithHTTPClient sets the underlying HTTP client. A nil Jar is replaced so
// credentials are still sent.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) error {
		clone := *c
		g.httpClient = &clone
		return nil
	}
}

// WithJar sets the cookie jar used for credentials
func WithJar(jar http.CookieJar) Option {
	return func(g *Gateway) error {
		g.httpClient.Jar = jar
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = l
		return nil
	}
}

// WithDefaultHeader adds a header sent on every request unless the caller overrides it
func WithDefaultHeader(key, value string) Option {
	return func(g *Gateway) error {
		g.defaultHeaders.Set(key, value)
		return nil
	}
}

// WithUnauthorizedStatuses replaces the set of intercepted statuses
func WithUnauthorizedStatuses(codes ...int) Option {
	return func(g *Gateway) error {
		g.unauthorized = make(map[int]struct{}, len(codes))
		for _, code := range codes {
			g.unauthorized[code] = struct{}{}
		}
		return nil
	}
}

// New creates a gateway for the API rooted at baseURL
func New(baseURL string, opts ...Option) (*Gateway, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q needs scheme and host", ErrInvalidBaseURL, baseURL)
	}

	g := &Gateway{
		baseURL:        u,
		httpClient:     &http.Client{},
		defaultHeaders: http.Header{},
		logger:         zerolog.Nop(),
	}
	g.defaultHeaders.Set("Content-Type", "application/json")
	WithUnauthorizedStatuses(DefaultUnauthorizedStatuses...)(g)

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	if g.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		g.httpClient.Jar = jar
	}

	return g, nil
}

// OnUnauthorized registers the top-level handler for unauthorized responses.
// Registering again replaces the previous handler.
func (g *Gateway) OnUnauthorized(h UnauthorizedHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onUnauthz = h
}

// BaseURL returns the API root
func (g *Gateway) BaseURL() *url.URL {
	u := *g.baseURL
	return &u
}

// Request performs a single call. Non-2xx statuses are not errors: callers
// must inspect the response. Only transport failures return an error.
func (g *Gateway) Request(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body := opts.Body
	if opts.JSON != nil {
		if body != nil {
			return nil, ErrBodyConflict
		}
		data, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target, err := g.resolve(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = mergeHeaders(g.defaultHeaders, opts.Headers)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("Request failed")
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	out := &Response{Response: resp}
	if _, hit := g.unauthorized[resp.StatusCode]; hit {
		out.Unauthorized = true
		g.logger.Info().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Msg("Unauthorized response")

		g.mu.RLock()
		h := g.onUnauthz
		g.mu.RUnlock()
		if h != nil {
			h(ctx, out)
		}
	}

	return out, nil
}

// Cookies returns the credentials currently held for the API origin
func (g *Gateway) Cookies() []*http.Cookie {
	return g.httpClient.Jar.Cookies(g.baseURL)
}

// SetCookies seeds credentials for the API origin
func (g *Gateway) SetCookies(cookies []*http.Cookie) {
	g.httpClient.Jar.SetCookies(g.baseURL, cookies)
}

func (g *Gateway) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	u := *g.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

// mergeHeaders layers caller headers over defaults. A caller key replaces
// every default value for that key.
func mergeHeaders(defaults, overrides http.Header) http.Header {
	merged := defaults.Clone()
	for key, values := range overrides {
		merged[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	return merged
}
