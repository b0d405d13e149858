package providers

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultHTTPTimeout bounds a single outbound request.
	DefaultHTTPTimeout = 15 * time.Second
	// DefaultUserAgent is sent when the adapter does not set its own.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

type clientConfig struct {
	timeout   time.Duration
	proxy     string
	limiter   *rate.Limiter
	withJar   bool
	userAgent string
	transport http.RoundTripper
}

// ClientOption configures NewHTTPClient.
type ClientOption func(*clientConfig)

// WithTimeout overrides DefaultHTTPTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProxy routes every request through the given "host:port[:user:pass]" SOCKS5 handle.
func WithProxy(handle string) ClientOption {
	return func(c *clientConfig) {
		c.proxy = handle
	}
}

// WithRateLimit caps outbound requests per second. Zero disables the limit.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *clientConfig) {
		if requestsPerSecond > 0 {
			burst := max(int(requestsPerSecond), 1)
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
		}
	}
}

// WithCookieJar attaches an in-memory cookie jar.
func WithCookieJar() ClientOption {
	return func(c *clientConfig) {
		c.withJar = true
	}
}

// WithUserAgent sets the User-Agent added to requests that carry none.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithTransport replaces the base transport. Proxy settings are ignored when
// the supplied transport is not an *http.Transport.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// NewHTTPClient builds the single outbound client owned by one adapter.
func NewHTTPClient(opts ...ClientOption) (*http.Client, error) {
	cfg := clientConfig{timeout: DefaultHTTPTimeout, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(&cfg)
	}

	base := cfg.transport
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	if cfg.proxy != "" {
		proxyURL, err := ParseProxy(cfg.proxy)
		if err != nil {
			return nil, err
		}
		if t, ok := base.(*http.Transport); ok {
			t.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{
		Timeout:   cfg.timeout,
		Transport: &decoratedTransport{base: base, limiter: cfg.limiter, userAgent: cfg.userAgent},
	}
	if cfg.withJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client.Jar = jar
	}
	return client, nil
}

// ParseProxy converts "host:port" or "host:port:user:pass" into a socks5 URL.
func ParseProxy(handle string) (*url.URL, error) {
	parts := strings.Split(strings.TrimSpace(handle), ":")
	switch len(parts) {
	case 2:
		if parts[0] == "" || parts[1] == "" {
			break
		}
		return &url.URL{Scheme: "socks5", Host: parts[0] + ":" + parts[1]}, nil
	case 4:
		if parts[0] == "" || parts[1] == "" {
			break
		}
		return &url.URL{
			Scheme: "socks5",
			Host:   parts[0] + ":" + parts[1],
			User:   url.UserPassword(parts[2], parts[3]),
		}, nil
	}
	return nil, fmt.Errorf("invalid proxy handle %q: want host:port[:user:pass]", handle)
}

type decoratedTransport struct {
	base      http.RoundTripper
	limiter   *rate.Limiter
	userAgent string
}

func (t *decoratedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
