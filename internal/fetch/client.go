package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"
	"golang.org/x/text/encoding/htmlindex"
)

// Client issues GET requests against one connected host.
//
// Design decision: the Client remembers the host from Connect rather
// than taking a full URL on every request because:
//  1. Workers crawl many paths on the same host in a row
//  2. Relative link resolution needs the connected host anyway
//  3. One http.Client per worker keeps connection pooling effective
type Client struct {
	// httpClient performs the actual transfers. Built in New unless
	// injected for tests.
	httpClient *http.Client

	// userAgent is sent on every request.
	userAgent string

	// maxBodySize truncates response bodies to bound memory per page.
	maxBodySize int64

	// timeout is the per-request timeout.
	timeout time.Duration

	// fallbackCharset decodes bodies whose Content-Type does not name a
	// charset. Empty means rely on content sniffing only.
	fallbackCharset string

	// proxyAddress is an optional SOCKS5 proxy in host:port form.
	proxyAddress string

	// scheme, hostPort and port are set by Connect.
	scheme   string
	hostPort string
	port     uint16
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxBodySize sets the maximum response body size in bytes. Values
// below one keep the default of 5MB.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithFallbackCharset names the charset assumed for responses whose
// Content-Type carries none. The name must be a registered HTML
// encoding such as "windows-1251".
func WithFallbackCharset(name string) Option {
	return func(c *Client) { c.fallbackCharset = name }
}

// WithProxy routes all connections through a SOCKS5 proxy at the given
// host:port address.
func WithProxy(address string) Option {
	return func(c *Client) { c.proxyAddress = address }
}

// WithHTTPClient injects a pre-built http.Client, bypassing transport
// construction. Intended for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client. The connection is not established here; call
// Connect with the seed URL first.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		userAgent:   "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
		maxBodySize: 5 * 1024 * 1024,
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.fallbackCharset != "" {
		if _, err := htmlindex.Get(c.fallbackCharset); err != nil {
			return nil, fmt.Errorf("fetch: unknown fallback charset %q: %w", c.fallbackCharset, err)
		}
	}

	if c.httpClient == nil {
		transport, err := c.newTransport()
		if err != nil {
			return nil, err
		}
		c.httpClient = &http.Client{
			Transport: transport,
			Timeout:   c.timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return c, nil
}

func (c *Client) newTransport() (*http.Transport, error) {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	if c.proxyAddress == "" {
		return transport, nil
	}

	if !isValidProxyAddress(c.proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}
	dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("fetch: socks5 dialer: %w", err)
	}
	transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
	return transport, nil
}

// isValidProxyAddress checks host:port form without a full URL parse.
func isValidProxyAddress(address string) bool {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	port, err := strconv.Atoi(portStr)
	return err == nil && port >= 1 && port <= 65535
}

// Clone returns a client that shares the transport and settings but
// carries its own connection state, so concurrent workers can Connect
// to different hosts while reusing pooled connections.
func (c *Client) Clone() *Client {
	cp := *c
	cp.scheme = ""
	cp.hostPort = ""
	cp.port = 0
	return &cp
}

// Connect binds the client to the host of targetURL. It returns the
// host:port string that relative links resolve against. No network
// traffic happens here; the first IssueRequest dials lazily.
func (c *Client) Connect(_ context.Context, targetURL string) (string, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("fetch: parse %q: %w", targetURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("fetch: no host in %q", targetURL)
	}

	c.scheme = u.Scheme
	c.hostPort = u.Host

	switch portStr := u.Port(); portStr {
	case "":
		if u.Scheme == "https" {
			c.port = 443
		} else {
			c.port = 80
		}
	default:
		n, err := strconv.Atoi(portStr)
		if err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("fetch: bad port in %q", targetURL)
		}
		c.port = uint16(n)
	}
	return c.hostPort, nil
}

// Scheme returns "http" or "https" after Connect, empty before.
func (c *Client) Scheme() string { return c.scheme }

// Port returns the connected port, 0 before Connect.
func (c *Client) Port() uint16 { return c.port }

// HostPort returns the connected host:port, empty before Connect.
func (c *Client) HostPort() string { return c.hostPort }

// Response is the outcome of one request: the HTTP status and the
// body decoded to UTF-8 and truncated at the configured size.
type Response struct {
	StatusCode int
	Body       string
}

// IssueRequest performs one request against the connected host. A path
// starting with "/" is resolved against the connected host; a full URL
// with a scheme is used as given, which covers links that point off the
// seed host.
func (c *Client) IssueRequest(ctx context.Context, method, path string) (*Response, error) {
	if c.hostPort == "" {
		return nil, ErrNotConnected
	}

	target := path
	if !strings.Contains(path, "://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target = c.scheme + "://" + c.hostPort + path
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request for %q: %w", target, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := c.decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body of %q: %w", target, err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// decodeBody reads at most maxBodySize bytes and converts them to
// UTF-8 using the response charset, the configured fallback, or
// content sniffing, in that order.
func (c *Client) decodeBody(resp *http.Response) (string, error) {
	limited := io.LimitReader(resp.Body, c.maxBodySize)

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "charset=") && c.fallbackCharset != "" {
		contentType += "; charset=" + c.fallbackCharset
	}

	reader, err := charset.NewReader(limited, contentType)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
