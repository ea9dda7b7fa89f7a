// Package network builds the HTTP clients used to talk to aggregator endpoints.
//
// Every client sends browser-like headers, can present a Chrome TLS
// fingerprint, and by default skips certificate verification because many
// upstream hosts serve expired or self-signed certificates.
package network

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mediaroll/mediaroll/constant"
	"github.com/mediaroll/mediaroll/media"
)

// Options configures a Client.
type Options struct {
	// Timeout bounds the whole exchange, body included.
	Timeout time.Duration
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration
	// Fingerprint makes https connections look like Chrome 120.
	Fingerprint bool
	// Insecure disables certificate verification.
	Insecure bool
	// MaxRedirects is the number of redirects followed automatically.
	// Zero hands every 3xx back to the caller untouched.
	MaxRedirects int
	UserAgent    string
	Referer      string
}

// Client is an http.Client that stamps browser headers on every request.
type Client struct {
	http      *http.Client
	userAgent string
	referer   string
}

// New builds a Client from opts.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = constant.UserAgent
	}

	c := &http.Client{
		Timeout:   opts.Timeout,
		Transport: newTransport(opts),
	}

	if opts.MaxRedirects <= 0 {
		c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		limit := opts.MaxRedirects
		c.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) > limit {
				return media.ErrTooManyRedirects
			}
			return nil
		}
	}

	return &Client{http: c, userAgent: opts.UserAgent, referer: opts.Referer}
}

// Get issues a GET with browser headers. Values in header override the defaults.
// Transport failures are returned as *media.NetworkError.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &media.NetworkError{Op: "GET", URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	for k, values := range header {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, media.ErrTooManyRedirects) {
			return nil, media.ErrTooManyRedirects
		}
		return nil, &media.NetworkError{Op: "GET", URL: rawURL, Err: err}
	}

	return resp, nil
}

// ResolveLocation resolves a Location header value against the URL that
// produced it. Relative and absolute forms are both accepted; the result must
// be an absolute http(s) URL.
func ResolveLocation(base *url.URL, location string) (string, bool) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", false
	}

	var (
		u   *url.URL
		err error
	)
	if base != nil {
		u, err = base.Parse(location)
	} else {
		u, err = url.Parse(location)
	}
	if err != nil || u.Host == "" {
		return "", false
	}

	switch u.Scheme {
	case "http", "https":
		return u.String(), true
	default:
		return "", false
	}
}

// IsRedirect reports whether status asks the client to look elsewhere.
func IsRedirect(status int) bool {
	return status >= 300 && status < 400
}

// newTransport picks the fingerprinting transport or a tuned standard one.
func newTransport(opts Options) http.RoundTripper {
	plain := newPlainTransport(opts)
	if !opts.Fingerprint {
		return plain
	}
	return newFingerprintTransport(opts, plain)
}

// newPlainTransport clones the default transport with pool and timeout tuning.
func newPlainTransport(opts Options) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 30 * time.Second
	t.DialContext = (&net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = opts.ConnectTimeout
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.Insecure, MinVersion: tls.VersionTLS12}
	return t
}

func (o Options) String() string {
	return fmt.Sprintf("timeout=%s connect=%s fingerprint=%t insecure=%t redirects=%d",
		o.Timeout, o.ConnectTimeout, o.Fingerprint, o.Insecure, o.MaxRedirects)
}
