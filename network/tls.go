package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// fingerprintTransport sends https requests over uTLS connections carrying
// Chrome 120's ClientHello. HTTP/2 is attempted first; when the server does
// not negotiate it the request is replayed over HTTP/1.1. Plain http goes
// through the standard transport.
type fingerprintTransport struct {
	plain *http.Transport
	h2    *http2.Transport
	h1    *http.Transport
}

func newFingerprintTransport(opts Options, plain *http.Transport) *fingerprintTransport {
	d := dialer{connectTimeout: opts.ConnectTimeout, insecure: opts.Insecure}

	return &fingerprintTransport{
		plain: plain,
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return d.dial(ctx, network, addr, false)
			},
		},
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return d.dial(ctx, network, addr, true)
			},
			DialContext:         plain.DialContext,
			MaxIdleConnsPerHost: plain.MaxIdleConnsPerHost,
			IdleConnTimeout:     plain.IdleConnTimeout,
		},
	}
}

func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	if req.Context().Err() != nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.Body != nil {
		if req.GetBody == nil {
			return nil, err
		}
		if retry.Body, err = req.GetBody(); err != nil {
			return nil, err
		}
	}

	return t.h1.RoundTrip(retry)
}

type dialer struct {
	connectTimeout time.Duration
	insecure       bool
}

// dial opens a TCP connection and performs a Chrome-fingerprinted handshake.
// With h1only the ALPN extension advertises http/1.1 alone.
func (d dialer) dial(ctx context.Context, network, addr string, h1only bool) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	if d.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.connectTimeout)
		defer cancel()
	}

	return d.handshake(ctx, &net.Dialer{}, network, addr, host, h1only)
}

func (d dialer) handshake(ctx context.Context, nd *net.Dialer, network, addr, host string, h1only bool) (net.Conn, error) {
	conn, err := nd.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	config := &utls.Config{
		ServerName:         host,
		InsecureSkipVerify: d.insecure,
		MinVersion:         tls.VersionTLS12,
	}

	var uconn *utls.UConn
	if h1only {
		spec, err := utls.UTLSIdToSpec(utls.HelloChrome_120)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("chrome spec: %w", err)
		}
		for _, ext := range spec.Extensions {
			if alpn, ok := ext.(*utls.ALPNExtension); ok {
				alpn.AlpnProtocols = []string{"http/1.1"}
			}
		}
		uconn = utls.UClient(conn, config, utls.HelloCustom)
		if err := uconn.ApplyPreset(&spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("apply chrome preset: %w", err)
		}
	} else {
		uconn = utls.UClient(conn, config, utls.HelloChrome_120)
	}

	if err := uconn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return uconn, nil
}
