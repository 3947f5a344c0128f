// Package httpclient builds the shared HTTP client used for link probes.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

// ErrTooManyRedirects is returned (wrapped in a *url.Error) when a request
// exceeds the redirect cap.
var ErrTooManyRedirects = errors.New("too many redirects")

// ErrBlockedAddress is returned when a connection would reach an address
// rejected by Config.DenyAddr.
var ErrBlockedAddress = errors.New("blocked address")

// DefaultMaxRedirects is used when Config.MaxRedirects is not positive.
const DefaultMaxRedirects = 10

// Config tunes the client. Zero values fall back to defaults.
type Config struct {
	Timeout         time.Duration // overall per-request cap, 0 = none
	DialTimeout     time.Duration
	MaxRedirects    int
	MaxConnsPerHost int

	// DenyAddr, when set, is called with the resolved IP of every outgoing
	// connection; returning true refuses the connection.
	DenyAddr func(ip string) bool
}

// HopCheck vets a redirect target before it is followed.
type HopCheck func(target *url.URL) error

type hopCheckKey struct{}

// WithHopCheck returns a context whose requests run check on every redirect
// hop. A non-nil error stops the chain and is returned from Do.
func WithHopCheck(ctx context.Context, check HopCheck) context.Context {
	return context.WithValue(ctx, hopCheckKey{}, check)
}

// New returns a pooled client safe for concurrent use by every probe of a run.
func New(cfg Config) *http.Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	if deny := cfg.DenyAddr; deny != nil {
		dialer.Control = func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				host = address
			}
			if deny(host) {
				return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
			}
			return nil
		}
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
	}

	limit := cfg.MaxRedirects
	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("%w (max %d)", ErrTooManyRedirects, limit)
			}
			if check, ok := req.Context().Value(hopCheckKey{}).(HopCheck); ok && check != nil {
				return check(req.URL)
			}
			return nil
		},
	}
}
