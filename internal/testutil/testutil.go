// Package testutil provides shared test helpers: fake sites served over
// httptest, clients pinned to them, and temporary document stores.
package testutil

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/tabtidy/internal/httpclient"
	"github.com/starford/tabtidy/internal/storage"
)

// Sites serves fake hosts. Every request is answered by the handler
// registered for its host name; unknown hosts get 404.
type Sites struct {
	plain  *httptest.Server
	secure *httptest.Server
	hosts  map[string]http.Handler
}

// NewSites starts a plain and a TLS listener sharing one host router. Both
// are closed when the test ends.
func NewSites(t *testing.T, hosts map[string]http.Handler) *Sites {
	t.Helper()
	s := &Sites{hosts: hosts}
	router := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		h, ok := s.hosts[strings.ToLower(host)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
	s.plain = httptest.NewServer(router)
	s.secure = httptest.NewTLSServer(router)
	t.Cleanup(s.plain.Close)
	t.Cleanup(s.secure.Close)
	return s
}

// Status returns a handler that always answers with code.
func Status(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

// Client returns a probe client whose connections always reach the fake
// sites: port 443 goes to the TLS listener (certificate not verified), any
// other port to the plain one.
func (s *Sites) Client(maxRedirects int) *http.Client {
	c := httpclient.New(httpclient.Config{MaxRedirects: maxRedirects})
	c.Transport = PinnedTransport(s.plain.Listener.Addr().String(), s.secure.Listener.Addr().String())
	return c
}

// PinnedTransport dials plainAddr for every connection, or tlsAddr when the
// requested port is 443 and tlsAddr is set.
func PinnedTransport(plainAddr, tlsAddr string) *http.Transport {
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			target := plainAddr
			if _, port, err := net.SplitHostPort(addr); err == nil && port == "443" && tlsAddr != "" {
				target = tlsAddr
			}
			var d net.Dialer
			return d.DialContext(ctx, network, target)
		},
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // test servers only
	}
}

// TestStore creates a temporary directory with a rooted storage provider.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
