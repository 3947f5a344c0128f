// Package limiter paces probes per target host.
package limiter

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// PerHost keeps one token bucket per host name.
type PerHost struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// New returns a limiter allowing perSecond requests per host with the given
// burst. It returns nil when perSecond is not positive; a nil *PerHost never
// blocks.
func New(perSecond float64, burst int) *PerHost {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &PerHost{
		limit: rate.Limit(perSecond),
		burst: burst,
		hosts: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to rawURL's host may proceed or ctx is done.
// URLs without a parsable host are not paced.
func (p *PerHost) Wait(ctx context.Context, rawURL string) error {
	if p == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil
	}
	return p.bucket(host).Wait(ctx)
}

// hostCount returns the number of hosts seen so far.
func (p *PerHost) hostCount() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.hosts)
}

func (p *PerHost) bucket(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.hosts[host]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.hosts[host] = l
	}
	return l
}
