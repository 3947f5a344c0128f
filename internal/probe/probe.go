package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/starford/tabtidy/internal/bookmark"
	"github.com/starford/tabtidy/internal/httpclient"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultUserAgent = "tabtidy/1.0 (+link checker)"
	DefaultMaxBody   = 4 << 10
)

var (
	errUnsafeHop     = errors.New("redirect to unsafe target")
	errProhibitedHop = errors.New("redirect to prohibited content")
)

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Classifier decides whether a host or URL must be rejected without probing.
type Classifier interface {
	IsUnsafeDomain(host string) bool
	ContainsProhibitedContent(rawURL string) bool
}

// Limiter paces requests per target.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Observer receives every verdict with the time spent producing it.
type Observer interface {
	ObserveProbe(v Verdict, elapsed time.Duration)
}

// Prober validates single links. It is safe for concurrent use.
type Prober struct {
	client     Doer
	classifier Classifier
	limiter    Limiter
	observer   Observer
	log        *slog.Logger
	timeout    time.Duration
	userAgent  string
	maxBody    int64
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every probe.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithMaxBody caps how many body bytes are read before closing.
func WithMaxBody(n int64) Option {
	return func(p *Prober) {
		if n >= 0 {
			p.maxBody = n
		}
	}
}

// WithLimiter paces requests; nil disables pacing.
func WithLimiter(l Limiter) Option {
	return func(p *Prober) { p.limiter = l }
}

// WithObserver reports each verdict, e.g. to metrics.
func WithObserver(o Observer) Option {
	return func(p *Prober) { p.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.log = l
		}
	}
}

// New returns a Prober that sends requests through client and screens URLs
// with classifier first.
func New(client Doer, classifier Classifier, opts ...Option) *Prober {
	p := &Prober{
		client:     client,
		classifier: classifier,
		log:        slog.Default(),
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		maxBody:    DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe checks rawURL and returns its verdict. It never panics and never
// returns an error: every failure becomes an invalid verdict. The request
// timeout is independent of ctx cancellation so an in-flight probe finishes
// or times out on its own.
func (p *Prober) Probe(ctx context.Context, rawURL, title string) (v Verdict) {
	start := time.Now()
	target := bookmark.NormalizeURL(rawURL)

	defer func() {
		if r := recover(); r != nil {
			v = Invalid(target, Reason{Kind: Unexpected, Message: fmt.Sprintf("panic: %v", r)})
		}
		if p.observer != nil {
			p.observer.ObserveProbe(v, time.Since(start))
		}
		if v.Valid {
			p.log.Debug("link ok", "url", target, "title", title)
		} else {
			p.log.Debug("link rejected", "url", target, "title", title, "reason", v.ReasonText())
		}
	}()

	return p.probe(ctx, target)
}

func (p *Prober) probe(ctx context.Context, target string) Verdict {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		msg := "missing host"
		if err != nil {
			msg = errorMessage(err)
		}
		return Invalid(target, Reason{Kind: InvalidFormat, Message: msg})
	}

	if p.classifier != nil {
		if p.classifier.IsUnsafeDomain(u.Hostname()) {
			return Invalid(target, Reason{Kind: UnsafeTarget})
		}
		if p.classifier.ContainsProhibitedContent(target) {
			return Invalid(target, Reason{Kind: ProhibitedContent})
		}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, target); err != nil {
			return Invalid(target, Classify(err))
		}
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if p.classifier != nil {
		reqCtx = httpclient.WithHopCheck(reqCtx, p.checkHop)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return Invalid(target, Reason{Kind: InvalidFormat, Message: err.Error()})
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return Invalid(target, Classify(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if p.maxBody > 0 {
		_, _ = io.CopyN(io.Discard, resp.Body, p.maxBody)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest {
		return Valid(target)
	}
	return Invalid(target, Reason{Kind: BadStatus, StatusCode: resp.StatusCode})
}

// checkHop applies the pre-request screening to every redirect target.
func (p *Prober) checkHop(u *url.URL) error {
	if p.classifier.IsUnsafeDomain(u.Hostname()) {
		return fmt.Errorf("%w: %s", errUnsafeHop, u.Host)
	}
	if p.classifier.ContainsProhibitedContent(u.String()) {
		return fmt.Errorf("%w: %s", errProhibitedHop, u.Redacted())
	}
	return nil
}
