// Package probe decides whether a single link is worth keeping: URL format,
// target safety, content denylist, and a bounded GET against the target.
package probe

import (
	"fmt"
	"strings"
)

// ReasonKind names why a link failed validation.
type ReasonKind string

const (
	InvalidFormat     ReasonKind = "invalid_format"
	UnsafeTarget      ReasonKind = "unsafe_target"
	ProhibitedContent ReasonKind = "prohibited_content"
	Timeout           ReasonKind = "timeout"
	TooManyRedirects  ReasonKind = "too_many_redirects"
	TLSError          ReasonKind = "tls_error"
	ConnectionError   ReasonKind = "connection_error"
	BadStatus         ReasonKind = "bad_status"
	Unexpected        ReasonKind = "unexpected"
)

var kindInfo = []struct {
	kind  ReasonKind
	label string
	about string
}{
	{InvalidFormat, "invalid URL format", "The URL has no usable scheme or host, or cannot be parsed."},
	{UnsafeTarget, "unsafe domain", "The host, or a host it redirects to, is private, reserved or denylisted."},
	{ProhibitedContent, "prohibited content", "The URL, or a URL it redirects to, contains a denylisted keyword."},
	{Timeout, "timeout", "The target did not answer within the per-request timeout."},
	{TooManyRedirects, "too many redirects", "The redirect chain exceeded the configured cap."},
	{TLSError, "TLS error", "The TLS handshake failed, for example on an untrusted or mismatched certificate."},
	{ConnectionError, "connection error", "The connection could not be established or was dropped (DNS, refused, reset)."},
	{BadStatus, "bad status", "The final response status was outside 200-399."},
	{Unexpected, "unexpected error", "Any other failure, including a crash inside the probe."},
}

// Kinds returns every reason kind in a stable order.
func Kinds() []ReasonKind {
	out := make([]ReasonKind, len(kindInfo))
	for i, k := range kindInfo {
		out[i] = k.kind
	}
	return out
}

// Describe returns a one-sentence explanation of the kind.
func (k ReasonKind) Describe() string {
	for _, info := range kindInfo {
		if info.kind == k {
			return info.about
		}
	}
	return ""
}

func (k ReasonKind) label() string {
	for _, info := range kindInfo {
		if info.kind == k {
			return info.label
		}
	}
	return string(k)
}

// Reason explains a failed verdict. StatusCode is set for BadStatus; Message
// carries transport or crash detail when there is any.
type Reason struct {
	Kind       ReasonKind `json:"kind"`
	StatusCode int        `json:"status_code,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// String renders the reason for humans, e.g. "HTTP 404" or
// "connection error: dial tcp: lookup x: no such host".
func (r Reason) String() string {
	if r.Kind == BadStatus {
		return fmt.Sprintf("HTTP %d", r.StatusCode)
	}
	var b strings.Builder
	b.WriteString(r.Kind.label())
	if r.Message != "" {
		b.WriteString(": ")
		b.WriteString(r.Message)
	}
	return b.String()
}

// Verdict is the outcome of probing one URL. URL is the normalized form that
// was probed. Reason is nil exactly when Valid is true.
type Verdict struct {
	URL    string  `json:"url"`
	Valid  bool    `json:"valid"`
	Reason *Reason `json:"reason,omitempty"`
}

// Valid returns a passing verdict for url.
func Valid(url string) Verdict {
	return Verdict{URL: url, Valid: true}
}

// Invalid returns a failing verdict for url.
func Invalid(url string, r Reason) Verdict {
	return Verdict{URL: url, Reason: &r}
}

// ReasonText returns the human-readable reason, or "" for valid verdicts.
func (v Verdict) ReasonText() string {
	if v.Reason == nil {
		return ""
	}
	return v.Reason.String()
}
