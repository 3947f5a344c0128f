package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"

	"github.com/starford/tabtidy/internal/httpclient"
)

// Classify maps a transport error to a Reason. Checks run in a fixed order:
// safety refusals, timeout, redirect cap, TLS, connection, then everything
// else.
func Classify(err error) Reason {
	if err == nil {
		return Reason{Kind: Unexpected, Message: "nil error"}
	}
	msg := errorMessage(err)

	switch {
	case errors.Is(err, errUnsafeHop), errors.Is(err, httpclient.ErrBlockedAddress):
		return Reason{Kind: UnsafeTarget, Message: msg}
	case errors.Is(err, errProhibitedHop):
		return Reason{Kind: ProhibitedContent, Message: msg}
	case isTimeout(err):
		return Reason{Kind: Timeout, Message: msg}
	case errors.Is(err, httpclient.ErrTooManyRedirects):
		return Reason{Kind: TooManyRedirects, Message: msg}
	case isTLS(err):
		return Reason{Kind: TLSError, Message: msg}
	case isConnection(err):
		return Reason{Kind: ConnectionError, Message: msg}
	default:
		return Reason{Kind: Unexpected, Message: msg}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isTLS(err error) bool {
	var (
		verifyErr  *tls.CertificateVerificationError
		authErr    x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
		headerErr  tls.RecordHeaderError
		alertErr   tls.AlertError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &authErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &headerErr) ||
		errors.As(err, &alertErr)
}

func isConnection(err error) bool {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	return errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// errorMessage drops the "Get \"url\":" prefix that *url.Error adds; the URL
// is already on the verdict.
func errorMessage(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}
