package errs

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// Kind classifies why an adapter could not do its job.
type Kind string

const (
	KindNone             Kind = ""
	KindConfigMissing    Kind = "config-missing"
	KindTransient        Kind = "transient-network"
	KindUpstreamRejected Kind = "upstream-rejected"
	KindUnexpected       Kind = "unexpected"
)

// Error is an adapter failure tagged with a Kind
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + string(e.Kind)
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with an operation name and kind.
func New(op string, kind Kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// ConfigMissing reports a credential or setting that was never supplied.
func ConfigMissing(op, msg string) error {
	return &Error{Op: op, Kind: KindConfigMissing, Err: errors.New(msg)}
}

// KindOf returns the kind attached to err, falling back to inspecting the
// error chain for network and deadline failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var e *Error
	if errors.As(err, &e) && e.Kind != KindNone {
		return e.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindTransient
	}

	return KindUnexpected
}

// FromStatus classifies a non-success HTTP status. Throttling and server
// errors are transient, everything else is a rejection of the request.
func FromStatus(code int) Kind {
	switch {
	case code >= 200 && code < 300:
		return KindNone
	case code == 429 || code >= 500:
		return KindTransient
	default:
		return KindUpstreamRejected
	}
}
