// Package errs provides structured error types and helpers for SoleScan services.
package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Code identifies a failure category within the pricing pipeline.
type Code string

const (
	// CodeNoMatch indicates that no classifier label resolved to a known sneaker.
	CodeNoMatch Code = "no_match"
	// CodeClassifier indicates an upstream image-recognition failure.
	CodeClassifier Code = "classifier"
	// CodeProviderUnavailable indicates a pricing-source transport failure.
	CodeProviderUnavailable Code = "provider_unavailable"
	// CodeRateLimited indicates that a pricing source throttled the request.
	CodeRateLimited Code = "rate_limited"
	// CodeProviderEmpty indicates the pricing source returned no match for the identity.
	CodeProviderEmpty Code = "provider_empty"
	// CodeNoPricingData indicates that every pricing source degraded in one aggregation.
	CodeNoPricingData Code = "no_pricing_data"
	// CodeTimeout indicates the overall pipeline deadline expired.
	CodeTimeout Code = "timeout"
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
	// CodeNotFound indicates a missing resource.
	CodeNotFound Code = "not_found"
	// CodeUnavailable indicates an internal component is temporarily unavailable.
	CodeUnavailable Code = "unavailable"
)

// E captures structured error information produced across the SoleScan stack.
type E struct {
	Source  string
	Code    Code
	HTTP    int
	RawCode string
	RawMsg  string
	Message string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the source and error code.
func New(source string, code Code, opts ...Option) *E {
	e := &E{
		Source:  strings.TrimSpace(source),
		Code:    code,
		HTTP:    0,
		RawCode: "",
		RawMsg:  "",
		Message: "",
		cause:   nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithHTTP records the associated HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithRawCode captures the raw upstream error code.
func WithRawCode(code string) Option {
	trimmed := strings.TrimSpace(code)
	return func(e *E) {
		e.RawCode = trimmed
	}
}

// WithRawMessage captures the raw upstream error message.
func WithRawMessage(msg string) Option {
	return func(e *E) {
		e.RawMsg = msg
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	source := strings.TrimSpace(e.Source)
	if source == "" {
		source = "unknown"
	}
	parts = append(parts, "source="+source)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.RawCode != "" {
		parts = append(parts, "raw_code="+strconv.Quote(e.RawCode))
	}
	if e.RawMsg != "" {
		parts = append(parts, "raw_msg="+strconv.Quote(e.RawMsg))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// CodeOf extracts the error code from err, walking the wrap chain.
// Errors outside the envelope report an empty code.
func CodeOf(err error) Code {
	var envelope *E
	if errors.As(err, &envelope) {
		return envelope.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// ProviderDegraded reports whether err is a per-source failure the aggregator
// absorbs locally rather than surfacing to the caller.
func ProviderDegraded(err error) bool {
	switch CodeOf(err) {
	case CodeProviderUnavailable, CodeRateLimited, CodeProviderEmpty:
		return true
	default:
		return false
	}
}
