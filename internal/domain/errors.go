package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared by every aggregation. Adapters wrap these so handlers
// can map failures to HTTP statuses with errors.Is.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNotYetPublished     = errors.New("dataset not yet published")
	ErrMalformedPayload    = errors.New("malformed upstream payload")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNoData              = errors.New("no data available")
)

// StatusError is a non-2xx response from an upstream provider.
type StatusError struct {
	Provider   string
	Unit       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("%s request failed for %s: %d", e.Provider, e.Unit, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: %d", e.Provider, e.StatusCode)
}

// Unwrap classifies the status: 404 means the dataset is not published yet,
// anything else is an upstream outage.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotYetPublished
	}
	return ErrUpstreamUnavailable
}

// Invalidf builds an ErrInvalidRequest with a caller-facing message.
func Invalidf(format string, args ...any) error {
	return &messageError{kind: ErrInvalidRequest, msg: fmt.Sprintf(format, args...)}
}

// Malformed wraps a decode failure from provider as ErrMalformedPayload.
func Malformed(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, ErrMalformedPayload, err)
}

// messageError carries a kind for errors.Is while keeping Error() free of the
// kind prefix, so the message can be shown to callers as-is.
type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.kind }

// UnitError is the per-unit failure record carried in partial-success bodies.
type UnitError struct {
	Unit    string `json:"unit,omitempty"`
	Year    int    `json:"year,omitempty"`
	Ticker  string `json:"ticker,omitempty"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// NewUnitError records err against a named unit of work.
func NewUnitError(unit string, err error) UnitError {
	msg := err.Error()
	if errors.Is(err, ErrNotYetPublished) {
		msg = "Dataset not yet available"
	}
	return UnitError{Unit: unit, Status: StatusFor(err), Message: msg}
}

// BatchError is returned when every unit of a batch failed. Status is chosen
// by the aggregation (404 for missing history, 502 for quote outages).
type BatchError struct {
	Status  int
	Message string
	Errors  []UnitError
}

func (e *BatchError) Error() string { return e.Message }
func (e *BatchError) Unwrap() error { return ErrNoData }

// StatusFor maps an error to the HTTP status reported to callers.
func StatusFor(err error) int {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Status
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotYetPublished), errors.Is(err, ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, ErrMalformedPayload), errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
