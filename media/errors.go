package media

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind           = errors.New("unknown media kind")
	ErrNoEndpoints           = errors.New("no endpoints available in the selected category")
	ErrMissingRedirectTarget = errors.New("redirect response has no usable Location header")
	ErrNoURLInResponse       = errors.New("no media url found in response")
	ErrPayloadTooLarge       = errors.New("payload exceeds size limit")
	ErrTooManyRedirects      = errors.New("too many redirects")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrEndpointNotFound      = errors.New("endpoint not found")
	ErrBuiltinCategory       = errors.New("builtin categories cannot be modified")
	ErrInvalidInput          = errors.New("invalid input")
	ErrQueueEmpty            = errors.New("no preloaded item is ready")
)

// UpstreamError is returned when an endpoint answers with an application-level
// failure, either a JSON envelope code other than 200 or a non-2xx download.
type UpstreamError struct {
	Code int
	Msg  string
}

func (e *UpstreamError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("upstream error: code %d", e.Code)
	}
	return fmt.Sprintf("upstream error: code %d: %s", e.Code, e.Msg)
}

// UnknownFormatError means none of the resolution rules recognised the response.
type UnknownFormatError struct {
	Status int
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown response format (status %d)", e.Status)
}

// NetworkError wraps transport failures: dial, TLS, timeout or a broken body.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TooLarge builds an ErrPayloadTooLarge with the offending sizes attached.
func TooLarge(got, limit int64) error {
	return fmt.Errorf("%w: %d bytes > %d bytes", ErrPayloadTooLarge, got, limit)
}
