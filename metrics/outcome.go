package metrics

import (
	"errors"

	"github.com/mediaroll/mediaroll/media"
)

// outcome maps a resolution error onto a small, fixed label set.
func outcome(err error) string {
	var (
		upstream *media.UpstreamError
		unknown  *media.UnknownFormatError
		network  *media.NetworkError
	)

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, media.ErrNoEndpoints):
		return "no_endpoints"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.As(err, &unknown):
		return "unknown_format"
	case errors.As(err, &network):
		return "network"
	case errors.Is(err, media.ErrMissingRedirectTarget), errors.Is(err, media.ErrNoURLInResponse):
		return "malformed"
	default:
		return "error"
	}
}
