package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mediaroll/mediaroll/log"
	"github.com/mediaroll/mediaroll/media"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		upstream *media.UpstreamError
		unknown  *media.UnknownFormatError
		network  *media.NetworkError
	)

	switch {
	case errors.Is(err, media.ErrCategoryNotFound),
		errors.Is(err, media.ErrEndpointNotFound),
		errors.Is(err, media.ErrQueueEmpty):
		return http.StatusNotFound
	case errors.Is(err, media.ErrInvalidInput),
		errors.Is(err, media.ErrUnknownKind),
		errors.Is(err, media.ErrBuiltinCategory):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrNoEndpoints):
		return http.StatusConflict
	case errors.Is(err, media.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &upstream),
		errors.As(err, &unknown),
		errors.As(err, &network),
		errors.Is(err, media.ErrMissingRedirectTarget),
		errors.Is(err, media.ErrNoURLInResponse),
		errors.Is(err, media.ErrTooManyRedirects):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithField("error", err).Debug("write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{"status": status, "error": err}).Warn("request failed")
	}
	writeError(w, status, err.Error())
}
