package utils

import (
	"errors"
	"net/http"

	"recipehub/logging"
	"recipehub/media"
	"recipehub/store"
	"recipehub/validation"
)

// RespondWithErr maps a service error onto the response contract. Errors
// with no specific mapping are logged and reported as 500.
func RespondWithErr(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		RespondWithError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrBadID):
		RespondWithError(w, http.StatusBadRequest, "Invalid id")
	case errors.Is(err, store.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, media.ErrNoFile):
		RespondWithError(w, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, media.ErrTooBig):
		RespondWithError(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, media.ErrUpload):
		logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("media host failure")
		RespondWithError(w, http.StatusBadGateway, "Failed to upload image")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		RespondWithError(w, http.StatusInternalServerError, "An error occurred")
	}
}
