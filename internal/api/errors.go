package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/category"
	"github.com/joestump/curated-links/internal/links"
	"github.com/joestump/curated-links/internal/store"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var validate = validator.New()

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message, Code: code})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// decode reads a JSON body into v and validates its struct tags.
func decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return errors.Wrap(errBadRequest, "invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.Wrapf(errBadRequest, "%s failed %q validation", fe.Field(), fe.Tag())
		}
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

var errBadRequest = errors.New("bad request")

// writeDomainError maps err to a status code. resource names the entity in
// not-found and conflict messages.
func writeDomainError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, resource string) {
	switch {
	case errors.Is(err, errBadRequest):
		writeError(w, r, http.StatusBadRequest, messageOf(err), "BAD_REQUEST")
	case errors.Is(err, category.ErrInvalidImage):
		writeError(w, r, http.StatusBadRequest, err.Error(), "INVALID_IMAGE")
	case errors.Is(err, category.ErrInvalidName):
		writeError(w, r, http.StatusBadRequest, err.Error(), "INVALID_NAME")
	case errors.Is(err, links.ErrURLEmpty), errors.Is(err, links.ErrURLFormat):
		writeError(w, r, http.StatusBadRequest, err.Error(), "INVALID_URL")
	case errors.Is(err, links.ErrTitleEmpty),
		errors.Is(err, links.ErrInvalidType),
		errors.Is(err, links.ErrInvalidMedium):
		writeError(w, r, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, store.ErrUnknownCategory):
		writeError(w, r, http.StatusBadRequest, err.Error(), "UNKNOWN_CATEGORY")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, resource+" not found", "NOT_FOUND")
	case errors.Is(err, store.ErrSlugTaken), errors.Is(err, links.ErrLinkExists):
		writeError(w, r, http.StatusConflict, resource+" already exists", "ALREADY_EXISTS")
	case errors.Is(err, store.ErrImageChanged):
		writeError(w, r, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, category.ErrUpload):
		writeError(w, r, http.StatusBadGateway, "image upload failed", "UPLOAD_FAILED")
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	}
}

// messageOf strips the trailing sentinel text from a wrapped errBadRequest.
func messageOf(err error) string {
	msg := err.Error()
	suffix := ": " + errBadRequest.Error()
	if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
		return msg[:len(msg)-len(suffix)]
	}
	return msg
}
