package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"blogcms/internal/blog"
	"blogcms/internal/logger"
	"blogcms/internal/middleware"
)

// errorBody is the JSON shape of every API error. Validation failures carry
// Errors keyed by field; everything else carries a machine-readable Error.
type errorBody struct {
	Message   string              `json:"message"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Error     string              `json:"error,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(r.Context()).Error("encode response failed", "error", err)
		http.Error(w, `{"message":"Server Error","error":"internal"}`, http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, body)
}

// writeRaw writes an already encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// writeMessage writes {"message": msg}.
func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"message": msg})
}

// writeError maps err onto the error taxonomy: validation 422, not found
// 404, slug race 409 and anything else 500 with the detail only logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	body.RequestID = middleware.RequestIDFromCtx(r.Context())

	log := logger.FromContext(r.Context())
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		log.Debug("request rejected", "status", status, "error", err)
	}
	writeJSON(w, r, status, body)
}

func errorResponse(err error) (int, errorBody) {
	var fields blog.FieldErrors
	if errors.As(err, &fields) {
		return http.StatusUnprocessableEntity, errorBody{
			Message: summarize(fields),
			Errors:  fields,
		}
	}

	var be *blog.Error
	if errors.As(err, &be) {
		switch {
		case errors.Is(be.Kind, blog.ErrValidation) && be.Field != "":
			return http.StatusUnprocessableEntity, errorBody{
				Message: be.Message,
				Errors:  map[string][]string{be.Field: {be.Message}},
			}
		case errors.Is(be.Kind, blog.ErrValidation):
			return http.StatusUnprocessableEntity, errorBody{Message: be.Message, Error: be.Code}
		case errors.Is(be.Kind, blog.ErrNotFound):
			return http.StatusNotFound, errorBody{Message: be.Message, Error: be.Code}
		case errors.Is(be.Kind, blog.ErrConflict):
			return http.StatusConflict, errorBody{Message: be.Message, Error: be.Code}
		}
	}

	return http.StatusInternalServerError, errorBody{Message: "Server Error", Error: "internal"}
}

// summarize returns the first message, noting how many others follow.
func summarize(fields blog.FieldErrors) string {
	names := make([]string, 0, len(fields))
	total := 0
	for name, msgs := range fields {
		names = append(names, name)
		total += len(msgs)
	}
	if total == 0 {
		return blog.ErrValidation.Error()
	}
	sort.Strings(names)

	first := fields[names[0]][0]
	switch rest := total - 1; rest {
	case 0:
		return first
	case 1:
		return first + " (and 1 more error)"
	default:
		return fmt.Sprintf("%s (and %d more errors)", first, rest)
	}
}
