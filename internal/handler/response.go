package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the API has one
// success shape per endpoint and one error shape overall:
//
//	{"error": "validation_error", "message": "...", "fields": {"website": "..."}}
//
// The "error" value is a stable machine-readable kind; "message" is for humans;
// "fields" is only present for validation failures.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/refactorium/internal/apperror"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // Machine-readable error kind (e.g., "not_found")
	Message string            `json:"message"`          // Human-readable description
	Fields  map[string]string `json:"fields,omitempty"` // Offending field -> reason (validation only)
}

// MessageResponse is the body of endpoints that only report what happened.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body; Encode writes the body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// errors.Is walks the whole Unwrap chain, so a service error like
//
//	fmt.Errorf("service/profile: ...: %w", apperror.InvalidFields(...))
//
// still matches apperror.ErrValidation here.
//
// Anything that is not an *AppError is a storage or internal failure. Its
// text may contain SQL or file paths, so it is logged and the client gets a
// generic 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"
		var fields map[string]string

		switch {
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized // 401
			kind = "unauthenticated"
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
			kind = "validation_error"
			fields = appErr.Fields
		case errors.Is(err, apperror.ErrAlreadyFavorited):
			status = http.StatusConflict // 409
			kind = "already_favorited"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			kind = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
			kind = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			kind = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   kind,
			Message: appErr.Message,
			Fields:  fields,
		})
		return
	}

	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected, which is how a PUT carrying "githubUrl" is
// refused instead of silently ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var (
			syntaxErr *json.SyntaxError
			typeErr   *json.UnmarshalTypeError
			maxErr    *http.MaxBytesError
		)
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is empty")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return apperror.ValidationFailed("body", "request body is not valid JSON")
		case errors.As(err, &typeErr):
			return apperror.ValidationFailed(typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field))
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "request body is too large")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			if unq, uerr := strconv.Unquote(field); uerr == nil {
				field = unq
			}
			return apperror.ValidationFailed(field, fmt.Sprintf("%s cannot be set", field))
		default:
			return apperror.ValidationFailed("body", "request body could not be read")
		}
	}

	if dec.More() {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}
