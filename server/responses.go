package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description"`
	Fields           map[string]string `json:"fields,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

// writeJSONError writes an error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, errorResponse{Error: errorCode, ErrorDescription: description})
}

// writeError maps an error from the auth services to a status code and error body.
func writeError(w http.ResponseWriter, err error) {
	status, code, description := classifyError(err)
	body := errorResponse{Error: code, ErrorDescription: description}

	var fields autherrors.FieldErrors
	if errors.As(err, &fields) {
		body.Fields = fields
	}

	switch {
	case status >= http.StatusInternalServerError:
		log.Err(err).Int("status", status).Msg("request failed")
	default:
		log.Debug().Str("error", code).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, body)
}

func classifyError(err error) (status int, code, description string) {
	switch {
	case errors.Is(err, autherrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "No active account found with the given credentials"
	case errors.Is(err, autherrors.ErrTokenBlacklisted):
		return http.StatusUnauthorized, "token_not_valid", "Token is blacklisted"
	case errors.Is(err, autherrors.ErrTokenExpired):
		return http.StatusUnauthorized, "token_not_valid", "Token is expired"
	case errors.Is(err, autherrors.ErrTokenWrongType):
		return http.StatusUnauthorized, "token_not_valid", "Token has wrong type"
	case errors.Is(err, autherrors.ErrTokenInvalidSignature), errors.Is(err, autherrors.ErrTokenMalformed):
		return http.StatusUnauthorized, "token_not_valid", "Token is invalid"
	case errors.Is(err, autherrors.ErrRevocationStoreUnavailable):
		return http.StatusServiceUnavailable, "temporarily_unavailable", "Token revocation status cannot be checked, try again later"
	case errors.Is(err, autherrors.ErrPasswordMismatch):
		return http.StatusBadRequest, "password_mismatch", "Passwords must match"
	case errors.Is(err, autherrors.ErrWeakPassword):
		return http.StatusBadRequest, "weak_password", "Password does not meet strength requirements"
	case errors.Is(err, autherrors.ErrValidation):
		return http.StatusBadRequest, "invalid_request", "Request validation failed"
	case errors.Is(err, autherrors.ErrAlreadyExists):
		return http.StatusConflict, "already_exists", "A profile with that username or email already exists"
	case errors.Is(err, autherrors.ErrNotFound):
		return http.StatusNotFound, "not_found", "Not found"
	default:
		return http.StatusInternalServerError, "server_error", "internal server error"
	}
}

// decodeJSON reads a single JSON object into dst. Unknown fields are rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return fmt.Errorf("%w: request body exceeds %d bytes", autherrors.ErrValidation, maxBytes.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", autherrors.ErrValidation)
		}
		return fmt.Errorf("%w: %w", autherrors.ErrValidation, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", autherrors.ErrValidation)
	}
	return nil
}
