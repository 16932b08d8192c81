package web

// errors.go renders errors as JSON.
//
// The technical error is logged with the request id; the client receives the
// mapped UserMessage so that internal details never leave the server.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/mztab/internal/logging"
)

// Errors raised by the handlers. Their texts are the patterns in messages.go.
var (
	errNoFile              = errors.New("no file provided")
	errEmptyFile           = errors.New("empty file")
	errInvalidLevel        = errors.New("invalid level")
	errInvalidMaxErrors    = errors.New("invalid max_errors")
	errInvalidKeepRows     = errors.New("invalid keep_rows")
	errInvalidReportID     = errors.New("invalid report id")
	errInvalidLimit        = errors.New("invalid limit")
	errPersistenceDisabled = errors.New("persistence disabled")
	errRateLimited         = errors.New("rate limit exceeded")
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// respondError logs err and writes its user message with status.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := MapError(err)
	logger := logging.FromContext(r.Context())

	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError || !IsUserFacing(err) {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request rejected", args...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:     msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// writeJSON writes v with status 200. Encoding errors can only be logged
// because the header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
