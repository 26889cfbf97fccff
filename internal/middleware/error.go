package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Machine-readable error codes. Clients branch on these, never on messages.
const (
	CodeBadRequest      = "bad_request"
	CodeValidation      = "validation_error"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeUnsupportedType = "unsupported_media_type"
	CodeRuleViolation   = "rule_violation"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal_error"
	CodeUpstream        = "upstream_error"
)

var statusCodes = map[int]string{
	http.StatusBadRequest:            CodeBadRequest,
	http.StatusUnauthorized:          CodeUnauthorized,
	http.StatusForbidden:             CodeForbidden,
	http.StatusNotFound:              CodeNotFound,
	http.StatusConflict:              CodeConflict,
	http.StatusUnsupportedMediaType:  CodeUnsupportedType,
	http.StatusUnprocessableEntity:   CodeRuleViolation,
	http.StatusTooManyRequests:       CodeRateLimited,
	http.StatusBadGateway:            CodeUpstream,
	http.StatusServiceUnavailable:    CodeUpstream,
	http.StatusRequestEntityTooLarge: CodeBadRequest,
}

// CodeFor returns the error code used for an HTTP status.
func CodeFor(status int) string {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	if status >= 500 {
		return CodeInternal
	}
	return CodeBadRequest
}

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	writeError(w, statusCode, CodeFor(statusCode), message, details)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	writeError(w, http.StatusBadRequest, CodeValidation, "validation failed", map[string]interface{}{
		"validation_errors": errors,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	RespondWithJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: w.Header().Get(RequestIDHeader),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// RequestIDHeader echoes the chi request id back to the client.
const RequestIDHeader = "X-Request-Id"

// RequestIDResponse copies the request id assigned by chi's RequestID
// middleware onto the response so error bodies and logs can be correlated.
func RequestIDResponse(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorHandlingMiddleware turns a panicking handler into a 500 response
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("Panic recovered",
						zap.Any("error", rec),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.String("request_id", middleware.GetReqID(r.Context())),
						zap.Stack("stack"),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
