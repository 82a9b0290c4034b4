package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
)

// TraceIDKey is the gin context key checked first by GetTraceID.
const TraceIDKey = "trace_id"

// headerRequestID is the fallback correlation source when no trace exists.
const headerRequestID = "X-Request-ID"

// GetTraceID returns the identifier attached to error responses: an
// explicit trace_id context value, then the active OpenTelemetry trace, then
// the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(TraceIDKey); ok {
		id, _ := v.(string)
		return id
	}

	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return c.Request.Header.Get(headerRequestID)
}

// MapError maps an error to an HTTP status code and error envelope.
// Unknown errors become a 500 with a generic message.
func MapError(err error) (int, *ErrorResponse) {
	var maxBytes *http.MaxBytesError

	switch {
	case domain.IsIndexOutOfRange(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeIndexOutOfRange, err.Error())

	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{validationErr.Field: validationErr.Message}
		}

		return http.StatusBadRequest, resp

	case domain.IsConflict(err):
		return http.StatusConflict, NewErrorResponse(ErrorCodeConflict, err.Error())

	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable,
			"a required dependency is temporarily unavailable")

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, NewErrorResponse(ErrorCodeTimeout, "request timed out")

	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, NewErrorResponse(ErrorCodePayloadTooLarge,
			"request body exceeds the size limit")

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}
}

// HandleError writes the error envelope for err and aborts the chain.
// 5xx responses are logged with the underlying error.
func HandleError(c *gin.Context, err error) {
	status, resp := MapError(err)
	resp.TraceID = GetTraceID(c)

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed",
			"error", err.Error(),
			"status", status,
			"trace_id", resp.TraceID,
		)
	}

	c.AbortWithStatusJSON(status, resp)
}

// RespondWithCode writes an error envelope for an adapter-level failure,
// such as an unparsable path parameter.
func RespondWithCode(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// RespondWithValidationErrors writes a 400 with field-level messages.
func RespondWithValidationErrors(c *gin.Context, fieldErrors map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", fieldErrors).
			WithTraceID(GetTraceID(c)))
}

// HandleBindError responds to a BindAndValidate failure: field errors
// become a 400 with details, oversized bodies a 413, anything else a
// BAD_REQUEST.
func HandleBindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError

	switch {
	case IsValidationError(err):
		RespondWithValidationErrors(c, ValidationErrors(err))
	case errors.As(err, &maxBytes):
		HandleError(c, err)
	default:
		RespondWithCode(c, ErrorCodeBadRequest, "malformed request: "+err.Error())
	}
}
