package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/labstack/echo/v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// Response represents API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ProblemDetail represents RFC 9457 Problem Details for HTTP APIs
// See: https://www.rfc-editor.org/rfc/rfc9457.html
type ProblemDetail struct {
	Type     string                 `json:"type"`               // URI reference identifying the problem type
	Title    string                 `json:"title"`              // Short, human-readable summary
	Status   int                    `json:"status"`             // HTTP status code
	Detail   string                 `json:"detail"`             // Human-readable explanation
	Instance string                 `json:"instance"`           // URI reference identifying the specific occurrence
	TraceID  string                 `json:"trace_id,omitempty"` // Datadog trace ID for correlation
	SpanID   string                 `json:"span_id,omitempty"`  // Datadog span ID for correlation
	Notify   *bool                  `json:"notify,omitempty"`   // Whether this error should trigger alerts
	Extra    map[string]interface{} `json:"-"`                  // Additional extension members
}

// ErrorType defines standard error type URIs
const (
	ErrorTypeValidation     = "https://user-role-api.example.com/errors/validation"
	ErrorTypeNotFound       = "https://user-role-api.example.com/errors/not-found"
	ErrorTypeConflict       = "https://user-role-api.example.com/errors/conflict"
	ErrorTypeInternal       = "https://user-role-api.example.com/errors/internal"
	ErrorTypeServiceUnavail = "https://user-role-api.example.com/errors/service-unavailable"
)

// contentTypeProblem is the media type defined by RFC 9457
const contentTypeProblem = "application/problem+json"

// RespondJSONWithTrace sends a JSON response with trace headers
func RespondJSONWithTrace(c echo.Context, status int, data interface{}) error {
	setTraceHeaders(c)
	return c.JSON(status, data)
}

// RespondSuccessWithTrace sends a success response with trace information
func RespondSuccessWithTrace(c echo.Context, status int, data interface{}, message string) error {
	return RespondJSONWithTrace(c, status, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// RespondProblemWithTrace sends an RFC 9457 Problem Details response with trace information
func RespondProblemWithTrace(c echo.Context, problem ProblemDetail) error {
	if traceID, spanID, ok := setTraceHeaders(c); ok {
		problem.TraceID = traceID
		problem.SpanID = spanID
	}

	// Extension members sit at the root level next to the standard ones
	body := map[string]interface{}{
		"type":     problem.Type,
		"title":    problem.Title,
		"status":   problem.Status,
		"detail":   problem.Detail,
		"instance": problem.Instance,
	}
	if problem.TraceID != "" {
		body["trace_id"] = problem.TraceID
		body["span_id"] = problem.SpanID
	}
	if problem.Notify != nil {
		body["notify"] = *problem.Notify
	}
	for k, v := range problem.Extra {
		if _, reserved := body[k]; !reserved {
			body[k] = v
		}
	}

	// echo keeps an existing Content-Type
	c.Response().Header().Set(echo.HeaderContentType, contentTypeProblem)
	return c.JSON(problem.Status, body)
}

func setTraceHeaders(c echo.Context) (string, string, bool) {
	span, ok := tracer.SpanFromContext(c.Request().Context())
	if !ok {
		return "", "", false
	}
	spanContext := span.Context()
	traceID := fmt.Sprintf("%d", spanContext.TraceID())
	spanID := fmt.Sprintf("%d", spanContext.SpanID())

	h := c.Response().Header()
	h.Set("X-Datadog-Trace-Id", traceID)
	h.Set("X-Datadog-Span-Id", spanID)
	h.Set("X-Datadog-Parent-Id", spanID)
	return traceID, spanID, true
}

// NewProblemDetail creates a new ProblemDetail with common fields set
func NewProblemDetail(errorType, title string, status int, detail, instance string) ProblemDetail {
	return ProblemDetail{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
		Extra:    make(map[string]interface{}),
	}
}

// NewInternalErrorProblem creates a problem detail for internal server errors
func NewInternalErrorProblem(detail, instance string, notify bool) ProblemDetail {
	problem := NewProblemDetail(
		ErrorTypeInternal,
		"Internal Server Error",
		http.StatusInternalServerError,
		detail,
		instance,
	)
	problem.Notify = &notify
	return problem
}

// NewValidationErrorProblem creates a problem detail for validation errors
func NewValidationErrorProblem(detail, instance string) ProblemDetail {
	return newExpectedProblem(ErrorTypeValidation, "Validation Error", http.StatusBadRequest, detail, instance)
}

// NewNotFoundProblem creates a problem detail for not found errors
func NewNotFoundProblem(detail, instance string) ProblemDetail {
	return newExpectedProblem(ErrorTypeNotFound, "Not Found", http.StatusNotFound, detail, instance)
}

// NewConflictProblem creates a problem detail for conflict errors
func NewConflictProblem(detail, instance string) ProblemDetail {
	return newExpectedProblem(ErrorTypeConflict, "Conflict", http.StatusConflict, detail, instance)
}

// NewServiceUnavailableProblem creates a problem detail for a failing dependency
func NewServiceUnavailableProblem(detail, instance string) ProblemDetail {
	notify := true
	problem := NewProblemDetail(
		ErrorTypeServiceUnavail,
		"Service Unavailable",
		http.StatusServiceUnavailable,
		detail,
		instance,
	)
	problem.Notify = &notify
	return problem
}

func newExpectedProblem(errorType, title string, status int, detail, instance string) ProblemDetail {
	notifyFalse := false
	problem := NewProblemDetail(errorType, title, status, detail, instance)
	problem.Notify = &notifyFalse
	return problem
}

// FromError maps a domain error onto its problem detail.
// Unexpected failures get a generic detail so internals never leak.
func FromError(err error, instance string) ProblemDetail {
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Kind == domain.KindUnexpected {
		return NewInternalErrorProblem("An unexpected error occurred", instance, true)
	}

	var problem ProblemDetail
	switch derr.Kind {
	case domain.KindNotFound:
		problem = NewNotFoundProblem(derr.Message, instance)
	case domain.KindValidation:
		problem = NewValidationErrorProblem(derr.Message, instance)
	default:
		problem = NewConflictProblem(derr.Message, instance)
	}

	problem.Extra["kind"] = string(derr.Kind)
	if derr.Entity != "" {
		problem.Extra["entity"] = derr.Entity
	}
	if derr.Field != "" {
		problem.Extra["field"] = derr.Field
	}
	if derr.Value != "" {
		problem.Extra["value"] = derr.Value
	}
	return problem
}

// IsExpected reports whether err is a client-side failure that should not alert
func IsExpected(err error) bool {
	kind := domain.KindOf(err)
	return kind != domain.KindUnexpected
}
