// Package errors defines the structured error type used across the
// application, along with HTTP response helpers for the API layer.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidvault/internal/logger"
)

// Error codes used across the catalog.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeExtractionFailed = "EXTRACTION_FAILED"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

// CatalogError represents a structured error with HTTP context.
type CatalogError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *CatalogError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsExtractionFailed reports whether err carries the EXTRACTION_FAILED code.
func IsExtractionFailed(err error) bool {
	return hasCode(err, CodeExtractionFailed)
}

func hasCode(err error, code string) bool {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// NewNotFoundError reports a missing file, directory, or record.
func NewNotFoundError(resource string, ref string) *CatalogError {
	return &CatalogError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
		Context:    map[string]interface{}{"resource": resource, "ref": ref},
	}
}

// NewExtractionError wraps a prober failure for a specific file.
func NewExtractionError(path string, cause error) *CatalogError {
	return &CatalogError{
		Code:       CodeExtractionFailed,
		Message:    "metadata extraction failed",
		HTTPStatus: http.StatusUnprocessableEntity,
		Context:    map[string]interface{}{"path": path},
		Cause:      cause,
	}
}

// NewDatabaseError wraps a persistence-layer failure.
func NewDatabaseError(operation string, cause error) *CatalogError {
	return &CatalogError{
		Code:       CodeDatabaseError,
		Message:    "database operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Context:    map[string]interface{}{"operation": operation},
		Cause:      cause,
	}
}

// NewValidationError reports an invalid request parameter.
func NewValidationError(message string, field string) *CatalogError {
	return &CatalogError{
		Code:       CodeValidationError,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Context:    map[string]interface{}{"field": field},
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, cause error) *CatalogError {
	return &CatalogError{
		Code:       CodeInternalError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ToGinResponse sends the error as a standardized JSON response.
func (e *CatalogError) ToGinResponse(c *gin.Context) {
	statusCode := e.HTTPStatus
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}

	response := gin.H{
		"error": e.Message,
		"code":  e.Code,
	}
	if len(e.Context) > 0 {
		response["details"] = e.Context
	}

	logger.Error("HTTP error response status=%d code=%s path=%s", statusCode, e.Code, c.Request.URL.Path)
	c.JSON(statusCode, response)
}

// HandleError maps any error to a JSON response, unwrapping structured
// errors and falling back to an internal error otherwise.
func HandleError(c *gin.Context, err error) {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		ce.ToGinResponse(c)
		return
	}
	NewInternalError("unexpected error", err).ToGinResponse(c)
}

// HandleValidationError sends a validation error response.
func HandleValidationError(c *gin.Context, message string, field string) {
	NewValidationError(message, field).ToGinResponse(c)
}

// HandleNotFound sends a not found error response.
func HandleNotFound(c *gin.Context, resource string, ref string) {
	NewNotFoundError(resource, ref).ToGinResponse(c)
}
