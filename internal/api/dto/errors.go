package dto

import "net/http"

// APIError is the body of every error response. Status is the HTTP status
// the body is written with; it is not serialized.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes. Clients branch on the code, never on the message.
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeValidation    = "validation_error"
	ErrCodeConflict      = "conflict" // reload and retry
	ErrCodeInternalError = "internal_error"
)

var statusByCode = map[string]int{
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeInternalError: http.StatusInternalServerError,
}

// NewAPIError builds an error whose status follows from code. Unknown codes
// are reported as 500.
func NewAPIError(code, message string) APIError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return APIError{Status: status, Code: code, Message: message}
}

func (e APIError) Error() string {
	return e.Code + ": " + e.Message
}

func NotFoundError(message string) APIError   { return NewAPIError(ErrCodeNotFound, message) }
func BadRequestError(message string) APIError { return NewAPIError(ErrCodeBadRequest, message) }
func ValidationError(message string) APIError { return NewAPIError(ErrCodeValidation, message) }
func ConflictError(message string) APIError   { return NewAPIError(ErrCodeConflict, message) }

// InternalError hides the cause; it is logged server side instead.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternalError, "an internal error occurred")
}
