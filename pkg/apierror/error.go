package apierror

import (
	"encoding/json"
	"net/http"
)

// Error represents a structured API error response.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ToJSON converts the error to JSON bytes.
func (e *Error) ToJSON() []byte {
	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"code":    e.Code,
			"message": e.Message,
		},
	}

	data, _ := json.Marshal(response)
	return data
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
	}
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
	}
}

// AlreadyTracked creates a 409 error for adding a pair that is tracked.
func AlreadyTracked(message string) *Error {
	if message == "" {
		message = "Item is already being tracked"
	}
	return &Error{
		StatusCode: http.StatusConflict,
		Code:       "ALREADY_TRACKED",
		Message:    message,
	}
}

// ItemNotFound creates a 404 error for an item the marketplace cannot
// resolve, or a remove/get on an untracked pair.
func ItemNotFound(message string) *Error {
	if message == "" {
		message = "Item not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "ITEM_NOT_FOUND",
		Message:    message,
	}
}

// CheckInProgress creates a 409 error for a manual check while a pass runs.
func CheckInProgress(message string) *Error {
	if message == "" {
		message = "A market check is already running"
	}
	return &Error{
		StatusCode: http.StatusConflict,
		Code:       "CHECK_IN_PROGRESS",
		Message:    message,
	}
}

// BadGateway creates a 502 error for upstream market API failures.
func BadGateway(message string) *Error {
	if message == "" {
		message = "Upstream service failed"
	}
	return &Error{
		StatusCode: http.StatusBadGateway,
		Code:       "FETCH_FAILED",
		Message:    message,
	}
}

// InternalError creates a 500 Internal Server Error.
func InternalError(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
	}
}
