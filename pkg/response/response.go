// Package response defines the JSON envelopes returned by the API.
package response

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const DefaultMessage = "Success"

var EmptyRequestBodyResponse = ErrorResponse{
	StatusCode: http.StatusBadRequest,
	Message:    "Request body is empty. Please provide necessary data.",
}

var InvalidRequestBodyResponse = ErrorResponse{
	StatusCode: http.StatusBadRequest,
	Message:    "Request body is not valid JSON.",
}

var ServerErrorResponse = ErrorResponse{
	StatusCode: http.StatusInternalServerError,
	Message:    "Internal server error, please try again",
}

// Response is the envelope of every successful JSON response.
type Response struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// ErrorResponse is the envelope of every failed JSON response.
// Success is always false.
type ErrorResponse struct {
	Success    bool              `json:"success"`
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Errors     []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

// SuccessResponse wraps data in a success envelope. An empty msg falls back
// to DefaultMessage and only the first data value is used.
func SuccessResponse(statusCode int, msg string, data ...any) Response {
	if msg == "" {
		msg = DefaultMessage
	}

	resp := Response{
		Success:    true,
		StatusCode: statusCode,
		Message:    msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

func FailureResponse(statusCode int, msg string) ErrorResponse {
	return ErrorResponse{
		StatusCode: statusCode,
		Message:    msg,
	}
}

func ValidationErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    "Validation failed.",
		Errors:     getValidationErrors(err),
	}
}

func issueForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "url", "http_url":
		return "Invalid url."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}

func getValidationErrors(err error) []ValidationError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	errs := make([]ValidationError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		errs = append(errs, ValidationError{
			Field: fe.Field(),
			Value: fe.Value(),
			Issue: issueForTag(fe),
		})
	}

	return errs
}
