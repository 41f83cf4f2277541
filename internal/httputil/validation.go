package httputil

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ValidationErrorResponse lists the failing fields of a request body
type ValidationErrorResponse struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RespondValidationError sends a 422 describing err. Field errors produced by
// ozzo-validation are reported per field.
func RespondValidationError(w http.ResponseWriter, err error) {
	resp := ValidationErrorResponse{
		Detail: "validation failed",
		Code:   CodeValidationFailed,
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		resp.Fields = make(map[string]string, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			resp.Fields[field] = fieldErr.Error()
		}
	} else if err != nil {
		resp.Detail = err.Error()
	}

	RespondJSON(w, resp, http.StatusUnprocessableEntity)
}
