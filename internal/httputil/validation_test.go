package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondValidationError_FieldErrors(t *testing.T) {
	w := httptest.NewRecorder()

	RespondValidationError(w, validation.Errors{
		"email": errors.New("must be a valid email address"),
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body ValidationErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, CodeValidationFailed, body.Code)
	assert.Equal(t, "must be a valid email address", body.Fields["email"])
}

func TestRespondValidationError_PlainError(t *testing.T) {
	w := httptest.NewRecorder()

	RespondValidationError(w, errors.New("days must be at least 1"))

	var body ValidationErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "days must be at least 1", body.Detail)
	assert.Empty(t, body.Fields)
}

func TestRespondErrorWithCode(t *testing.T) {
	w := httptest.NewRecorder()

	RespondErrorWithCode(w, "Contact not found", CodeContactNotFound, http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"detail":"Contact not found","code":"contact_not_found"}`, w.Body.String())
}
