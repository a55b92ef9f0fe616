// Package httputil holds the JSON request and response helpers shared by the
// module handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// SchemaError is a malformed or invalid request body. It renders as 422.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return e.Message
}

// DecodeJSON decodes the request body into dst and runs struct validation.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &SchemaError{Message: "request body is required"}
		}
		return &SchemaError{Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	return Validate(dst)
}

// Validate runs the validator struct tags on v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &SchemaError{Message: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return &SchemaError{Message: strings.Join(msgs, "; ")}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + ": field required"
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be greater than or equal to %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s: must have at least %s items", field, fe.Param())
	case "ne":
		return fmt.Sprintf("%s: must not be %s", field, fe.Param())
	case "isdefault":
		return field + ": must be null"
	case "nefield":
		return fmt.Sprintf("%s: must differ from %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s validation", field, fe.Tag())
	}
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var schema *SchemaError
	switch {
	case errors.As(err, &schema):
		return http.StatusUnprocessableEntity
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsValidation(err), domain.IsConflict(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteDetail writes {"detail": message}.
func WriteDetail(w http.ResponseWriter, status int, message string, log zerolog.Logger) {
	WriteJSON(w, status, map[string]string{"detail": message}, log)
}

// WriteNoContent writes an empty 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError renders err with the status from StatusFor.
func WriteError(w http.ResponseWriter, err error, log zerolog.Logger) {
	status := StatusFor(err)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Int("status", status).Msg("Request failed")

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "Internal server error"
	}
	WriteDetail(w, status, message, log)
}

// WriteIngestError treats record invariant violations as schema errors (422).
// Used where the error comes from building a record out of a request body.
func WriteIngestError(w http.ResponseWriter, err error, log zerolog.Logger) {
	if domain.IsValidation(err) {
		err = &SchemaError{Message: err.Error()}
	}
	WriteError(w, err, log)
}
