package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive-be/internal/services"
)

// Envelope is the standard response body: a success flag plus either a data
// payload or an error description. Fields carries per-field validation
// detail and is only set on validation failures.
type Envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Global validator instance for reuse
var validate = validator.New()

// JSON writes a success envelope with the given status code and data.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

// Error writes a failure envelope with the given status code and message.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Error: message})
}

// Decode decodes the request body into v.
func Decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Validate runs struct validation on v.
func Validate(v any) error {
	return validate.Struct(v)
}

// ValidationError writes a 400 envelope. Validator errors are broken out
// into per-field messages; anything else (e.g. a JSON decode error) gets a
// generic invalid-body message.
func ValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		write(w, http.StatusBadRequest, Envelope{Success: false, Error: "invalid request body"})
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fieldMessage(fe)
	}
	write(w, http.StatusBadRequest, Envelope{
		Success: false,
		Error:   "validation failed",
		Fields:  fields,
	})
}

// ServiceError is the single translation point from service-level failures
// to HTTP statuses.
func ServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrEmailTaken):
		Error(w, http.StatusConflict, "email already in use")
	case errors.Is(err, services.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "invalid credentials")
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return "is invalid"
	}
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
