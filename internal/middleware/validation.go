package middleware

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"car-showroom/internal/phonemask"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = NewValidator()

// NewValidator returns a validator with the custom tags registered:
// whatsapp checks the punctuated "(99) 99999-9999" phone format.
// Field errors are reported under their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("whatsapp", func(fl validator.FieldLevel) bool {
		return phonemask.ValidWhatsApp(fl.Field().String())
	})
	return v
}

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// MaxJSONBody caps the size of JSON request bodies.
const MaxJSONBody = 1 << 20

// RequireJSON rejects requests that carry a body in anything but JSON.
// Bodyless requests pass through.
func RequireJSON(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				logger.Debug("Rejected non-JSON body",
					zap.String("content_type", r.Header.Get("Content-Type")),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
			next.ServeHTTP(w, r)
		})
	}
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var out []ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			out = append(out, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return out
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	case "whatsapp":
		return "Phone must look like (99) 99999-9999"
	case "oneof":
		return "Value must be one of: " + e.Param()
	case "hexcolor":
		return "Invalid hex color"
	case "url":
		return "Invalid URL"
	default:
		return "Invalid value"
	}
}
