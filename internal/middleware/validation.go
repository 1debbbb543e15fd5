package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "charmcli/internal/errors"
)

// Validator decodes and validates request bodies
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports JSON field names and knows
// the participant ID format
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("participant", isParticipantID)
	return &Validator{validate: v}
}

// Decode reads the JSON body of r into dst and validates it
func (v *Validator) Decode(r *http.Request, dst interface{}) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return apperrors.InvalidRequestWithError(err)
	}
	return v.Struct(dst)
}

// Struct validates s, returning a VALIDATION_FAILED API error listing every
// failing field
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.InvalidRequestWithError(err)
	}
	out := make([]apperrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Namespace(),
			Message: formatValidationError(fe),
		})
	}
	return apperrors.NewValidationErrors(out)
}

// RequireJSON rejects bodies that are not JSON with 415
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 && !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			WriteProblem(w, r, ProblemFromStatus(http.StatusUnsupportedMediaType,
				"Content-Type must be application/json", GetRequestID(r.Context())))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func formatValidationError(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "numeric", "participant":
		return fmt.Sprintf("%s must be a participant number", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// isParticipantID accepts the numeric folder names of the raw data tree
func isParticipantID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" || len(id) > 4 {
		return false
	}
	for _, ch := range id {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
