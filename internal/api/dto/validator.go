package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/docs-hub/internal/domain"
	apperrors "github.com/spec-kit/docs-hub/pkg/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", validateSlug)
	return v
}

// validateSlug accepts values that satisfy the slug character class once normalized.
func validateSlug(fl validator.FieldLevel) bool {
	return domain.ValidSlug(domain.NormalizeSlug(fl.Field().String()))
}

// Validate checks req against its struct tags. The first failing field picks the
// client message from messages; all failing fields are listed in the details.
func Validate(req any, messages map[string]string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	message, ok := messages[fieldErrs[0].Field()]
	if !ok {
		message = "invalid payload"
	}
	fields := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return apperrors.NewValidationError(message, map[string]any{"fields": fields})
}

// PostMessages are the client messages for PostRequest failures.
var PostMessages = map[string]string{
	"title":   "Title and content are required",
	"content": "Title and content are required",
	"slug":    "Slug can only contain lowercase letters, numbers, and hyphens",
}

// LoginMessages are the client messages for LoginRequest failures.
var LoginMessages = map[string]string{
	"email":    "Email and password are required",
	"password": "Email and password are required",
}
