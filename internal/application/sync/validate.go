package sync

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pimsync/backend/internal/domain/shared"
)

// validate is the shared struct validator for application-boundary input.
// Field names in errors come from the json tag so callers see the wire name.
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

// connectionInput is the boundary shape for creating a platform connection
type connectionInput struct {
	BaseURL        string `json:"base_url" validate:"required,url"`
	ConsumerKey    string `json:"consumer_key" validate:"required"`
	ConsumerSecret string `json:"consumer_secret" validate:"required"`
}

// checkInput runs struct validation and converts the first failure into a
// domain validation error naming the offending field
func checkInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	if fieldErrors, ok := err.(validator.ValidationErrors); ok && len(fieldErrors) > 0 {
		e := fieldErrors[0]
		return shared.NewValidationError(e.Field(), validationMessage(e))
	}
	return shared.NewValidationError("", err.Error())
}

// validationMessage returns a human-readable message for a failed tag
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "url":
		return "invalid URL format"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "invalid value"
	}
}
