// Package validation adapts go-playground/validator to echo requests.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// phonePattern accepts E.164 numbers with an optional leading plus
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// Validator implements echo.Validator
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the "phone", "notblank" and "optionalurl" tags registered.
// Field names in errors are taken from json tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// optionalurl accepts the empty string, which clears a stored URL
	_ = v.RegisterValidation("optionalurl", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || v.Var(s, "url") == nil
	})

	return &Validator{validate: v}
}

// Validate validates i against its struct tags
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// FieldMessages returns a message per invalid field, or nil when err carries no field errors
func FieldMessages(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	messages := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		messages[fe.Field()] = message(fe)
	}
	return messages
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "phone":
		return "must be a valid international phone number"
	case "url", "optionalurl":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}
