package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	autherrors "github.com/jrsteele09/yanssound-auth/internal/errors"
)

// Validator checks request payloads and identifier syntax.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their json names and knows the
// "notemail" tag, which rejects values that parse as an email address.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("notemail", func(fl validator.FieldLevel) bool {
		return v.Var(fl.Field().String(), "email") != nil
	})
	return &Validator{validate: v}
}

// IsEmail reports whether s is a syntactically valid email address.
func (v *Validator) IsEmail(s string) bool {
	return v.validate.Var(s, "required,email") == nil
}

// ValidateStruct returns nil or an errors.FieldErrors describing every failing field.
func (v *Validator) ValidateStruct(req any) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", autherrors.ErrValidation, err)
	}
	out := make(autherrors.FieldErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "notemail":
		return "must not be an email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
