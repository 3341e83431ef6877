package auth

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-hr-portal/users"
)

// Validator checks form input before it reaches the credential service or the data store.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the portal's custom rules registered
func NewValidator() *Validator {
	validate := validator.New()

	// report json names so messages match the form fields
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		return users.Country(fl.Field().String()).IsValid()
	})
	_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return users.Role(fl.Field().String()).IsValid()
	})

	return &Validator{validate: validate}
}

// ValidateSignUp checks the sign-up form, including password strength
func (v *Validator) ValidateSignUp(p *SignUpParameters) error {
	verr := v.check(p)
	if err := users.ValidatePasswordStrength(p.Password); err != nil {
		if verr == nil {
			verr = &ValidationError{Errors: map[string]string{}}
		}
		if _, exists := verr.Errors["password"]; !exists {
			verr.Errors["password"] = err.Error()
		}
	}
	if verr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignUp, verr)
	}
	return nil
}

// ValidateProfile checks the settings form
func (v *Validator) ValidateProfile(p *ProfileParameters) error {
	if verr := v.check(p); verr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, verr)
	}
	return nil
}

func (v *Validator) check(s any) *ValidationError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Errors: map[string]string{"": err.Error()}}
	}
	return newValidationError(errs)
}

// ValidationError maps form field names to user-facing messages
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, fmt.Sprintf("%s: %s", field, e.Errors[field]))
	}
	return "validation failed: " + strings.Join(messages, ", ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	out := make(map[string]string, len(errs))
	for _, err := range errs {
		field := err.Field()
		label := strings.ReplaceAll(field, "_", " ")
		switch err.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", label)
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email address", label)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s characters long", label, err.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters long", label, err.Param())
		case "country":
			out[field] = "country must be one of the listed countries"
		case "role":
			out[field] = "role must be admin or employee"
		default:
			out[field] = fmt.Sprintf("%s is invalid", label)
		}
	}
	return &ValidationError{Errors: out}
}
