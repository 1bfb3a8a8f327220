// Package form validates and cleans user-submitted HTML forms.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NonFieldErrors is the key for errors not tied to a single field.
const NonFieldErrors = "__all__"

// Errors maps a form field name to its validation messages.
type Errors map[string][]string

// Add appends a message for a field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Get returns the first message for a field, or "".
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Has reports whether a field has any errors.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// ValidationError carries field errors back to the form that produced them.
type ValidationError struct {
	Errors Errors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// AsValidationError unwraps a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

var validate = newValidator()

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report errors under the HTML field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notnumeric", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strings.TrimFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) != ""
	})
	_ = v.RegisterValidation("topic", onTopic)

	return v
}

// messageFunc renders a failed validation tag as a user-facing message.
type messageFunc func(fe validator.FieldError) string

// check runs struct validation and converts failures into Errors.
func check(s any, messages map[string]messageFunc) Errors {
	errs := Errors{}

	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(NonFieldErrors, err.Error())
		return errs
	}

	for _, fe := range verrs {
		if fn, ok := messages[fe.Tag()]; ok {
			errs.Add(fe.Field(), fn(fe))
			continue
		}
		errs.Add(fe.Field(), "Enter a valid value.")
	}

	return errs
}

func requiredMessage(validator.FieldError) string {
	return "This field is required."
}
