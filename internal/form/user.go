package form

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// Signup is the user creation form. Help text is intentionally absent.
type Signup struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Password1 string `form:"password1" validate:"required,min=8,notnumeric"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

var signupMessages = map[string]messageFunc{
	"required": requiredMessage,
	"max": func(fe validator.FieldError) string {
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	},
	"username": func(validator.FieldError) string {
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	},
	"min": func(validator.FieldError) string {
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	},
	"notnumeric": func(validator.FieldError) string {
		return "This password is entirely numeric."
	},
	"eqfield": func(validator.FieldError) string {
		return "The two password fields didn't match."
	},
}

// Clean trims the username and validates the form.
func (f *Signup) Clean() *ValidationError {
	f.Username = strings.TrimSpace(f.Username)

	errs := check(f, signupMessages)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Login is the authentication form.
type Login struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// ErrInvalidLogin is shown as a non-field error on failed authentication.
const ErrInvalidLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// Clean validates that both credentials are present.
func (f *Login) Clean() *ValidationError {
	f.Username = strings.TrimSpace(f.Username)

	errs := check(f, map[string]messageFunc{"required": requiredMessage})
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
