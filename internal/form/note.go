package form

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/smartnotes/smartnotes/internal/model"
)

// RequiredTitleTopic must appear in every note title.
const RequiredTitleTopic = "django"

// ErrOffTopicTitle is shown on the title field when it lacks the topic.
const ErrOffTopicTitle = "We only accept notes about Django!!"

// Note is the create/update form for a note. The owner is never a form field.
type Note struct {
	Title string `form:"title" validate:"required,max=100,topic"`
	Text  string `form:"text" validate:"required"`
}

var noteMessages = map[string]messageFunc{
	"required": requiredMessage,
	"max": func(fe validator.FieldError) string {
		return fmt.Sprintf("Ensure this value has at most %d characters (it has %d).",
			model.MaxTitleLength, utf8.RuneCountInString(fe.Value().(string)))
	},
	"topic": func(validator.FieldError) string {
		return ErrOffTopicTitle
	},
}

// onTopic reports whether a cleaned title mentions RequiredTitleTopic.
func onTopic(fl validator.FieldLevel) bool {
	return strings.Contains(fl.Field().String(), RequiredTitleTopic)
}

// CleanTitle trims and lowercases a title.
func CleanTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Clean normalizes the title in place and validates the form.
// Returns nil when the form is valid.
func (f *Note) Clean() *ValidationError {
	f.Title = CleanTitle(f.Title)

	errs := check(f, noteMessages)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
