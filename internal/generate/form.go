package generate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/quizgen-dev/quizgen/internal/api"
)

// MsgFillAllFields is the summary shown for any missing field
const MsgFillAllFields = "Please fill in all fields"

const notBlankTag = "notblank"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their form names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegisterValidation(v, notBlankTag, notBlankValidation)
	return v
}

// mustRegisterValidation panics when tag cannot be registered, so a bad
// registration fails at startup instead of skipping the check
func mustRegisterValidation(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Form is one generation request as entered by the user
type Form struct {
	Subject     string `form:"subject" json:"subject" validate:"notblank"`
	Grade       string `form:"grade" json:"grade" validate:"notblank"`
	ContentType string `form:"content_type" json:"content_type" validate:"omitempty,oneof=quiz lesson exercise"`
}

// Normalize trims the fields and applies the default content type
func (f Form) Normalize() Form {
	f.Subject = strings.TrimSpace(f.Subject)
	f.Grade = strings.TrimSpace(f.Grade)
	f.ContentType = strings.TrimSpace(f.ContentType)
	if f.ContentType == "" {
		f.ContentType = DefaultContentType
	}
	return f
}

// Validate checks the form without touching the network
func (f Form) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = fieldMessage(fe)
	}
	return verr
}

func (f Form) request() api.GenerateRequest {
	return api.GenerateRequest{
		Subject:     f.Subject,
		Grade:       f.Grade,
		ContentType: f.ContentType,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		switch fe.Field() {
		case "subject":
			return "Please select a subject"
		case "grade":
			return "Please select a grade"
		}
		return "This field is required"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "Invalid value"
	}
}

// ValidationError lists the fields that failed validation
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return MsgFillAllFields
}

// Field returns the message for one field, if it failed
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}
