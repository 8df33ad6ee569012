package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator. Field names in errors use
// the json tag so they line up with the API's field names.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateCredentials checks login input before any network call.
// Email and password must both be non-empty.
func ValidateCredentials(c Credentials) error {
	c.Email = strings.TrimSpace(c.Email)
	return validateStruct(c)
}

// ValidateRegistration checks registration input: a well-formed email and a
// password of at least six characters.
func ValidateRegistration(r Registration) error {
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

// ValidateDraft checks a create-task payload. The deadline is required and
// must not already be in the past relative to now.
func ValidateDraft(d TaskDraft, now time.Time) error {
	var fields []FieldError

	if _, err := NewTitle(d.Title); err != nil {
		fields = append(fields, FieldError{Field: "title", Issue: err.Error()})
	}

	switch {
	case d.Deadline.IsZero():
		fields = append(fields, FieldError{Field: "deadline", Issue: "Deadline is required"})
	case !d.Deadline.Valid():
		fields = append(fields, FieldError{Field: "deadline", Issue: ErrInvalidTimestamp.Error()})
	case d.Deadline.Before(now):
		fields = append(fields, FieldError{Field: "deadline", Issue: "Deadline cannot be in the past"})
	}

	// Title is covered above with trimming semantics; only report the rest.
	if err := validateStruct(d); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			for _, f := range ve.Fields {
				if f.Field != "title" {
					fields = append(fields, f)
				}
			}
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Issue: issueFor(fe)})
	}
	return &ValidationError{Fields: fields}
}

func issueFor(fe validator.FieldError) string {
	label := strings.ToUpper(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " is invalid"
	}
}
