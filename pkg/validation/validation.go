// Package validation holds the go-playground/validator setup shared by the
// request validators of every service.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"tourbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(e), strings.Join(messages, "; "))
}

// Details is the AppError details payload for e.
func (e Errors) Details() map[string]any {
	fields := make(map[string]string, len(e))
	for _, err := range e {
		fields[err.Field] = err.Message
	}
	return map[string]any{"fields": fields}
}

func Field(field, message string) Errors {
	return Errors{{Field: field, Message: message}}
}

// New returns a validator that reports fields by their json name.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("unique_dates", uniqueDates); err != nil {
		panic(err)
	}
	return v
}

// uniqueDates rejects availability windows that share a calendar day.
func uniqueDates(fl validator.FieldLevel) bool {
	var windows []model.AvailabilityWindow
	switch v := fl.Field().Interface().(type) {
	case []model.AvailabilityWindow:
		windows = v
	case *[]model.AvailabilityWindow:
		if v == nil {
			return true
		}
		windows = *v
	default:
		return false
	}
	seen := make(map[time.Time]struct{}, len(windows))
	for _, w := range windows {
		day := model.NormalizeDate(w.Date)
		if _, dup := seen[day]; dup {
			return false
		}
		seen[day] = struct{}{}
	}
	return true
}

// Struct validates s and converts validator failures into Errors.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return Translate(validationErrs)
	}
	return err
}

func Translate(errs validator.ValidationErrors) Errors {
	out := make(Errors, 0, len(errs))

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155552671)", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gt", "gte":
			message = fmt.Sprintf("%s must be %s %s", err.Field(), map[string]string{"gt": "greater than", "gte": "at least"}[err.Tag()], err.Param())
		case "ltefield":
			message = fmt.Sprintf("%s must not exceed %s", err.Field(), err.Param())
		case "unique_dates":
			message = fmt.Sprintf("%s must not repeat a date", err.Field())
		case "iso4217":
			message = fmt.Sprintf("%s must be an ISO 4217 currency code", err.Field())
		}

		out = append(out, FieldError{
			Field:   fieldPath(err),
			Message: message,
		})
	}

	return out
}

// fieldPath drops the root struct name from the namespace, leaving
// "travelers[0].email".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
