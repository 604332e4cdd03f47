package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// ErrInvalid is matched by every error this package returns.
var ErrInvalid = errors.New("validation: invalid input")

func (v ValidationErrors) Is(target error) bool { return target == ErrInvalid }

func (v ValidationError) Is(target error) bool { return target == ErrInvalid }

// Validator checks bus messages against their `validate` struct tags. Dates
// validate as their YYYY-MM-DD string (empty when zero) and money as cents.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(daterange.Date)
		if !ok || d.IsZero() {
			return ""
		}
		return d.String()
	}, daterange.Date{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		m, ok := field.Interface().(money.Money)
		if !ok {
			return nil
		}
		return m.Cents
	}, money.Money{})
	return &Validator{validate: v}
}

// Validate implements middleware.Validator. Non-struct messages pass.
func (v *Validator) Validate(_ context.Context, message any) error {
	return v.Struct(message)
}

func (v *Validator) Struct(s any) error {
	rv := reflect.ValueOf(s)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}
	return nil
}

func translate(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, err := range errs {
		message := err.Error()
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min", "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max", "lte":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "dive":
			message = fmt.Sprintf("%s contains an invalid entry", err.Field())
		}
		out = append(out, ValidationError{Field: err.Field(), Message: message})
	}
	return out
}
