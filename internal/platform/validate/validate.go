// Package validate adapts go-playground/validator to echo's Validator
// interface and adds the phone rule used at signup.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/nyaruka/phonenumbers"

	"github.com/hospify/hospify/internal/platform/apperr"
)

// Validator implements echo.Validator. Failures are reported as
// apperr Validation errors naming the offending JSON fields.
type Validator struct {
	v      *validator.Validate
	region string
}

// New returns a Validator resolving national phone numbers against region
// (ISO 3166-1 alpha-2, e.g. "IN").
func New(region string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	val := &Validator{v: v, region: strings.ToUpper(region)}
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		_, err := NormalizePhone(fl.Field().String(), val.region)
		return err == nil
	})
	return val
}

// mustRegister panics when the validator refuses a custom tag.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validate: register %q: %v", tag, err))
	}
}

func (val *Validator) Validate(i interface{}) error {
	err := val.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindValidation, err, "invalid request")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

// Bind decodes the request into dst and runs the echo validator on it. A
// body that cannot be decoded is a Validation error like any failed rule.
func Bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "invalid request body")
	}
	return c.Validate(dst)
}

// Phone normalizes raw with the validator's region.
func (val *Validator) Phone(raw string) (string, error) {
	return NormalizePhone(raw, val.region)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "phone":
		return field + " must be a valid phone number"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match layout %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// NormalizePhone parses raw as a phone number, national numbers resolved
// against region, and returns it in E.164 form.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty phone number")
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("parse phone %q: %w", raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("phone %q is not a valid number", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
