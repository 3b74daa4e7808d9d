package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,30}$`)
	hhmmPattern     = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// validate is shared by all request DTOs. Custom tags are registered in init.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Money fields are validated on their string form
	validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("username", validateUsername)
	_ = validate.RegisterValidation("password", validatePasswordTag)
	_ = validate.RegisterValidation("hhmm", validateHHMM)
	_ = validate.RegisterValidation("money", validateMoney)
}

// FieldErrors maps JSON field names to a readable message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "username":
		return "must be 3-30 characters of letters, digits, '_' or '.'"
	case "password":
		if s, ok := fe.Value().(string); ok {
			if err := ValidatePassword(s); err != nil {
				return err.Error()
			}
		}
		return "is not a valid password"
	case "hhmm":
		return "must be a time in HH:MM format"
	case "money":
		if fe.Param() != "" {
			return fmt.Sprintf("must be a positive amount with at most two decimals, up to %s", fe.Param())
		}
		return "must be a positive amount with at most two decimals"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}

func validateUsername(fl validator.FieldLevel) bool {
	return ValidateUsername(fl.Field().String()) == nil
}

func validatePasswordTag(fl validator.FieldLevel) bool {
	return ValidatePassword(fl.Field().String()) == nil
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmPattern.MatchString(fl.Field().String())
}

// validateMoney accepts a positive decimal.Decimal with at most two
// decimals. An optional parameter sets the inclusive upper bound.
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}

	var max *decimal.Decimal
	if p := fl.Param(); p != "" {
		m, err := decimal.NewFromString(p)
		if err != nil {
			return false
		}
		max = &m
	}

	return ValidateAmount(d, max) == nil
}

// ValidateUsername checks length and allowed characters.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 3-30 characters of letters, digits, '_' or '.'")
	}
	return nil
}

// ValidateAmount checks that d is positive, has at most two decimals and,
// when max is set, does not exceed it.
func ValidateAmount(d decimal.Decimal, max *decimal.Decimal) error {
	if !d.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if !d.Equal(d.Round(2)) {
		return errors.New("amount must have at most two decimals")
	}
	if max != nil && d.GreaterThan(*max) {
		return fmt.Errorf("amount must not exceed %s", max.StringFixed(2))
	}
	return nil
}

// ValidateSendTime checks a reminder time in HH:MM format.
func ValidateSendTime(s string) error {
	if !hhmmPattern.MatchString(s) {
		return errors.New("send time must be in HH:MM format")
	}
	return nil
}
