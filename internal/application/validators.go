package application

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-tally/internal/domain"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
	validatorErr  error
)

// configValidator returns the shared validator with custom rules
// registered. validator.Validate caches struct metadata and is safe for
// concurrent use.
func configValidator() (*validator.Validate, error) {
	validatorOnce.Do(func() {
		v := validator.New()
		if err := registerCustomValidators(v); err != nil {
			validatorErr = fmt.Errorf("failed to register validators: %w", err)
			return
		}
		validate = v
	})
	return validate, validatorErr
}

// registerCustomValidators adds the semantic validators used by Config
// struct tags.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("regexp", validateRegexp); err != nil {
		return fmt.Errorf("failed to register regexp validator: %w", err)
	}
	if err := v.RegisterValidation("category", validateCategory); err != nil {
		return fmt.Errorf("failed to register category validator: %w", err)
	}
	return nil
}

// validateRegexp reports whether the field compiles as a Go regular
// expression.
func validateRegexp(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

// validateCategory reports whether the field names an error category.
func validateCategory(fl validator.FieldLevel) bool {
	_, err := domain.ParseErrorCategory(fl.Field().String())
	return err == nil
}

// Validate checks cfg against its struct tags. Failures are collected
// into a single *domain.ValidationError, which matches
// domain.ErrInvalidConfiguration.
func Validate(cfg Config) error {
	v, err := configValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("config validation: %w", err)
		}
		verr := domain.NewValidationError("config")
		for _, fe := range fieldErrs {
			verr.AddError(describeFieldError(fe))
		}
		return verr
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "regexp":
		return fmt.Sprintf("%s: invalid regular expression %q", fe.Namespace(), fe.Value())
	case "category":
		return fmt.Sprintf("%s: unknown error category %q", fe.Namespace(), fe.Value())
	case "required":
		return fmt.Sprintf("%s: is required", fe.Namespace())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s], got %v", fe.Namespace(), fe.Param(), fe.Value())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s: failed %s=%s, got %v", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag())
	}
}
