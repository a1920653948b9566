package config

import (
	"github.com/go-playground/validator/v10"

	"github.com/plugfs/plugfs/pkg/errors"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into coded errors with a
// stable message for the first failing field.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return errors.Newf(errors.ErrConfigValid,
			"%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return errors.Wrap(err, errors.ErrConfigValid, "config validation failed")
}
