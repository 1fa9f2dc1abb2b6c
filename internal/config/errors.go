package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports required settings that are not set. It is
// returned before any network activity.
type ConfigurationError struct {
	// Missing lists environment variable names.
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// ValidationError reports values that violate the config schema.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid configuration: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid configuration (%d problems): %s",
		len(e.Problems), strings.Join(e.Problems, "; "))
}

// IsConfigurationError returns true if err is a missing-setting error.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsValidationError returns true if err is a schema violation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
