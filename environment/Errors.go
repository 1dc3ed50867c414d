package environment

import "github.com/pkg/errors"

// ConfigurationError reports a setting that prevents a run from
// starting, such as an unknown environment identifier, an unknown mode,
// or an invalid hyperparameter
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Cause returns the underlying error
func (e *ConfigurationError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying error
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError returns a *ConfigurationError with a formatted
// message
func NewConfigurationError(op, format string,
	args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Op: op, Err: errors.Errorf(format, args...)}
}

// IsConfigurationError returns whether err is or wraps a
// ConfigurationError
func IsConfigurationError(err error) bool {
	var config *ConfigurationError
	return errors.As(err, &config)
}
