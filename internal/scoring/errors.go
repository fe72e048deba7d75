package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProfile is returned when a rubric profile name is not registered.
	ErrUnknownProfile = errors.New("unknown rubric profile")
	// ErrInvalidMode is returned for an aggregation mode other than strict or renormalized.
	ErrInvalidMode = errors.New("invalid aggregation mode")
)

// ConfigurationError reports misuse of the engine: an unknown or malformed
// profile, or an unsupported mode. Data problems in an attribute record
// never produce one.
type ConfigurationError struct {
	Profile string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Profile == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("profile %q: %v", e.Profile, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(profile, format string, args ...interface{}) error {
	return &ConfigurationError{Profile: profile, Err: fmt.Errorf(format, args...)}
}
