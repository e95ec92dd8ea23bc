package pipeline

import (
	"fmt"
	"unicode/utf8"
)

// maxFragmentLen bounds the offending fragment kept for diagnostics.
const maxFragmentLen = 48

// ValidationError reports markup that a step cannot transform safely, such
// as an unterminated tag, a placeholder id collision or a corrupt base64
// payload.
type ValidationError struct {
	// Step is the name of the failing step. Run fills it in when the step
	// left it empty.
	Step string
	// Fragment is the offending part of the segment.
	Fragment string
	// Reason is a short human-readable explanation.
	Reason string
}

// NewValidationError creates a ValidationError with a truncated fragment.
func NewValidationError(step, fragment, reason string) *ValidationError {
	return &ValidationError{
		Step:     step,
		Fragment: Truncate(fragment),
		Reason:   reason,
	}
}

func (e *ValidationError) Error() string {
	step := e.Step
	if step == "" {
		step = "unknown step"
	}

	if e.Fragment == "" {
		return fmt.Sprintf("validation failed in %s: %s", step, e.Reason)
	}

	return fmt.Sprintf("validation failed in %s: %s near %q", step, e.Reason, e.Fragment)
}

// ConfigurationError reports a pipeline or feature-set configuration that
// cannot be applied, e.g. an unknown anchor step or a hook that returned no
// pipeline.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}

	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnsupportedDirectionError reports a conversion without a default ordering.
type UnsupportedDirectionError struct {
	Direction string
}

func (e *UnsupportedDirectionError) Error() string {
	return fmt.Sprintf("unsupported direction %q", e.Direction)
}

// Truncate shortens s to at most maxFragmentLen bytes on a rune boundary,
// appending an ellipsis when something was cut.
func Truncate(s string) string {
	if len(s) <= maxFragmentLen {
		return s
	}

	cut := maxFragmentLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "…"
}
