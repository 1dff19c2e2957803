package jobs

import (
	"fmt"
	"strings"
)

// ConfigurationError indicates required credentials are not configured.
// Callers surface it as a setup prompt rather than a failure.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("job search is not configured: missing %s", strings.Join(e.Missing, ", "))
}

// UpstreamError indicates the job search API failed or could not be reached.
// StatusCode is zero for transport and decode failures.
type UpstreamError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("job search upstream returned HTTP %d: %s", e.StatusCode, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("job search upstream failed: %s: %v", e.Message, e.Cause)
	default:
		return fmt.Sprintf("job search upstream failed: %s", e.Message)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}
