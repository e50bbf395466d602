package compose

import "fmt"

// ErrorDetails is the process-error taxonomy every JSON response surfaces
// under error_details when a container-engine subprocess fails.
type ErrorDetails struct {
	ErrorCode string `json:"error_code"`
	Hint      string `json:"hint,omitempty"`
	Command   string `json:"command,omitempty"`
	RawStderr string `json:"raw_stderr,omitempty"`
}

// ProcessError wraps a classified subprocess failure.
type ProcessError struct {
	Message string
	Details ErrorDetails
}

func (e *ProcessError) Error() string {
	return e.Message
}

func newProcessError(command string, classified classification, stderr string) *ProcessError {
	msg := fmt.Sprintf("command failed: %s", command)
	if stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}
	if classified.hint != "" {
		msg = fmt.Sprintf("%s\nhint: %s", msg, classified.hint)
	}
	details := ErrorDetails{
		ErrorCode: classified.errorCode,
		Hint:      classified.hint,
		Command:   command,
		RawStderr: stderr,
	}
	return &ProcessError{Message: msg, Details: details}
}
