package analysis

import (
	"fmt"
)

// NetworkError is returned when the analysis service cannot be reached,
// answers with a non-2xx status or reports a status other than "success".
// Message is suitable for display.
type NetworkError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	msg := "analysis " + e.Endpoint
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }
