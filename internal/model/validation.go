package model

import "fmt"

// ValidationError is a config-acceptance failure tied to a specific field.
// Validation failures are values, not panics, so the acceptance pipeline can
// surface them synchronously to the operator.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
