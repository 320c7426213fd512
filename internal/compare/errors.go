package compare

import (
	"errors"
	"fmt"

	"github.com/torosent/querybench/internal/driver"
)

// ErrAllDriversFailed is returned when drivers were requested and none of
// them produced a result.
var ErrAllDriversFailed = errors.New("all drivers failed")

// InputValidationError rejects a comparison request before any driver is
// touched.
type InputValidationError struct {
	Field  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExecutionError is a query failure that ended one driver's run.
type ExecutionError struct {
	Driver driver.Type
	Query  string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("driver %s: query %s: %v", e.Driver, e.Query, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
