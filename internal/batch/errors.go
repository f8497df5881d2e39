package batch

import "fmt"

// InvalidParameterError reports a caller-supplied parameter that is out of
// range or inconsistent with its peers. It is reported immediately and never
// retried.
type InvalidParameterError struct {
	Param string
	Value any
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %v", e.Param, e.Value)
}
