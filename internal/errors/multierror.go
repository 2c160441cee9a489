package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// MultiError collects the errors of concurrent jobs. A nil *MultiError holds no errors.
type MultiError struct {
	inner *multierror.Error
}

// Append returns a MultiError holding the errors of errs followed by more. Nil errors are skipped.
func (errs *MultiError) Append(more ...error) *MultiError {
	var inner *multierror.Error
	if errs != nil {
		inner = errs.inner
	}

	return &MultiError{inner: multierror.Append(inner, more...)}
}

// ErrorOrNil returns errs, or nil when it holds no errors.
func (errs *MultiError) ErrorOrNil() error {
	if errs == nil || errs.inner.ErrorOrNil() == nil {
		return nil
	}

	return errs
}

// Unwrap returns the collected errors.
func (errs *MultiError) Unwrap() []error {
	if errs == nil {
		return nil
	}

	return errs.inner.WrappedErrors()
}

// Error lists the collected errors, one bullet each. A single error is returned as is.
func (errs *MultiError) Error() string {
	leaves := flatten(errs)
	if len(leaves) == 1 {
		return leaves[0].Error()
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%d errors occurred:", len(leaves))

	for _, err := range leaves {
		msg := strings.ReplaceAll(err.Error(), "\r\n", "\n")
		sb.WriteString("\n* ")
		sb.WriteString(strings.ReplaceAll(msg, "\n", "\n  "))
	}

	return sb.String()
}
