package locator

import (
	"errors"
	"fmt"
)

var (
	// ErrBadName matches every *BadNameError.
	ErrBadName = errors.New("locator: bad template name")
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("locator: template not found")
)

// BadNameError reports a reference that is malformed, escapes its root, or
// names an undefined namespace. It is never worth retrying.
type BadNameError struct {
	Reference string
	Reason    string
}

func (e *BadNameError) Error() string {
	if e.Reference == "" {
		return fmt.Sprintf("locator: %s", e.Reason)
	}
	return fmt.Sprintf("locator: %s (%q)", e.Reason, e.Reference)
}

// Is lets errors.Is(err, ErrBadName) match.
func (e *BadNameError) Is(target error) bool {
	return target == ErrBadName
}

// NotFoundError reports a well-formed reference with no file behind it.
type NotFoundError struct {
	Reference string
	Base      string
	Path      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("locator: unable to find template %q (looked into: %s)", e.Reference, e.Base)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func badName(reference, reason string) error {
	return &BadNameError{Reference: reference, Reason: reason}
}
