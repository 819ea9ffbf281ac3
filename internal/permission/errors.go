package permission

import (
	"errors"
	"fmt"

	"weeklychef/internal/catalog"
)

var (
	ErrUnsupportedOperation = errors.New("permission: operation not supported for this family")
	// ErrOrphaned is returned when the ownership chain ends in a NULL reference.
	ErrOrphaned = errors.New("permission: resource has no owner")
)

// MissingFieldError reports a request that lacks the field ownership depends on.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("the field '%s' is required", e.Field)
}

// Is matches any MissingFieldError when the target has no field set.
func (e *MissingFieldError) Is(target error) bool {
	t, ok := target.(*MissingFieldError)
	return ok && (t.Field == "" || t.Field == e.Field)
}

type NotFoundError struct {
	Family catalog.Family
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Family, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	return ok && (t.Family == "" || t.Family == e.Family) && (t.ID == 0 || t.ID == e.ID)
}

// Match-any values for errors.Is.
var (
	ErrMissingField = &MissingFieldError{}
	ErrNotFound     = &NotFoundError{}
)
