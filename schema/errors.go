package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidKey        = errors.New("invalid schema key")
	ErrSchemaNotFound    = errors.New("offense schema not found")
	ErrInvalidSchema     = errors.New("offense schema is malformed")
	ErrSchemaKeyMismatch = errors.New("offense schema key does not match its document name")
	ErrEmptySchema       = errors.New("offense schema declares no elements")
	ErrDuplicateElement  = errors.New("duplicate element id")
	ErrMixinNotFound     = errors.New("mixin not found")
	ErrMixinNameMismatch = errors.New("mixin name mismatch")
	ErrSlotCoverage      = errors.New("must slot not covered by any question")
)

// SlotCoverageError reports the must-slots of an element that no question elicits
type SlotCoverageError struct {
	Offense   string
	ElementID string
	Missing   []string
}

func (e *SlotCoverageError) Error() string {
	return fmt.Sprintf("offense %q element %q: must slots not covered by any question: %s",
		e.Offense, e.ElementID, strings.Join(e.Missing, ", "))
}

func (e *SlotCoverageError) Unwrap() error {
	return ErrSlotCoverage
}

// IsConfigurationError reports whether err comes from a broken schema document
// rather than from the caller.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidSchema) ||
		errors.Is(err, ErrSchemaKeyMismatch) ||
		errors.Is(err, ErrEmptySchema) ||
		errors.Is(err, ErrDuplicateElement) ||
		errors.Is(err, ErrMixinNameMismatch) ||
		errors.Is(err, ErrSlotCoverage)
}
