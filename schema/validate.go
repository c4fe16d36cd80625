package schema

import (
	"fmt"
	"regexp"

	"complaintdraft-backend/models"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidKey reports whether key is usable as an offense key or mixin name
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Validate checks the structural invariants of a merged offense: at least one
// element, unique element ids, and every must-slot covered by a question.
func Validate(o *models.Offense) error {
	if len(o.Elements) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptySchema, o.Offense)
	}

	seen := make(map[string]bool, len(o.Elements))
	for _, el := range o.Elements {
		if seen[el.ID] {
			return fmt.Errorf("%w: %s in offense %s", ErrDuplicateElement, el.ID, o.Offense)
		}
		seen[el.ID] = true

		if missing := uncoveredSlots(el); len(missing) > 0 {
			return &SlotCoverageError{
				Offense:   o.Offense,
				ElementID: el.ID,
				Missing:   missing,
			}
		}
	}
	return nil
}

// uncoveredSlots returns the must-slots of el, in declaration order, that no question elicits
func uncoveredSlots(el models.Element) []string {
	covered := make(map[string]bool, len(el.Questions))
	for _, q := range el.Questions {
		if q.Slot != "" {
			covered[q.Slot] = true
		}
	}

	var missing []string
	reported := make(map[string]bool)
	for _, slot := range el.Slots.Must {
		if !covered[slot] && !reported[slot] {
			missing = append(missing, slot)
			reported[slot] = true
		}
	}
	return missing
}
