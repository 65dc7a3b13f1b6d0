package csharp

import "fmt"

// MissingNamespaceMappingError reports a module id used by the inventory
// that has no entry in the namespace mapping table. Generation aborts
// before any output is produced.
type MissingNamespaceMappingError struct {
	ID string
}

func (e *MissingNamespaceMappingError) Error() string {
	return fmt.Sprintf("namespace id %q is not mapped; add it to the namespace mapping table", e.ID)
}

// InvalidVisibilityError reports a visibility value outside the supported
// set.
type InvalidVisibilityError struct {
	Value string
}

func (e *InvalidVisibilityError) Error() string {
	return fmt.Sprintf("invalid visibility %q (expected as-declared, public or internal)", e.Value)
}

// UnsupportedTypePatternError reports a Type or Pattern variant that
// reached a code path with no defined handling. This signals a defect in
// the emission predicates or the marshalling classifier, not bad input.
type UnsupportedTypePatternError struct {
	Variant string
}

func (e *UnsupportedTypePatternError) Error() string {
	return fmt.Sprintf("no handling defined for type variant %q", e.Variant)
}
