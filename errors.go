package devalue

import "fmt"

// Error kinds (spec.md §7), each a concrete struct carrying the traversal
// Path the way the teacher's ValidationError carries Path/Message/Code and
// ParseError carries Message/Pos (validate.go, parse.go).

// UnsupportedValueError is raised by the Classifier when a value has no
// native classification and no reducer matched it.
type UnsupportedValueError struct {
	Path string // traversal breadcrumb, e.g. `.object.array[0].get("key")`
	Kind string // runtime kind name of the offending leaf
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("%s: unsupported value of kind %s", e.Path, e.Kind)
}

// UnknownTypeError is raised by the Reviver when a Custom tag has no
// registered reviver.
type UnknownTypeError struct {
	Tag  string
	Path string
}

func (e *UnknownTypeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: unknown type %q", e.Path, e.Tag)
	}
	return fmt.Sprintf("unknown type %q", e.Tag)
}

// InvalidInputError is raised when a flat table is malformed: an
// out-of-range index, an unexpected JSON shape, or an unrecognized tag
// form. Stringify and Uneval also raise it, with Index -1, for a reducer
// tag that collides with a built-in tag and for input nested deeper than
// the Flattener's recursion limit.
type InvalidInputError struct {
	Reason string
	Index  int // slot index involved, or -1 if not slot-specific
}

func (e *InvalidInputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid input at slot %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// CycleInPrimitiveFormError is an internal guard: a pure primitive payload
// (e.g. the digits of a BigInt) was reached via a cyclic reference, which
// should be impossible if the Flattener's invariants hold.
type CycleInPrimitiveFormError struct {
	Path string
}

func (e *CycleInPrimitiveFormError) Error() string {
	return fmt.Sprintf("%s: cycle reached a primitive-only form", e.Path)
}

// newUnsupportedValue builds an UnsupportedValueError for v at p.
func newUnsupportedValue(p path, kindName string) error {
	return &UnsupportedValueError{Path: p.String(), Kind: kindName}
}
