package devalue

import (
	"math/big"
	"time"
)

// hole is the sentinel occupying an absent element of a sparse Array. It is
// distinct from nil/Null: a Hole is skipped by structural iteration the way
// a never-assigned JS array index is skipped, whereas Null is a real value.
type hole struct{}

// Hole is the absent-value sentinel. Place it in an Array's element slice to
// represent a sparse hole at that position (spec.md §3, invariant 5).
var Hole = hole{}

// IsHole reports whether v is the Hole sentinel.
func IsHole(v any) bool {
	_, ok := v.(hole)
	return ok
}

// undefinedT is the sentinel for JS `undefined`, distinct from both Null and
// Hole: undefined is a present value (unlike Hole) that has no JSON
// primitive form (unlike Null).
type undefinedT struct{}

// Undefined is the explicit-undefined sentinel (spec.md §6, code -2).
var Undefined = undefinedT{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedT)
	return ok
}

// Array is an ordered, length-preserving sequence that may contain Hole.
// A plain Go slice doesn't distinguish "never assigned" from "assigned nil",
// so holes are marked with the Hole sentinel; a bare []any is accepted too and
// is handled the same way as Array, Hole elements included.
type Array []any

// Object is an unordered string-keyed record of plain values (spec.md §3).
// Go's map[string]any already has no defined iteration order, so it is the
// natural representation; key emission order in data/code mode is sorted for
// determinism (see visitObject in flatten.go).
type Object map[string]any

// MapEntry is one (key, value) pair of an ordered Map.
type MapEntry struct {
	Key   any
	Value any
}

// Map is an ordered sequence of (key, value) pairs with arbitrary-value
// keys, mirroring a JS Map. Entries are visited key-before-value, in
// insertion order (spec.md §4.3).
type Map struct {
	entries []MapEntry
}

// NewMap builds a Map from entries, preserving their order.
func NewMap(entries ...MapEntry) *Map {
	m := &Map{entries: make([]MapEntry, len(entries))}
	copy(m.entries, entries)
	return m
}

// Set adds or overwrites the value for key, preserving first-seen order.
func (m *Map) Set(key, value any) *Map {
	for i := range m.entries {
		if deepEqualKey(m.entries[i].Key, key) {
			m.entries[i].Value = value
			return m
		}
	}
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
	return m
}

// Entries returns the pairs in insertion order. The caller must not mutate
// the returned slice's backing array.
func (m *Map) Entries() []MapEntry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Len reports the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// SetValue is an ordered sequence of distinct values, mirroring a JS Set.
// Membership is decided by deepEqualKey (equality.go): by value for
// primitives, by identity for pointers (*Map, *SetValue, ...), and by deep
// structural equality for slices, maps and other values. This differs from
// the Flattener, which tracks Array/Object nodes by identity.
type SetValue struct {
	members []any
}

// NewSet builds a SetValue from members, de-duplicating and preserving the
// first-seen order of each distinct value.
func NewSet(members ...any) *SetValue {
	s := &SetValue{}
	for _, m := range members {
		s.Add(m)
	}
	return s
}

// Add appends value if it is not already a member (by deepEqualKey),
// preserving insertion order. Returns s for chaining.
func (s *SetValue) Add(value any) *SetValue {
	for _, m := range s.members {
		if deepEqualKey(m, value) {
			return s
		}
	}
	s.members = append(s.members, value)
	return s
}

// Members returns the set contents in insertion order. The caller must not
// mutate the returned slice's backing array.
func (s *SetValue) Members() []any {
	if s == nil {
		return nil
	}
	return s.members
}

// Len reports the number of members.
func (s *SetValue) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Regex is a regular expression value: a source pattern plus flags, the way
// spec.md §3 requires. Go's compiled *regexp.Regexp has no first-class flag
// string, so Regex is carried as its own small value type rather than
// classifying *regexp.Regexp directly (see classify.go).
type Regex struct {
	Source string
	Flags  string
}

// BigInt is an arbitrary-precision integer. It is a type alias for
// big.Int, the standard library's own arbitrary-precision integer type, and
// is classified when passed by pointer (*big.Int, see classify.go) —
// there is no ecosystem library in the retrieved pack that supersedes it for
// plain integer arithmetic (see DESIGN.md).
type BigInt = big.Int

// Date is a millisecond-precision instant. It is a type alias for
// time.Time so that callers can pass ordinary time.Time values directly;
// the Flattener treats *time.Time specially to preserve reference identity
// across shared Date nodes (see classify.go).
type Date = time.Time
