package devalue

import "reflect"

// deepEqualKey decides whether a and b should be treated as "the same
// value" for the purposes of building a Map/Set by hand (types.go): by
// value for primitives (matching JS's SameValueZero used by real Map/Set),
// by identity for pointers, and by deep structural equality as a fallback
// for everything else. This is a convenience for constructing literals in
// Go; the Flattener (flatten.go) does its own identity/structural dedup
// independently while walking the graph, per spec.md §4.3.
func deepEqualKey(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		if ra.Kind() == reflect.Slice || ra.Kind() == reflect.Map {
			return reflect.DeepEqual(a, b)
		}
		return ra.Pointer() == rb.Pointer()
	case reflect.Float32, reflect.Float64:
		// SameValueZero: NaN equals NaN, and -0 equals +0.
		fa, fb := ra.Float(), rb.Float()
		return fa == fb || (fa != fa && fb != fb)
	default:
		return reflect.DeepEqual(a, b)
	}
}
