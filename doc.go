// Package devalue serializes arbitrary in-memory value graphs into compact
// textual forms that can be faithfully restored, handling what plain JSON
// cannot: cycles, shared references, sentinel numbers (±Inf, NaN, -0), holes,
// big integers, regular expressions, timestamps, ordered maps, sets, and
// user-defined types via reducers/revivers.
//
// # Two Output Modes
//
//   - Code mode (Uneval): a self-contained JS-like expression whose
//     evaluation reconstructs the graph.
//   - Data mode (Stringify/Parse): a flat, indexed JSON table and a matching
//     parser.
//
// Both modes are safe to embed inside an HTML <script> element.
//
// # Data Model
//
// Scalars: null, bool, number (with -0/NaN/±Inf), bigint, string, hole.
// Compounds: array, object, map, set, date, regexp, custom (via reducer).
//
// # Flat Table
//
// Both modes share one core algorithm: a single traversal that assigns a
// dense integer slot to every distinct value (by identity for compounds, by
// structural equality for primitives), in reservation-before-descent order so
// that cycles resolve to an already-reserved slot. Data mode renders the
// table as JSON; code mode renders it as an expression, hoisting shared or
// cyclic nodes into an IIFE and populating them with deferred assignments.
//
// # Example
//
//	devalue.Stringify(map[string]any{"message": "hello"}, nil)
//	// -> `[{"message":1},"hello"]`
//
//	obj := map[string]any{"message": "hello"}
//	obj["self"] = obj
//	devalue.Uneval(obj, nil)
//	// -> `(function(a){a.message="hello";a.self=a;return a}({}))`
package devalue
