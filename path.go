package devalue

import "strconv"

// path is the traversal breadcrumb attached to every classification and
// flatten error (spec.md §4.2, §6 "Error identification"). It grows by
// appending immutable segments as the walker descends, mirroring the way
// the teacher's Validator builds a JSON-path-style Path for
// ValidationError without ever mutating a shared buffer in place (see
// validate.go).
type path struct {
	segs []string
}

func rootPath() path { return path{} }

// key appends a ".key" or `["key"]` object-field segment, choosing the
// unquoted identifier form when it is safe (same grammar as object keys in
// code mode, see isIdentifierSafe in escape.go).
func (p path) key(k string) path {
	seg := "[" + quoteJS(k) + "]"
	if isIdentifierSafe(k) {
		seg = "." + k
	}
	return path{segs: append(append([]string{}, p.segs...), seg)}
}

// index appends an "[i]" array/set-element segment.
func (p path) index(i int) path {
	seg := "[" + strconv.Itoa(i) + "]"
	return path{segs: append(append([]string{}, p.segs...), seg)}
}

// mapKey appends a `.get(K)` map-value segment, where K is the devalued
// (best-effort, one-line) form of the key.
func (p path) mapKey(k any) path {
	seg := ".get(" + shallowDisplay(k) + ")"
	return path{segs: append(append([]string{}, p.segs...), seg)}
}

// mapKeySide appends a `.keys()[i]` segment for errors found while
// traversing the key half of a map entry, before the key has a display form.
func (p path) mapKeySide(i int) path {
	seg := ".keys()[" + strconv.Itoa(i) + "]"
	return path{segs: append(append([]string{}, p.segs...), seg)}
}

func (p path) String() string {
	if len(p.segs) == 0 {
		return "."
	}
	out := ""
	for _, s := range p.segs {
		out += s
	}
	return out
}

// shallowDisplay renders a best-effort one-line form of v for use inside an
// error path; it never recurses into compound children, so it can't loop or
// blow up on the very cyclic/huge values that triggered the error.
func shallowDisplay(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return quoteJS(x)
	case bool, int, int64, float64:
		return toDisplayNumber(x)
	default:
		return "…"
	}
}

func toDisplayNumber(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return "…"
	}
}
