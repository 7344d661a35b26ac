package devalue

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"time"
)

// This file is the Reviver (spec.md §4.6): the inverse of Emitter-Data. It
// decodes standard JSON into the flat table shapes spec.md §6 fixes, then
// reconstructs the graph. Compound slots (object/array/map/set) are
// populated via a shell built before any of their children are resolved,
// exactly as spec.md §4.6 prescribes, so a cyclic back-reference resolves
// to the same, already-addressable container — the decode-side mirror of
// the teacher's index-table reconstruction in parse_tabular.go/
// parse_packed.go, which likewise builds a container first and fills it in
// from table rows afterward.

// Parse is the data-mode inverse entry point (spec.md §6): JSON text ->
// value.
func Parse(text string, revivers *Revivers) (any, error) {
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("devalue: invalid JSON: %w", err)
	}
	return Unflatten(raw, revivers)
}

// Unflatten reconstructs a value from an already-parsed JSON document
// (spec.md §6): used when the flattened form is embedded inside a larger
// JSON document that the caller decoded itself.
func Unflatten(doc any, revivers *Revivers) (any, error) {
	rows, isTable := doc.([]any)
	if !isTable {
		return unflattenBareRoot(doc)
	}
	d := &decoder{rows: rows, n: len(rows), revivers: revivers}
	d.resolved = make([]bool, d.n)
	d.inProgress = make([]bool, d.n)
	d.slots = make([]any, d.n)
	return d.deref(0)
}

// unflattenBareRoot handles the "table had exactly one primitive slot, or
// the root was a sentinel that never got a slot" shortcut Emitter-Data
// takes (spec.md §4.4): the decoded JSON value isn't a table at all.
func unflattenBareRoot(doc any) (any, error) {
	if n, ok := asSentinelCode(doc); ok {
		return sentinelValue(n)
	}
	return doc, nil
}

// asSentinelCode reports whether doc is a JSON number equal to one of the
// six reserved codes. Stringify never emits a bare primitive number in
// that exact range (see bareForm in emit_data.go), so any such bare number
// at the top level unambiguously means "sentinel", not "the number -6".
func asSentinelCode(doc any) (int, bool) {
	f, ok := doc.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	n := int(f)
	if n >= refNegZero && n <= refHole {
		return n, true
	}
	return 0, false
}

func sentinelValue(code int) (any, error) {
	switch code {
	case refHole:
		return Hole, nil
	case refUndefined:
		return Undefined, nil
	case refPosInf:
		return math.Inf(1), nil
	case refNegInf:
		return math.Inf(-1), nil
	case refNaN:
		return math.NaN(), nil
	case refNegZero:
		return math.Copysign(0, -1), nil
	default:
		return nil, &InvalidInputError{Reason: "not a sentinel code", Index: -1}
	}
}

type decoder struct {
	rows       []any
	n          int
	slots      []any
	resolved   []bool
	inProgress []bool
	revivers   *Revivers
}

// deref resolves a reference: a real slot index, or one of the six
// reserved negative codes that never correspond to a row (spec.md §6).
func (d *decoder) deref(ref int) (any, error) {
	if ref < 0 {
		return sentinelValue(ref)
	}
	if ref >= d.n {
		return nil, &InvalidInputError{Reason: "index out of range", Index: ref}
	}
	return d.resolve(ref)
}

func (d *decoder) resolve(i int) (any, error) {
	if d.resolved[i] {
		return d.slots[i], nil
	}
	if d.inProgress[i] {
		return nil, &CycleInPrimitiveFormError{Path: fmt.Sprintf("slot %d", i)}
	}

	switch raw := d.rows[i].(type) {
	case string:
		d.slots[i], d.resolved[i] = raw, true
		return raw, nil
	case float64:
		d.slots[i], d.resolved[i] = raw, true
		return raw, nil
	case bool:
		d.slots[i], d.resolved[i] = raw, true
		return raw, nil
	case nil:
		d.slots[i], d.resolved[i] = nil, true
		return nil, nil
	case map[string]any:
		return d.resolveObject(i, raw)
	case []any:
		if len(raw) > 0 {
			if tag, ok := raw[0].(string); ok {
				return d.resolveTagged(i, tag, raw)
			}
		}
		return d.resolveArray(i, raw)
	default:
		return nil, &InvalidInputError{Reason: fmt.Sprintf("unrecognized row shape %T", raw), Index: i}
	}
}

func (d *decoder) resolveObject(i int, raw map[string]any) (any, error) {
	shell := make(map[string]any, len(raw))
	d.slots[i], d.resolved[i] = shell, true
	for k, v := range raw {
		ref, err := numberRef(v)
		if err != nil {
			return nil, err
		}
		val, err := d.deref(ref)
		if err != nil {
			return nil, err
		}
		shell[unescapeHTMLKey(k)] = val
	}
	return shell, nil
}

func (d *decoder) resolveArray(i int, raw []any) (any, error) {
	shell := make([]any, len(raw))
	d.slots[i], d.resolved[i] = shell, true
	for n, v := range raw {
		ref, err := numberRef(v)
		if err != nil {
			return nil, err
		}
		val, err := d.deref(ref)
		if err != nil {
			return nil, err
		}
		shell[n] = val
	}
	return shell, nil
}

func (d *decoder) resolveTagged(i int, tag string, raw []any) (any, error) {
	switch tag {
	case "Date":
		if len(raw) != 2 {
			return nil, &InvalidInputError{Reason: "Date row must have 2 elements", Index: i}
		}
		iso, ok := raw[1].(string)
		if !ok {
			return nil, &InvalidInputError{Reason: "Date row payload must be a string", Index: i}
		}
		t, err := time.Parse("2006-01-02T15:04:05.000Z", iso)
		if err != nil {
			t, err = time.Parse(time.RFC3339, iso)
			if err != nil {
				return nil, &InvalidInputError{Reason: "invalid Date: " + err.Error(), Index: i}
			}
		}
		d.slots[i], d.resolved[i] = t, true
		return t, nil

	case "RegExp":
		if len(raw) < 2 || len(raw) > 3 {
			return nil, &InvalidInputError{Reason: "RegExp row must have 2 or 3 elements", Index: i}
		}
		source, ok := raw[1].(string)
		if !ok {
			return nil, &InvalidInputError{Reason: "RegExp source must be a string", Index: i}
		}
		flags := ""
		if len(raw) == 3 {
			flags, ok = raw[2].(string)
			if !ok {
				return nil, &InvalidInputError{Reason: "RegExp flags must be a string", Index: i}
			}
		}
		re := Regex{Source: source, Flags: flags}
		d.slots[i], d.resolved[i] = re, true
		return re, nil

	case "BigInt":
		if len(raw) != 2 {
			return nil, &InvalidInputError{Reason: "BigInt row must have 2 elements", Index: i}
		}
		digits, ok := raw[1].(string)
		if !ok {
			return nil, &InvalidInputError{Reason: "BigInt payload must be a string", Index: i}
		}
		bi := new(big.Int)
		if _, ok := bi.SetString(digits, 10); !ok {
			return nil, &InvalidInputError{Reason: "invalid BigInt literal: " + digits, Index: i}
		}
		d.slots[i], d.resolved[i] = bi, true
		return bi, nil

	case "Map":
		m := &Map{}
		d.slots[i], d.resolved[i] = m, true
		pairs := raw[1:]
		if len(pairs)%2 != 0 {
			return nil, &InvalidInputError{Reason: "Map row has an odd number of pair elements", Index: i}
		}
		for p := 0; p < len(pairs); p += 2 {
			kref, err := numberRef(pairs[p])
			if err != nil {
				return nil, err
			}
			vref, err := numberRef(pairs[p+1])
			if err != nil {
				return nil, err
			}
			k, err := d.deref(kref)
			if err != nil {
				return nil, err
			}
			v, err := d.deref(vref)
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil

	case "Set":
		s := &SetValue{}
		d.slots[i], d.resolved[i] = s, true
		for _, el := range raw[1:] {
			ref, err := numberRef(el)
			if err != nil {
				return nil, err
			}
			v, err := d.deref(ref)
			if err != nil {
				return nil, err
			}
			s.Add(v)
		}
		return s, nil

	case "null":
		d.slots[i], d.resolved[i] = nil, true
		return nil, nil

	default:
		if builtinTagCollision(tag) {
			return nil, &InvalidInputError{Reason: "reserved tag used as custom tag: " + tag, Index: i}
		}
		if len(raw) != 2 {
			return nil, &InvalidInputError{Reason: "custom row must have 2 elements", Index: i}
		}
		ref, err := numberRef(raw[1])
		if err != nil {
			return nil, err
		}
		fn, ok := d.revivers.lookup(tag)
		if !ok {
			return nil, &UnknownTypeError{Tag: tag}
		}
		d.inProgress[i] = true
		payload, err := d.deref(ref)
		d.inProgress[i] = false
		if err != nil {
			return nil, err
		}
		value, err := fn(payload)
		if err != nil {
			return nil, fmt.Errorf("devalue: reviver for %q failed: %w", tag, err)
		}
		d.slots[i], d.resolved[i] = value, true
		return value, nil
	}
}

func numberRef(v any) (int, error) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, &InvalidInputError{Reason: "expected an integer slot reference", Index: -1}
	}
	return int(f), nil
}

// unescapeHTMLKey is the identity function: the HTML-safety escaping in
// escapeHTMLKey (escape.go) is undone by the standard JSON string decoder
// before resolveObject ever sees the key, so no extra unescaping step is
// needed here. Named for symmetry with escapeHTMLKey at the call site.
func unescapeHTMLKey(k string) string { return k }
