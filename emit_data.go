package devalue

import (
	"strconv"
	"strings"
)

// This file is Emitter-Data (spec.md §4.4): it renders the flat table F as
// a JSON array, one rendered row per slot, in the shapes spec.md §6 fixes.
// The row-to-JSON mapping is grounded on the teacher's json_bridge.go
// (which already walks a value tree building JSON text field by field) and
// emit_tabular.go (which already renders rows of a table into a buffer in
// order); this generalizes both into "one JSON value per table row".

// Stringify is the data-mode entry point (spec.md §6): value -> JSON text.
func Stringify(value any, reducers *Reducers) (string, error) {
	t, rootRef, err := flatten(value, reducers)
	if err != nil {
		return "", err
	}
	return emitData(t, rootRef), nil
}

func emitData(t *table, rootRef int) string {
	if rootRef < 0 {
		// The root itself is a sentinel that never got a slot (spec.md §6);
		// the bare sentinel code is the entire output.
		return strconv.Itoa(rootRef)
	}
	if len(t.rows) == 1 {
		if bare, ok := bareForm(t.rows[0]); ok {
			return bare
		}
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range t.rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(renderRow(row))
	}
	b.WriteByte(']')
	return b.String()
}

// bareForm returns the JSON text for row when it is a plain primitive and
// the table has exactly one row, so Emitter-Data may skip the array wrapper
// (spec.md §4.4). Compound rows (even a lone empty object/array) are not
// eligible: only the four JSON-primitive row kinds are, and a number is not
// eligible when it is an integer in -6..-1, since a bare one of those reads
// back as a sentinel code (see asSentinelCode in revive.go).
func bareForm(row any) (string, bool) {
	switch r := row.(type) {
	case rowString:
		return quoteJSON(string(r)), true
	case rowNumber:
		if f := float64(r); f >= refNegZero && f <= refHole && f == float64(int(f)) {
			return "", false
		}
		return jsonNumber(float64(r)), true
	case rowBool:
		if bool(r) {
			return "true", true
		}
		return "false", true
	case rowNull:
		return "null", true
	default:
		return "", false
	}
}

func renderRow(row any) string {
	switch r := row.(type) {
	case rowString:
		return quoteJSON(string(r))
	case rowNumber:
		return jsonNumber(float64(r))
	case rowBool:
		if bool(r) {
			return "true"
		}
		return "false"
	case rowNull:
		return "null"
	case rowBigInt:
		return `["BigInt",` + quoteJSON(r.Digits) + `]`
	case rowDate:
		return `["Date",` + quoteJSON(r.ISO) + `]`
	case rowRegex:
		if r.Flags == "" {
			return `["RegExp",` + quoteJSON(r.Source) + `]`
		}
		return `["RegExp",` + quoteJSON(r.Source) + `,` + quoteJSON(r.Flags) + `]`
	case rowArray:
		return `[` + joinInts(r.Idx) + `]`
	case rowSet:
		return `["Set"` + prependComma(joinInts(r.Idx)) + `]`
	case rowMap:
		return `["Map"` + prependComma(joinInts(r.Pairs)) + `]`
	case rowObject:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range r.Keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeHTMLKey(k))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(r.Idx[i]))
		}
		b.WriteByte('}')
		return b.String()
	case rowCustom:
		return `[` + quoteJSON(r.Tag) + `,` + strconv.Itoa(r.Idx) + `]`
	default:
		return "null"
	}
}

func joinInts(idx []int) string {
	var b strings.Builder
	for i, n := range idx {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

func prependComma(s string) string {
	if s == "" {
		return ""
	}
	return "," + s
}

// jsonNumber renders a finite float64 as a JSON number literal. NaN/Inf
// never reach here: they are encoded as reference-site sentinels and never
// stored as a row (see flatten.go).
func jsonNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
