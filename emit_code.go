package devalue

import (
	"strconv"
	"strings"
)

// This file is Emitter-Code (spec.md §4.5): it renders the graph as a
// single JS-like expression. It reuses the same flat table the Flattener
// builds for data mode — spec.md §1 calls the graph-to-flat-table
// algorithm "shared by both modes" — and recovers the ref-count prepass
// from that table by counting how many places reference each slot, rather
// than walking the graph a second time. A slot needs hoisting exactly
// when spec.md §4.5 says a node needs it: referenced from more than one
// place, or reachable from itself (a back-reference, i.e. a reference
// whose target index is not strictly greater than its referrer's index,
// which reservation-before-descent guarantees is impossible for a plain
// forward tree edge). This generalizes the teacher's emit_patch.go, where
// a node is likewise first established as an addressable shell and then
// populated by separate deferred statements.

// Uneval is the code-mode entry point (spec.md §6): value -> JS expression
// text, safe to embed inside an HTML <script> element.
func Uneval(value any, reducers *Reducers) (string, error) {
	t, rootRef, err := flatten(value, reducers)
	if err != nil {
		return "", err
	}
	return emitCode(t, rootRef), nil
}

func emitCode(t *table, rootRef int) string {
	if rootRef < 0 {
		return renderSentinel(rootRef)
	}
	e := &codeEmitter{t: t}
	e.analyze()
	return e.render(rootRef)
}

type codeEmitter struct {
	t         *table
	refCount  []int
	backEdge  []bool
	hoist     []bool
	paramName []string
}

func (e *codeEmitter) analyze() {
	n := len(e.t.rows)
	e.refCount = make([]int, n)
	e.backEdge = make([]bool, n)
	e.hoist = make([]bool, n)
	e.paramName = make([]string, n)

	for i, row := range e.t.rows {
		for _, ref := range rowRefs(row) {
			if ref < 0 {
				continue
			}
			e.refCount[ref]++
			if ref <= i {
				e.backEdge[ref] = true
			}
		}
	}
	params := 0
	for i, row := range e.t.rows {
		if isCompoundRow(row) && (e.refCount[i] > 1 || e.backEdge[i]) {
			e.hoist[i] = true
			e.paramName[i] = paramName(params)
			params++
		}
	}
}

// rowRefs returns the index/sentinel references a row directly contains,
// in table order, for the ref-count prepass.
func rowRefs(row any) []int {
	switch r := row.(type) {
	case rowObject:
		return r.Idx
	case rowArray:
		return r.Idx
	case rowMap:
		return r.Pairs
	case rowSet:
		return r.Idx
	case rowCustom:
		return []int{r.Idx}
	default:
		return nil
	}
}

func isCompoundRow(row any) bool {
	switch row.(type) {
	case rowObject, rowArray, rowMap, rowSet, rowCustom, rowDate, rowRegex, rowBigInt:
		return true
	default:
		return false
	}
}

func isShellRow(row any) bool {
	switch row.(type) {
	case rowObject, rowArray, rowMap, rowSet:
		return true
	default:
		return false
	}
}

// render produces the whole expression for root: pure inline if nothing in
// the graph needs hoisting, otherwise the hoisted IIFE form.
func (e *codeEmitter) render(root int) string {
	any_ := false
	for _, h := range e.hoist {
		if h {
			any_ = true
			break
		}
	}
	if !any_ {
		return e.renderInline(root)
	}

	var params, args, body, constructs []string
	for i, row := range e.t.rows {
		if !e.hoist[i] {
			continue
		}
		params = append(params, e.paramName[i])
		if isShellRow(row) {
			args = append(args, shellLiteral(row))
			body = append(body, e.populateStatements(i, row)...)
		} else {
			// A hoisted non-shell node (Date/RegExp/BigInt/Custom) can't
			// be built as an IIFE argument: arguments are evaluated in
			// the outer scope before any parameter is bound, so a
			// construct that itself references another hoisted node
			// (e.g. a shared Custom whose payload is a shared object)
			// would see an unbound name there. Passing a placeholder and
			// assigning the real value in the body defers construction
			// until the function's parameters (including any shell it
			// depends on) are bound. These assignments run before every
			// shell-populating statement, in reverse table order so a
			// construct's own (higher-indexed) hoisted payload is built
			// first.
			args = append(args, "null")
			constructs = append([]string{e.paramName[i] + "=" + e.renderConstruct(i, row) + ";"}, constructs...)
		}
	}
	body = append(constructs, body...)

	var b strings.Builder
	b.WriteString("(function(")
	b.WriteString(strings.Join(params, ","))
	b.WriteString("){")
	for _, stmt := range body {
		b.WriteString(stmt)
	}
	b.WriteString("return ")
	b.WriteString(e.renderRef(root))
	b.WriteString("}(")
	b.WriteString(strings.Join(args, ","))
	b.WriteString("))")
	return b.String()
}

// renderRef renders a reference: the hoisted node's bare parameter name if
// it was pulled out, otherwise its value inlined in full.
func (e *codeEmitter) renderRef(ref int) string {
	if ref < 0 {
		return renderSentinel(ref)
	}
	if e.hoist[ref] {
		return e.paramName[ref]
	}
	return e.renderInline(ref)
}

func (e *codeEmitter) renderInline(idx int) string {
	switch r := e.t.rows[idx].(type) {
	case rowString:
		return quoteJS(string(r))
	case rowNumber:
		return jsonNumber(float64(r))
	case rowBool:
		if bool(r) {
			return "true"
		}
		return "false"
	case rowNull:
		return "null"
	case rowBigInt, rowDate, rowRegex, rowCustom:
		return e.renderConstruct(idx, r)
	case rowArray:
		return e.renderArrayInline(r)
	case rowObject:
		return e.renderObjectInline(r)
	case rowMap:
		return e.renderMapInline(r)
	case rowSet:
		return e.renderSetInline(r)
	default:
		return "null"
	}
}

// renderConstruct builds the full, self-contained construction expression
// for a value kind that has no mutable shell to defer-populate (Date,
// RegExp, BigInt, Custom): it is either the right-hand side of a hoisted
// param's assignment in the IIFE body (the param's argument is a null
// placeholder), or (inlined) the value in place — the same expression
// either way, since these kinds don't need statements after construction.
func (e *codeEmitter) renderConstruct(idx int, row any) string {
	switch r := row.(type) {
	case rowBigInt:
		return "BigInt(" + quoteJS(r.Digits) + ")"
	case rowDate:
		return "new Date(" + quoteJS(r.ISO) + ")"
	case rowRegex:
		return "new RegExp(" + quoteJS(r.Source) + "," + quoteJS(r.Flags) + ")"
	case rowCustom:
		return r.Tag + "(" + e.renderRef(r.Idx) + ")"
	default:
		_ = idx
		return "null"
	}
}

func (e *codeEmitter) renderArrayInline(r rowArray) string {
	hasHole := false
	for _, ref := range r.Idx {
		if ref == refHole {
			hasHole = true
			break
		}
	}
	if !hasHole {
		parts := make([]string, len(r.Idx))
		for i, ref := range r.Idx {
			parts[i] = e.renderRef(ref)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	// A sparse array can't be a plain bracket literal without relying on
	// elision-comma edge cases, so it is built as a single expression via
	// Object.assign, which sets only the defined indices and leaves every
	// other position a true hole (spec.md §3, invariant 5).
	var pairs []string
	for i, ref := range r.Idx {
		if ref == refHole {
			continue
		}
		pairs = append(pairs, strconv.Itoa(i)+":"+e.renderRef(ref))
	}
	return "Object.assign(Array(" + strconv.Itoa(len(r.Idx)) + "),{" + strings.Join(pairs, ",") + "})"
}

func (e *codeEmitter) renderObjectInline(r rowObject) string {
	parts := make([]string, len(r.Keys))
	for i, k := range r.Keys {
		parts[i] = quoteObjectKey(k) + ":" + e.renderRef(r.Idx[i])
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (e *codeEmitter) renderMapInline(r rowMap) string {
	var pairs []string
	for i := 0; i < len(r.Pairs); i += 2 {
		pairs = append(pairs, "["+e.renderRef(r.Pairs[i])+","+e.renderRef(r.Pairs[i+1])+"]")
	}
	return "new Map([" + strings.Join(pairs, ",") + "])"
}

func (e *codeEmitter) renderSetInline(r rowSet) string {
	parts := make([]string, len(r.Idx))
	for i, ref := range r.Idx {
		parts[i] = e.renderRef(ref)
	}
	return "new Set([" + strings.Join(parts, ",") + "])"
}

// shellLiteral is the empty placeholder a hoisted shell kind starts life
// as — an IIFE parameter's literal-form argument (spec.md §4.5).
func shellLiteral(row any) string {
	switch row.(type) {
	case rowObject:
		return "{}"
	case rowArray:
		r := row.(rowArray)
		return "Array(" + strconv.Itoa(len(r.Idx)) + ")"
	case rowMap:
		return "new Map"
	case rowSet:
		return "new Set"
	default:
		return "null"
	}
}

// populateStatements emits the assignment statements that fill in a
// hoisted shell's members, in source (table) order, so cycles resolve
// because every referenced node — including the shell itself — already
// exists by the time a statement runs (spec.md §4.5).
func (e *codeEmitter) populateStatements(idx int, row any) []string {
	name := e.paramName[idx]
	switch r := row.(type) {
	case rowObject:
		stmts := make([]string, len(r.Keys))
		for i, k := range r.Keys {
			if isIdentifierSafe(k) {
				stmts[i] = name + "." + k + "=" + e.renderRef(r.Idx[i]) + ";"
			} else {
				stmts[i] = name + "[" + quoteJS(k) + "]=" + e.renderRef(r.Idx[i]) + ";"
			}
		}
		return stmts
	case rowArray:
		var stmts []string
		for i, ref := range r.Idx {
			if ref == refHole {
				continue
			}
			stmts = append(stmts, name+"["+strconv.Itoa(i)+"]="+e.renderRef(ref)+";")
		}
		return stmts
	case rowMap:
		var stmts []string
		for i := 0; i < len(r.Pairs); i += 2 {
			stmts = append(stmts, name+".set("+e.renderRef(r.Pairs[i])+","+e.renderRef(r.Pairs[i+1])+");")
		}
		return stmts
	case rowSet:
		stmts := make([]string, len(r.Idx))
		for i, ref := range r.Idx {
			stmts[i] = name + ".add(" + e.renderRef(ref) + ");"
		}
		return stmts
	default:
		return nil
	}
}

// renderSentinel renders one of the six reserved codes as the JS
// expression that produces it (spec.md §6).
func renderSentinel(ref int) string {
	switch ref {
	case refHole:
		return "undefined" // a bare Hole has no stand-alone expression form; callers treat array holes specially
	case refUndefined:
		return "void 0"
	case refPosInf:
		return "Infinity"
	case refNegInf:
		return "-Infinity"
	case refNaN:
		return "NaN"
	case refNegZero:
		return "-0"
	default:
		return "null"
	}
}

// paramName generates IIFE parameter names a, b, c, ..., z, a0, a1, ...
func paramName(n int) string {
	if n < 26 {
		return string(rune('a' + n))
	}
	return "a" + strconv.Itoa(n-26)
}
