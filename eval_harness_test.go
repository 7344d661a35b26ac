package devalue

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// This file is a tiny interpreter for exactly the JS subset emit_code.go
// ever produces: literals, object/array/Map/Set/Date/RegExp/BigInt
// constructors, custom-tag calls, and the hoisted IIFE-with-assignment
// form. It exists only so devalue_test.go can assert property 1 from
// spec.md §8 ("evalIndirect(uneval(v)) ≡ v") against the real text Uneval
// emits, the way the teacher's cross_impl_test.go cross-checked two
// concrete encodings of the same value rather than trusting one encoder's
// self-consistency.

type jsCursor struct {
	s   string
	pos int
}

func (c *jsCursor) skipWS() {
	for c.pos < len(c.s) {
		switch c.s[c.pos] {
		case ' ', '\t', '\n', '\r':
			c.pos++
		default:
			return
		}
	}
}

func (c *jsCursor) peek() byte {
	if c.pos >= len(c.s) {
		return 0
	}
	return c.s[c.pos]
}

func (c *jsCursor) eat(b byte) error {
	c.skipWS()
	if c.peek() != b {
		return fmt.Errorf("eval: expected %q at pos %d in %q", b, c.pos, c.s)
	}
	c.pos++
	return nil
}

func (c *jsCursor) tryEat(b byte) bool {
	c.skipWS()
	if c.peek() == b {
		c.pos++
		return true
	}
	return false
}

// ident reads an identifier (letters, digits, $, _) starting at c.pos.
func (c *jsCursor) ident() string {
	c.skipWS()
	start := c.pos
	for c.pos < len(c.s) {
		b := c.s[c.pos]
		if b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') {
			c.pos++
			continue
		}
		break
	}
	return c.s[start:c.pos]
}

// jsEnv maps hoisted parameter names to their (already-constructed) shell
// values, mutated in place as assignment statements run.
type jsEnv map[string]any

// customCtor constructs the application value for a custom tag's payload,
// mirroring a Reviver but operating on already-evaluated Go values instead
// of raw JSON.
type customCtor func(tag string, payload any) (any, error)

func evalDevalueExpr(src string, ctor customCtor) (any, error) {
	c := &jsCursor{s: strings.TrimSpace(src)}
	v, err := evalExpr(c, jsEnv{}, ctor)
	if err != nil {
		return nil, err
	}
	c.skipWS()
	if c.pos != len(c.s) {
		return nil, fmt.Errorf("eval: trailing input at %d in %q", c.pos, c.s)
	}
	return v, nil
}

func evalExpr(c *jsCursor, env jsEnv, ctor customCtor) (any, error) {
	c.skipWS()
	switch c.peek() {
	case '(':
		return evalParenOrIIFE(c, env, ctor)
	case '"':
		return evalStringLit(c)
	case '{':
		return evalObjectLit(c, env, ctor)
	case '[':
		return evalArrayLit(c, env, ctor)
	case '-', '+':
		return evalNumber(c)
	}
	if c.peek() >= '0' && c.peek() <= '9' {
		return evalNumber(c)
	}
	start := c.pos
	word := c.ident()
	switch word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "void":
		c.skipWS()
		c.ident() // consumes "0"
		if c.peek() == '0' {
			c.pos++
		}
		return Undefined, nil
	case "undefined":
		return Undefined, nil
	case "new":
		c.skipWS()
		callee := c.ident()
		return evalNew(c, env, ctor, callee)
	case "BigInt":
		args, err := parseArgs(c, env, ctor)
		if err != nil {
			return nil, err
		}
		digits, _ := args[0].(string)
		bi := new(big.Int)
		if _, ok := bi.SetString(digits, 10); !ok {
			return nil, fmt.Errorf("eval: bad BigInt literal %q", digits)
		}
		return bi, nil
	case "Object":
		if err := c.eat('.'); err != nil {
			return nil, err
		}
		m := c.ident()
		if m != "assign" {
			return nil, fmt.Errorf("eval: unsupported Object.%s", m)
		}
		return evalObjectAssign(c, env, ctor)
	}
	if word == "" {
		return nil, fmt.Errorf("eval: unexpected character %q at %d", c.peek(), c.pos)
	}
	// A bare identifier is either a hoisted parameter reference or a
	// custom-tag constructor call `Tag(ref)`.
	c.skipWS()
	if c.peek() == '(' {
		args, err := parseArgs(c, env, ctor)
		if err != nil {
			return nil, err
		}
		if ctor == nil {
			return nil, fmt.Errorf("eval: no constructor registered for tag %q", word)
		}
		return ctor(word, args[0])
	}
	if v, ok := env[word]; ok {
		return v, nil
	}
	_ = start
	return nil, fmt.Errorf("eval: unbound identifier %q", word)
}

func evalNumber(c *jsCursor) (any, error) {
	start := c.pos
	if c.peek() == '-' || c.peek() == '+' {
		c.pos++
	}
	c.skipWS()
	if strings.HasPrefix(c.s[c.pos:], "Infinity") {
		c.pos += len("Infinity")
		f := math.Inf(1)
		if c.s[start] == '-' {
			f = math.Inf(-1)
		}
		return f, nil
	}
	numStart := c.pos
	for c.pos < len(c.s) {
		b := c.s[c.pos]
		if (b >= '0' && b <= '9') || b == '.' || b == 'e' || b == 'E' || b == '+' || b == '-' {
			c.pos++
			continue
		}
		break
	}
	text := c.s[start:numStart] + c.s[numStart:c.pos]
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil, fmt.Errorf("eval: bad number %q: %w", text, err)
	}
	if f == 0 && text != "" && text[0] == '-' {
		return math.Copysign(0, -1), nil
	}
	return f, nil
}

func evalStringLit(c *jsCursor) (string, error) {
	if err := c.eat('"'); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		if c.pos >= len(c.s) {
			return "", fmt.Errorf("eval: unterminated string")
		}
		ch := c.s[c.pos]
		if ch == '"' {
			c.pos++
			return b.String(), nil
		}
		if ch == '\\' {
			c.pos++
			esc := c.s[c.pos]
			c.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '0':
				b.WriteByte(0)
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'u':
				hex := c.s[c.pos : c.pos+4]
				c.pos += 4
				n, err := strconv.ParseInt(hex, 16, 32)
				if err != nil {
					return "", fmt.Errorf("eval: bad \\u escape %q: %w", hex, err)
				}
				b.WriteRune(rune(n))
			default:
				b.WriteByte(esc)
			}
			continue
		}
		b.WriteByte(ch)
		c.pos++
	}
}

func evalNew(c *jsCursor, env jsEnv, ctor customCtor, callee string) (any, error) {
	switch callee {
	case "Date":
		args, err := parseArgs(c, env, ctor)
		if err != nil {
			return nil, err
		}
		iso, _ := args[0].(string)
		t, err := time.Parse("2006-01-02T15:04:05.000Z", iso)
		if err != nil {
			return nil, fmt.Errorf("eval: bad Date literal %q: %w", iso, err)
		}
		return t, nil
	case "RegExp":
		args, err := parseArgs(c, env, ctor)
		if err != nil {
			return nil, err
		}
		src, _ := args[0].(string)
		flags := ""
		if len(args) > 1 {
			flags, _ = args[1].(string)
		}
		return Regex{Source: src, Flags: flags}, nil
	case "Map":
		c.skipWS()
		if c.tryEat('(') {
			// new Map([[k,v],...])
			if c.peek() == ')' {
				c.pos++
				return &Map{}, nil
			}
			arg, err := evalExpr(c, env, ctor)
			if err != nil {
				return nil, err
			}
			if err := c.eat(')'); err != nil {
				return nil, err
			}
			m := &Map{}
			for _, pair := range arg.([]any) {
				kv := pair.([]any)
				m.Set(kv[0], kv[1])
			}
			return m, nil
		}
		return &Map{}, nil
	case "Set":
		c.skipWS()
		if c.tryEat('(') {
			if c.peek() == ')' {
				c.pos++
				return &SetValue{}, nil
			}
			arg, err := evalExpr(c, env, ctor)
			if err != nil {
				return nil, err
			}
			if err := c.eat(')'); err != nil {
				return nil, err
			}
			s := &SetValue{}
			for _, m := range arg.([]any) {
				s.Add(m)
			}
			return s, nil
		}
		return &SetValue{}, nil
	default:
		return nil, fmt.Errorf("eval: unsupported constructor new %s", callee)
	}
}

// parseArgs parses a parenthesized, comma-separated argument list.
func parseArgs(c *jsCursor, env jsEnv, ctor customCtor) ([]any, error) {
	if err := c.eat('('); err != nil {
		return nil, err
	}
	var args []any
	c.skipWS()
	for c.peek() != ')' {
		v, err := evalExpr(c, env, ctor)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		c.skipWS()
		if !c.tryEat(',') {
			break
		}
	}
	if err := c.eat(')'); err != nil {
		return nil, err
	}
	return args, nil
}

func evalArrayLit(c *jsCursor, env jsEnv, ctor customCtor) ([]any, error) {
	if err := c.eat('['); err != nil {
		return nil, err
	}
	var elems []any
	c.skipWS()
	for c.peek() != ']' {
		v, err := evalExpr(c, env, ctor)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		c.skipWS()
		if !c.tryEat(',') {
			break
		}
	}
	if err := c.eat(']'); err != nil {
		return nil, err
	}
	return elems, nil
}

func evalObjectKey(c *jsCursor) (string, error) {
	c.skipWS()
	if c.peek() == '"' {
		return evalStringLit(c)
	}
	k := c.ident()
	if k == "" {
		return "", fmt.Errorf("eval: bad object key at %d", c.pos)
	}
	return k, nil
}

func evalObjectLit(c *jsCursor, env jsEnv, ctor customCtor) (map[string]any, error) {
	if err := c.eat('{'); err != nil {
		return nil, err
	}
	obj := map[string]any{}
	c.skipWS()
	for c.peek() != '}' {
		k, err := evalObjectKey(c)
		if err != nil {
			return nil, err
		}
		if err := c.eat(':'); err != nil {
			return nil, err
		}
		v, err := evalExpr(c, env, ctor)
		if err != nil {
			return nil, err
		}
		obj[k] = v
		c.skipWS()
		if !c.tryEat(',') {
			break
		}
	}
	if err := c.eat('}'); err != nil {
		return nil, err
	}
	return obj, nil
}

// evalObjectAssign handles Object.assign(Array(n),{idx:val,...}), the
// sparse-array form emit_code.go's renderArrayInline produces.
func evalObjectAssign(c *jsCursor, env jsEnv, ctor customCtor) ([]any, error) {
	if err := c.eat('('); err != nil {
		return nil, err
	}
	c.skipWS()
	if c.ident() != "Array" {
		return nil, fmt.Errorf("eval: expected Array(n) as Object.assign's first arg")
	}
	if err := c.eat('('); err != nil {
		return nil, err
	}
	nStr := c.ident()
	n, err := strconv.Atoi(nStr)
	if err != nil {
		return nil, fmt.Errorf("eval: bad Array(n) length %q: %w", nStr, err)
	}
	if err := c.eat(')'); err != nil {
		return nil, err
	}
	arr := make([]any, n)
	for i := range arr {
		arr[i] = Hole
	}
	if err := c.eat(','); err != nil {
		return nil, err
	}
	patch, err := evalObjectLit(c, env, ctor)
	if err != nil {
		return nil, err
	}
	if err := c.eat(')'); err != nil {
		return nil, err
	}
	for k, v := range patch {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("eval: bad sparse array index %q: %w", k, err)
		}
		arr[idx] = v
	}
	return arr, nil
}

func evalParenOrIIFE(c *jsCursor, env jsEnv, ctor customCtor) (any, error) {
	if err := c.eat('('); err != nil {
		return nil, err
	}
	c.skipWS()
	if strings.HasPrefix(c.s[c.pos:], "function") {
		return evalIIFE(c, ctor)
	}
	v, err := evalExpr(c, env, ctor)
	if err != nil {
		return nil, err
	}
	if err := c.eat(')'); err != nil {
		return nil, err
	}
	return v, nil
}

func evalIIFE(c *jsCursor, ctor customCtor) (any, error) {
	c.skipWS()
	c.ident() // "function"
	if err := c.eat('('); err != nil {
		return nil, err
	}
	var params []string
	c.skipWS()
	for c.peek() != ')' {
		params = append(params, c.ident())
		c.skipWS()
		if !c.tryEat(',') {
			break
		}
	}
	if err := c.eat(')'); err != nil {
		return nil, err
	}
	if err := c.eat('{'); err != nil {
		return nil, err
	}

	// The call arguments that bind the function's parameters appear
	// textually *after* the body, so the body's statements can't be
	// executed until the args are parsed. Find the matching closing
	// brace first, then parse+bind the args, then go back and run the
	// body against the now-populated env.
	bodyStart := c.pos
	depth := 1
	for c.pos < len(c.s) && depth > 0 {
		switch c.s[c.pos] {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			// skip over string literals so braces inside them don't
			// confuse the depth count
			c.pos++
			for c.pos < len(c.s) && c.s[c.pos] != '"' {
				if c.s[c.pos] == '\\' {
					c.pos++
				}
				c.pos++
			}
		}
		c.pos++
	}
	bodyEnd := c.pos - 1 // position of the matching '}'

	if err := c.eat('('); err != nil {
		return nil, err
	}
	args := []any{}
	c.skipWS()
	for c.peek() != ')' {
		v, err := evalExpr(c, jsEnv{}, ctor)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		c.skipWS()
		if !c.tryEat(',') {
			break
		}
	}
	if err := c.eat(')'); err != nil {
		return nil, err
	}
	if err := c.eat(')'); err != nil {
		return nil, err
	}

	env := jsEnv{}
	for i, p := range params {
		if i < len(args) {
			env[p] = args[i]
		}
	}

	body := &jsCursor{s: c.s[bodyStart:bodyEnd]}
	var retExpr string
	for {
		body.skipWS()
		if strings.HasPrefix(body.s[body.pos:], "return ") {
			body.pos += len("return ")
			start := body.pos
			rdepth := 0
			for body.pos < len(body.s) {
				switch body.s[body.pos] {
				case '(', '[', '{':
					rdepth++
				case ')', ']', '}':
					if rdepth == 0 {
						goto doneReturn
					}
					rdepth--
				case ';':
					if rdepth == 0 {
						goto doneReturn
					}
				}
				body.pos++
			}
		doneReturn:
			retExpr = body.s[start:body.pos]
			body.tryEat(';')
			break
		}
		if err := evalStatement(body, env, ctor); err != nil {
			return nil, err
		}
	}

	sub := &jsCursor{s: retExpr}
	return evalExpr(sub, env, ctor)
}

// evalStatement executes one `name=expr;` (reassigning a hoisted
// parameter whose value is a non-shell construct, e.g. a Custom/Date/
// BigInt built after the IIFE's parameters are bound), `name.key=expr;`,
// `name[i]=expr;`, `name["k"]=expr;`, `name.set(k,v);`, or `name.add(v);`
// statement, mutating the shell already bound in env.
func evalStatement(c *jsCursor, env jsEnv, ctor customCtor) error {
	c.skipWS()
	name := c.ident()
	if _, ok := env[name]; !ok {
		return fmt.Errorf("eval: assignment to unbound %q", name)
	}
	c.skipWS()
	if c.peek() == '=' {
		c.pos++
		v, err := evalExpr(c, env, ctor)
		if err != nil {
			return err
		}
		env[name] = v
		return c.eat(';')
	}
	recv := env[name]
	switch c.peek() {
	case '.':
		c.pos++
		member := c.ident()
		c.skipWS()
		if c.peek() == '(' {
			args, err := parseArgs(c, env, ctor)
			if err != nil {
				return err
			}
			switch member {
			case "set":
				recv.(*Map).Set(args[0], args[1])
			case "add":
				recv.(*SetValue).Add(args[0])
			default:
				return fmt.Errorf("eval: unsupported method %s.%s", name, member)
			}
			return c.eat(';')
		}
		if err := c.eat('='); err != nil {
			return err
		}
		v, err := evalExpr(c, env, ctor)
		if err != nil {
			return err
		}
		recv.(map[string]any)[member] = v
		return c.eat(';')
	case '[':
		c.pos++
		c.skipWS()
		var key any
		if c.peek() == '"' {
			s, err := evalStringLit(c)
			if err != nil {
				return err
			}
			key = s
		} else {
			numStart := c.pos
			for c.pos < len(c.s) && c.s[c.pos] >= '0' && c.s[c.pos] <= '9' {
				c.pos++
			}
			n, err := strconv.Atoi(c.s[numStart:c.pos])
			if err != nil {
				return fmt.Errorf("eval: bad index in assignment: %w", err)
			}
			key = n
		}
		if err := c.eat(']'); err != nil {
			return err
		}
		if err := c.eat('='); err != nil {
			return err
		}
		v, err := evalExpr(c, env, ctor)
		if err != nil {
			return err
		}
		switch k := key.(type) {
		case string:
			recv.(map[string]any)[k] = v
		case int:
			recv.([]any)[k] = v
		}
		return c.eat(';')
	}
	return fmt.Errorf("eval: malformed statement after %q", name)
}
