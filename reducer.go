package devalue

// Reducer turns a value of an opaque application type into a serializable
// payload. It returns ok=false to signal "not mine, try the next reducer"
// (spec.md §4.2, rule 1). Reducers are tried in registration order; the
// first match wins and classification stops there, ahead of every native
// kind — matching the teacher's BridgeOpts-style "try the extension point
// first" convention in json_bridge.go's fromJSONValue.
type Reducer func(v any) (payload any, ok bool)

// Reviver is the inverse of a Reducer: given the revived payload, it
// rebuilds the application value. Reviver functions may return an error,
// e.g. when the payload doesn't match the shape the Reducer would have
// produced.
type Reviver func(payload any) (any, error)

// namedReducer pairs a reducer with the tag string it produces values
// under, so Reducers can be passed and iterated as an ordered list rather
// than an unordered map — ordering matters because the first matching
// reducer wins (spec.md §4.2).
type namedReducer struct {
	Tag string
	Fn  Reducer
}

// Reducers is an ordered registry of tag -> Reducer, passed per call rather
// than held as process state (spec.md §9). Build one with NewReducers and
// Register.
type Reducers struct {
	entries []namedReducer
}

// NewReducers returns an empty reducer registry.
func NewReducers() *Reducers {
	return &Reducers{}
}

// Register adds a reducer under tag, trying it after every previously
// registered reducer (registration order). Returns the receiver for
// chaining.
func (r *Reducers) Register(tag string, fn Reducer) *Reducers {
	if r == nil {
		return nil
	}
	r.entries = append(r.entries, namedReducer{Tag: tag, Fn: fn})
	return r
}

// reduce tries every registered reducer in order, returning the first match.
func (r *Reducers) reduce(v any) (tag string, payload any, ok bool) {
	if r == nil {
		return "", nil, false
	}
	for _, e := range r.entries {
		if p, matched := e.Fn(v); matched {
			return e.Tag, p, true
		}
	}
	return "", nil, false
}

// Revivers is a registry of tag -> Reviver, passed per call (spec.md §9).
type Revivers struct {
	byTag map[string]Reviver
}

// NewRevivers returns an empty reviver registry.
func NewRevivers() *Revivers {
	return &Revivers{byTag: make(map[string]Reviver)}
}

// Register adds a reviver for tag. Returns the receiver for chaining.
func (r *Revivers) Register(tag string, fn Reviver) *Revivers {
	if r == nil {
		return nil
	}
	if r.byTag == nil {
		r.byTag = make(map[string]Reviver)
	}
	r.byTag[tag] = fn
	return r
}

func (r *Revivers) lookup(tag string) (Reviver, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.byTag[tag]
	return fn, ok
}

// builtinTags are the tag strings reserved for native compound kinds
// (spec.md §6). A user tag colliding with one of these is rejected at
// serialize time (builtinTagCollision).
var builtinTags = map[string]struct{}{
	"Date": {}, "RegExp": {}, "BigInt": {}, "Map": {}, "Set": {}, "null": {},
}

func builtinTagCollision(tag string) bool {
	_, ok := builtinTags[tag]
	return ok
}
