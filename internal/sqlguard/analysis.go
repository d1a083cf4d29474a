package sqlguard

type frameKind int

const (
	frameGroup frameKind = iota
	frameFunc
	frameQuery
)

type tableRef struct {
	schema string
	name   string
	call   bool // followed by "(", a table function
}

// analysis is the name-resolution view of one statement. Scoping is flat:
// tables, aliases and output names from subqueries are visible everywhere.
type analysis struct {
	toks    []token
	skip    map[int]bool // tokens that are not column references
	tables  []tableRef
	aliases map[string]string // alias -> table or CTE name, "" for derived tables
	ctes    map[string]bool
	outputs map[string]bool // select-list aliases
	calls   []int           // indexes of function-name tokens
}

func identLike(t token) bool {
	return t.kind == tokIdent || t.kind == tokQuotedIdent
}

func isReserved(t token) bool {
	if t.kind != tokIdent {
		return false
	}
	_, ok := reserved[t.lower]
	return ok
}

// name is the identifier as Postgres resolves it: unquoted names fold to
// lower case, quoted names keep their case.
func (t token) name() string {
	if t.kind == tokQuotedIdent {
		return t.text
	}
	return t.lower
}

func collect(toks []token) *analysis {
	a := &analysis{
		toks:    toks,
		skip:    make(map[int]bool),
		aliases: make(map[string]string),
		ctes:    make(map[string]bool),
		outputs: make(map[string]bool),
	}
	frames := []frameKind{frameQuery}
	castType := make(map[int]bool)

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		next := func(k int) (token, bool) {
			if i+k < len(toks) {
				return toks[i+k], true
			}
			return token{}, false
		}

		switch t.kind {
		case tokLParen:
			kind := frameGroup
			if i > 0 && toks[i-1].kind == tokIdent && !isReserved(toks[i-1]) {
				kind = frameFunc
			}
			frames = append(frames, kind)

		case tokRParen:
			closed := frames[len(frames)-1]
			frames = frames[:len(frames)-1]
			if closed != frameQuery {
				continue
			}
			// (subquery) [AS] alias
			j := i + 1
			if nt, ok := next(1); ok && nt.is("as") {
				j++
			}
			if j < len(toks) && identLike(toks[j]) && !isReserved(toks[j]) && !followedBy(toks, j, tokDot, tokLParen) {
				a.aliases[toks[j].name()] = ""
				a.skip[j] = true
			}

		case tokCast:
			if nt, ok := next(1); ok && identLike(nt) {
				a.skip[i+1] = true
				castType[i+1] = true
			}

		case tokIdent, tokQuotedIdent:
			if t.is("select") {
				frames[len(frames)-1] = frameQuery
				continue
			}

			if isCTEName(toks, i) {
				a.ctes[t.name()] = true
				a.skip[i] = true
				continue
			}

			if nt, ok := next(1); ok && nt.kind == tokLParen {
				a.skip[i] = true // function name
				if !isReserved(t) && !castType[i] {
					a.calls = append(a.calls, i)
				}
				continue
			}

			if t.is("as") {
				if nt, ok := next(1); ok && identLike(nt) {
					a.skip[i+1] = true
					if !isReserved(nt) {
						a.outputs[nt.name()] = true
					}
					i++
				}
				continue
			}

			top := frames[len(frames)-1]
			if (t.is("from") && top == frameQuery && !(i > 0 && toks[i-1].is("distinct"))) || t.is("join") {
				i = a.fromList(i+1, t.is("from")) - 1
				continue
			}

			// implicit alias: an identifier directly after a complete value
			if i > 0 && !isReserved(t) && !followedBy(toks, i, tokDot) && endsValue(toks, i-1, a.skip, castType) {
				a.outputs[t.name()] = true
				a.skip[i] = true
			}
		}
	}
	return a
}

// fromList records the table references after FROM or JOIN and returns the
// index of the first token it did not consume.
func (a *analysis) fromList(i int, list bool) int {
	toks := a.toks
	for i < len(toks) {
		t := toks[i]
		if !identLike(t) || isReserved(t) {
			return i
		}
		ref := tableRef{name: t.name()}
		a.skip[i] = true
		i++
		if i+1 < len(toks) && toks[i].kind == tokDot && identLike(toks[i+1]) {
			ref.schema, ref.name = ref.name, toks[i+1].name()
			a.skip[i+1] = true
			i += 2
		}
		if i < len(toks) && toks[i].kind == tokLParen {
			ref.call = true
		}
		a.tables = append(a.tables, ref)

		alias := ref.name
		if i < len(toks) && toks[i].is("as") {
			i++
		}
		if i < len(toks) && identLike(toks[i]) && !isReserved(toks[i]) {
			alias = toks[i].name()
			a.skip[i] = true
			i++
		}
		a.aliases[alias] = ref.name
		a.aliases[ref.name] = ref.name

		if !list || i >= len(toks) || toks[i].kind != tokComma {
			return i
		}
		i++
	}
	return i
}

// isCTEName matches "name AS (" directly after WITH, RECURSIVE or a comma.
func isCTEName(toks []token, i int) bool {
	if i == 0 || i+2 >= len(toks) {
		return false
	}
	prev := toks[i-1]
	if !prev.is("with") && !prev.is("recursive") && prev.kind != tokComma {
		return false
	}
	return toks[i+1].is("as") && toks[i+2].kind == tokLParen
}

func followedBy(toks []token, i int, kinds ...tokenKind) bool {
	if i+1 >= len(toks) {
		return false
	}
	for _, k := range kinds {
		if toks[i+1].kind == k {
			return true
		}
	}
	return false
}

// endsValue reports whether toks[i] can close an expression, so that an
// identifier after it is an alias.
func endsValue(toks []token, i int, skip map[int]bool, castType map[int]bool) bool {
	t := toks[i]
	switch t.kind {
	case tokNumber, tokString, tokRParen, tokQuotedIdent:
		return true
	case tokIdent:
		if castType[i] || t.is("end") {
			return true
		}
		return !isReserved(t) && !skip[i]
	}
	return false
}
