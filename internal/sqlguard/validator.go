package sqlguard

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/NunoFAntunes/realtor-buddy/internal/utils"
)

var tautology = regexp.MustCompile(`\bor\s+('[^']*'|\d+)\s*=\s*('[^']*'|\d+)`)

// Validator enforces Rules on generated SQL. It holds no mutable state and
// is safe for concurrent use.
type Validator struct {
	rules Rules
}

func NewValidator(rules Rules) *Validator {
	return &Validator{rules: rules}
}

// MaxRows is the row cap applied to every statement.
func (v *Validator) MaxRows() int {
	return v.rules.MaxRows
}

// Validate extracts SQL from raw model output and returns the statement to
// run, with its row limit enforced. Checks run in a fixed order and the
// first failure is returned.
func (v *Validator) Validate(text string) (string, error) {
	return v.ValidateWithLimit(text, v.rules.MaxRows)
}

// ValidateWithLimit is Validate with a tighter row cap. Caps outside
// 1..MaxRows fall back to MaxRows.
func (v *Validator) ValidateWithLimit(text string, rowCap int) (string, error) {
	if rowCap <= 0 || rowCap > v.rules.MaxRows {
		rowCap = v.rules.MaxRows
	}
	raw, err := utils.ExtractSQL(text)
	if err != nil {
		return "", newError(CodeEmpty, "%v", err)
	}

	toks, err := tokenize(raw)
	if err != nil {
		return "", err
	}

	stmt, toks, err := singleStatement(raw, toks)
	if err != nil {
		return "", err
	}
	if err := readOnly(toks); err != nil {
		return "", err
	}
	a := collect(toks)
	if err := v.checkReferences(a); err != nil {
		return "", err
	}
	if err := v.checkForbidden(stmt); err != nil {
		return "", err
	}
	if err := v.checkFunctions(a); err != nil {
		return "", err
	}
	return enforceLimit(stmt, toks, rowCap)
}

// singleStatement strips a trailing semicolon and rejects anything after it.
func singleStatement(sql string, toks []token) (string, []token, error) {
	for i, t := range toks {
		if t.kind != tokSemicolon {
			continue
		}
		if i != len(toks)-1 {
			return "", nil, newError(CodeMultipleStatement, "text after ';' at offset %d", t.start)
		}
		sql = strings.TrimSpace(sql[:t.start])
		toks = toks[:i]
		break
	}
	if len(toks) == 0 {
		return "", nil, newError(CodeEmpty, "no statement")
	}
	return strings.TrimSpace(sql), toks, nil
}

func readOnly(toks []token) error {
	if first := toks[0]; !first.is("select") && !first.is("with") {
		return newError(CodeNotReadOnly, "statement starts with %q", first.text)
	}
	for _, t := range toks {
		if t.kind != tokIdent {
			continue
		}
		if _, bad := mutating[t.lower]; bad {
			return newError(CodeNotReadOnly, "keyword %q is not allowed", t.lower)
		}
	}
	return nil
}

func (v *Validator) checkReferences(a *analysis) error {
	referenced := make(map[string]bool)
	for _, ref := range a.tables {
		switch {
		case ref.call:
			return newError(CodeUnknownTable, "table function %q", ref.name)
		case ref.schema != "" && ref.schema != "public":
			return newError(CodeUnknownTable, "%s.%s", ref.schema, ref.name)
		case ref.schema == "" && a.ctes[ref.name]:
		default:
			if _, ok := v.rules.Tables[ref.name]; !ok {
				return newError(CodeUnknownTable, "%q", ref.name)
			}
			referenced[ref.name] = true
		}
	}

	allowed := make(map[string]struct{})
	for table, cols := range v.rules.Tables {
		if len(referenced) > 0 && !referenced[table] {
			continue
		}
		for c := range cols {
			allowed[c] = struct{}{}
		}
	}

	toks := a.toks
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if a.skip[i] || !identLike(t) || isReserved(t) {
			continue
		}
		name := t.name()

		if i+1 < len(toks) && toks[i+1].kind == tokDot {
			target, ok := a.aliases[name]
			if !ok {
				return newError(CodeUnknownTable, "qualifier %q", name)
			}
			if i+2 < len(toks) && identLike(toks[i+2]) {
				col := toks[i+2].name()
				if cols, real := v.rules.Tables[target]; real && !a.ctes[target] {
					if _, ok := cols[col]; !ok {
						return newError(CodeUnknownColumn, "%s.%s", name, col)
					}
				}
			}
			i += 2
			continue
		}

		if _, ok := allowed[name]; ok || a.outputs[name] {
			continue
		}
		if _, ok := a.aliases[name]; ok {
			continue
		}
		return newError(CodeUnknownColumn, "%q", name)
	}
	return nil
}

func (v *Validator) checkForbidden(stmt string) error {
	lower := strings.Join(strings.Fields(strings.ToLower(stmt)), " ")
	for _, p := range v.rules.Forbidden {
		if strings.Contains(lower, p) {
			return newError(CodeForbiddenPattern, "%q", p)
		}
	}
	for _, m := range tautology.FindAllStringSubmatch(lower, -1) {
		if m[1] == m[2] {
			return newError(CodeForbiddenPattern, "tautology %q", m[0])
		}
	}
	if strings.Contains(lower, " or true") {
		return newError(CodeForbiddenPattern, "tautology \"or true\"")
	}
	return nil
}

func (v *Validator) checkFunctions(a *analysis) error {
	for _, i := range a.calls {
		name := a.toks[i].name()
		if _, ok := v.rules.Functions[name]; !ok {
			return newError(CodeForbiddenFunction, "%q", name)
		}
	}
	return nil
}

// enforceLimit appends or clamps the top-level row limit.
func enforceLimit(stmt string, toks []token, maxRows int) (string, error) {
	limitAt, fetchAt := -1, -1
	for i, t := range toks {
		if t.depth != 0 {
			continue
		}
		switch {
		case t.is("limit"):
			limitAt = i
		case t.is("fetch"):
			fetchAt = i
		}
	}

	if limitAt < 0 && fetchAt < 0 {
		return stmt + " LIMIT " + strconv.Itoa(maxRows), nil
	}
	if limitAt >= 0 && fetchAt >= 0 {
		return "", newError(CodeInvalidLimit, "both LIMIT and FETCH")
	}

	if limitAt >= 0 {
		if limitAt+1 >= len(toks) {
			return "", newError(CodeInvalidLimit, "LIMIT without a value")
		}
		n := toks[limitAt+1]
		switch {
		case n.is("all"):
			return replaceToken(stmt, n, maxRows), nil
		case n.kind == tokNumber:
			if limitAt+2 < len(toks) && toks[limitAt+2].kind == tokOperator {
				return "", newError(CodeInvalidLimit, "LIMIT must be a literal")
			}
			return clamp(stmt, n, maxRows, "LIMIT")
		default:
			return "", newError(CodeInvalidLimit, "LIMIT must be a literal, got %q", n.text)
		}
	}

	// FETCH FIRST|NEXT [n] ROW|ROWS ONLY; a missing count means one row.
	i := fetchAt + 1
	if i < len(toks) && (toks[i].is("first") || toks[i].is("next")) {
		i++
	}
	if i >= len(toks) || toks[i].is("row") || toks[i].is("rows") {
		return stmt, nil
	}
	if toks[i].kind != tokNumber {
		return "", newError(CodeInvalidLimit, "FETCH must use a literal, got %q", toks[i].text)
	}
	return clamp(stmt, toks[i], maxRows, "FETCH")
}

func clamp(stmt string, n token, maxRows int, clause string) (string, error) {
	val, err := strconv.Atoi(n.text)
	if errors.Is(err, strconv.ErrRange) {
		// All digits but wider than int, so certainly above the cap.
		return replaceToken(stmt, n, maxRows), nil
	}
	if err != nil {
		return "", newError(CodeInvalidLimit, "%s %q", clause, n.text)
	}
	if val > maxRows {
		return replaceToken(stmt, n, maxRows), nil
	}
	return stmt, nil
}

func replaceToken(stmt string, t token, n int) string {
	return stmt[:t.start] + strconv.Itoa(n) + stmt[t.end:]
}
