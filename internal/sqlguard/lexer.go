package sqlguard

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokQuotedIdent
	tokString
	tokNumber
	tokOperator
	tokComma
	tokDot
	tokLParen
	tokRParen
	tokSemicolon
	tokCast // ::
)

type token struct {
	kind  tokenKind
	text  string
	lower string
	start int // byte offsets into the statement
	end   int
	depth int // parenthesis depth at the token
}

func (t token) is(word string) bool {
	return t.kind == tokIdent && t.lower == word
}

// tokenize splits a statement into tokens. Comments are skipped; their
// markers are rejected later by the forbidden-pattern check.
func tokenize(sql string) ([]token, error) {
	var toks []token
	depth := 0
	i := 0

	emit := func(kind tokenKind, start, end int) {
		text := sql[start:end]
		toks = append(toks, token{kind: kind, text: text, lower: strings.ToLower(text), start: start, end: end, depth: depth})
	}

	for i < len(sql) {
		r, size := utf8.DecodeRuneInString(sql[i:])

		switch {
		case unicode.IsSpace(r):
			i += size

		case r == '-' && strings.HasPrefix(sql[i:], "--"):
			if nl := strings.IndexByte(sql[i:], '\n'); nl >= 0 {
				i += nl + 1
			} else {
				i = len(sql)
			}

		case r == '/' && strings.HasPrefix(sql[i:], "/*"):
			if end := strings.Index(sql[i+2:], "*/"); end >= 0 {
				i += end + 4
			} else {
				i = len(sql)
			}

		case r == '\'':
			end, ok := scanQuoted(sql, i, '\'')
			if !ok {
				return nil, newError(CodeMalformed, "unterminated string literal")
			}
			emit(tokString, i, end)
			i = end

		case r == '"':
			end, ok := scanQuoted(sql, i, '"')
			if !ok {
				return nil, newError(CodeMalformed, "unterminated quoted identifier")
			}
			start := i
			i = end
			toks = append(toks, token{
				kind:  tokQuotedIdent,
				text:  strings.ReplaceAll(sql[start+1:end-1], `""`, `"`),
				lower: strings.ReplaceAll(sql[start+1:end-1], `""`, `"`),
				start: start, end: end, depth: depth,
			})

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(sql) && isDigit(sql[i+1])):
			end := scanNumber(sql, i)
			emit(tokNumber, i, end)
			i = end

		case unicode.IsLetter(r) || r == '_':
			end := i + size
			for end < len(sql) {
				nr, ns := utf8.DecodeRuneInString(sql[end:])
				if !unicode.IsLetter(nr) && !unicode.IsDigit(nr) && nr != '_' && nr != '$' {
					break
				}
				end += ns
			}
			emit(tokIdent, i, end)
			i = end

		case r == ':' && strings.HasPrefix(sql[i:], "::"):
			emit(tokCast, i, i+2)
			i += 2

		case r == '(':
			emit(tokLParen, i, i+1)
			depth++
			i++

		case r == ')':
			depth--
			if depth < 0 {
				return nil, newError(CodeMalformed, "unbalanced parentheses")
			}
			emit(tokRParen, i, i+1)
			i++

		case r == ',':
			emit(tokComma, i, i+1)
			i++

		case r == '.':
			emit(tokDot, i, i+1)
			i++

		case r == ';':
			emit(tokSemicolon, i, i+1)
			i++

		default:
			end := i + size
			for end < len(sql) && strings.IndexByte("<>=!~*+-/%|&^#@?", sql[end]) >= 0 && isOperatorByte(sql[i]) {
				if strings.HasPrefix(sql[end:], "--") || strings.HasPrefix(sql[end:], "/*") {
					break
				}
				end++
			}
			emit(tokOperator, i, end)
			i = end
		}
	}

	if depth != 0 {
		return nil, newError(CodeMalformed, "unbalanced parentheses")
	}
	return toks, nil
}

// scanQuoted returns the offset after the closing quote. A doubled quote is
// an escaped quote.
func scanQuoted(s string, start int, quote byte) (int, bool) {
	i := start + 1
	for i < len(s) {
		if s[i] == quote {
			if i+1 < len(s) && s[i+1] == quote {
				i += 2
				continue
			}
			return i + 1, true
		}
		i++
	}
	return 0, false
}

func scanNumber(s string, start int) int {
	i := start
	seenDot := false
	for i < len(s) {
		c := s[i]
		switch {
		case isDigit(c):
		case c == '.' && !seenDot && !strings.HasPrefix(s[i:], ".."):
			seenDot = true
		case (c == 'e' || c == 'E') && i+1 < len(s) && (isDigit(s[i+1]) || s[i+1] == '-' || s[i+1] == '+'):
			i++
		default:
			return i
		}
		i++
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isOperatorByte(c byte) bool {
	return strings.IndexByte("<>=!~*+-/%|&^#@?", c) >= 0
}
