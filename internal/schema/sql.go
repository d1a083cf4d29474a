package schema

import "strings"

// QuoteLiteral renders s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ContainsPattern renders s as a '%s%' pattern for ILIKE. LIKE wildcards in
// s are dropped rather than escaped since backslashes are rejected by the
// SQL validator.
func ContainsPattern(s string) string {
	s = strings.NewReplacer("%", "", "_", " ").Replace(s)
	return QuoteLiteral("%" + s + "%")
}
