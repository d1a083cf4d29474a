package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedBlock   = regexp.MustCompile("(?s)```([a-zA-Z]*)\\s*(.+?)\\s*```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	bareKey       = regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`)
	statementHead = regexp.MustCompile(`(?i)\bselect\b|\bwith\s+(recursive\s+)?"?\w+"?\s+as\s*\(`)
	statementVerb = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|merge|copy|vacuum|reindex)\b`)
)

// ParseModelJSON extracts and parses a JSON object from model output that may be:
// - Pure JSON
// - JSON wrapped in a markdown fence (```json ... ```)
// - JSON with surrounding text
// - JSON with trailing commas or unquoted keys
func ParseModelJSON(input string, target interface{}) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("empty input")
	}

	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	candidates := make([]string, 0, 3)
	if body, lang := fencedContent(input); body != "" && (lang == "json" || strings.HasPrefix(body, "{")) {
		candidates = append(candidates, body)
	}
	if start := strings.Index(input, "{"); start >= 0 {
		if obj := extractBalanced(input[start:], '{', '}'); obj != "" {
			candidates = append(candidates, obj)
		}
	}

	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), target); err == nil {
			return nil
		}
		if err := json.Unmarshal([]byte(repairJSON(c)), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", Truncate(input, 100))
}

// ExtractSQL pulls a single SQL statement out of raw model output. It accepts
// a fenced block, a JSON object with a "sql" or "query" key, or prose followed
// by a SELECT/WITH statement running to the end of the text. Only empty
// output is an error.
func ExtractSQL(raw string) (string, error) {
	text := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if text == "" {
		return "", fmt.Errorf("empty model output")
	}

	if body, lang := fencedContent(text); body != "" {
		if lang == "json" || strings.HasPrefix(body, "{") {
			if sql := sqlFromJSON(body); sql != "" {
				return sql, nil
			}
		}
		text = body
	}

	if strings.HasPrefix(text, "{") {
		if sql := sqlFromJSON(text); sql != "" {
			return sql, nil
		}
	}

	// Only prose is cut off before the SELECT/WITH head. Anything that may
	// be SQL, or no head at all, leaves the text whole so that the validator
	// sees every statement.
	sql := text
	if loc := statementHead.FindStringIndex(text); loc != nil && isProse(text[:loc[0]]) {
		sql = strings.TrimSpace(text[loc[0]:])
	}
	sql = strings.TrimSpace(strings.TrimSuffix(sql, "```"))
	return sql, nil
}

// isProse reports whether a lead-in carries no statement separator and no
// data-changing verb.
func isProse(s string) bool {
	return !strings.Contains(s, ";") && !statementVerb.MatchString(s)
}

func sqlFromJSON(s string) string {
	var payload struct {
		SQL   string `json:"sql"`
		Query string `json:"query"`
	}
	if err := ParseModelJSON(s, &payload); err != nil {
		return ""
	}
	if payload.SQL != "" {
		return strings.TrimSpace(payload.SQL)
	}
	return strings.TrimSpace(payload.Query)
}

// fencedContent returns the body and language tag of the first markdown fence.
func fencedContent(input string) (string, string) {
	m := fencedBlock.FindStringSubmatch(input)
	if len(m) < 3 {
		return "", ""
	}
	return strings.TrimSpace(m[2]), strings.ToLower(m[1])
}

// extractBalanced returns the first balanced open...close span, skipping
// brackets inside JSON strings.
func extractBalanced(input string, open, close rune) string {
	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}
		if ch == '\\' {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}

func repairJSON(input string) string {
	s := strings.TrimSpace(input)
	s = trailingComma.ReplaceAllString(s, "$1")
	s = bareKey.ReplaceAllString(s, `$1"$2"$3`)
	return s
}

// Truncate shortens s to at most maxLen bytes, marking the cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
