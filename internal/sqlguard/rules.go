// Package sqlguard checks generated SQL before it reaches the database. A
// statement passes only if it is a single read-only query over allowed
// tables and columns, free of injection patterns, with a bounded row count.
package sqlguard

import (
	"github.com/NunoFAntunes/realtor-buddy/internal/schema"
)

// Rules is the allow list a Validator enforces.
type Rules struct {
	Tables    map[string]map[string]struct{} // table -> allowed columns
	MaxRows   int
	Forbidden []string            // lower-case substrings
	Functions map[string]struct{} // callable functions; any other call is rejected
}

// DefaultForbidden lists substrings that are never allowed, matched against
// the lower-cased statement.
var DefaultForbidden = []string{
	"--", "/*", "*/", "#", "$$", `\`,
	"pg_sleep", "pg_read_file", "pg_read_binary_file", "pg_ls_dir", "pg_stat_file",
	"lo_import", "lo_export", "dblink", "pg_catalog", "information_schema", "pg_shadow",
	"pg_authid", "current_setting", "set_config", "pg_terminate_backend", "pg_cancel_backend",
	"union select", "union all select", "or 1=1", "or '1'='1'",
	"sleep(", "benchmark(", "waitfor delay", "into outfile", "load_file",
}

// DefaultFunctions are the scalar, aggregate and window functions a listings
// query needs. Functions that run SQL from strings or touch the server
// (query_to_xml, lo_get, ...) are left out on purpose.
var DefaultFunctions = wordSet(
	"count", "sum", "min", "max", "avg",
	"lower", "upper", "initcap", "trim", "btrim", "ltrim", "rtrim", "length", "char_length",
	"substring", "substr", "replace", "concat", "concat_ws", "position", "split_part",
	"unaccent", "regexp_replace", "coalesce", "nullif", "greatest", "least",
	"round", "floor", "ceil", "ceiling", "abs", "trunc",
	"extract", "date_part", "date_trunc", "now", "age", "to_char", "to_number",
	"jsonb_array_length", "json_array_length", "jsonb_typeof", "jsonb_array_elements_text",
	"row_number", "rank", "dense_rank", "string_agg",
)

// RulesFromCatalog allows the catalog table with exactly its columns.
func RulesFromCatalog(cat *schema.Catalog, maxRows int) Rules {
	cols := make(map[string]struct{}, len(cat.Fields))
	for _, c := range cat.Columns() {
		cols[c] = struct{}{}
	}
	return Rules{
		Tables:    map[string]map[string]struct{}{cat.Table: cols},
		MaxRows:   maxRows,
		Forbidden: DefaultForbidden,
		Functions: DefaultFunctions,
	}
}
