package sqlguard

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// mutating words are rejected anywhere outside literals.
var mutating = wordSet(
	"insert", "update", "delete", "drop", "alter", "create", "truncate", "grant", "revoke",
	"merge", "copy", "call", "into", "execute", "exec", "do", "vacuum", "reindex", "cluster",
	"comment", "lock", "listen", "notify", "unlisten", "prepare", "deallocate", "set", "reset",
	"begin", "commit", "rollback", "savepoint", "release", "refresh", "import", "load", "discard",
	"checkpoint", "upsert", "attach", "detach", "pragma",
)

// reserved words never name a column. Date parts and type names are included
// so EXTRACT(year FROM ...) and ::numeric pass.
var reserved = wordSet(
	"select", "from", "where", "and", "or", "not", "in", "is", "null", "like", "ilike", "between",
	"as", "on", "join", "left", "right", "inner", "outer", "full", "cross", "natural", "using",
	"lateral", "group", "by", "order", "having", "limit", "offset", "asc", "desc", "nulls",
	"first", "last", "distinct", "case", "when", "then", "else", "end", "with", "recursive",
	"union", "intersect", "except", "all", "any", "some", "exists", "true", "false", "unknown",
	"cast", "interval", "fetch", "next", "row", "rows", "only", "ties", "over", "partition",
	"filter", "within", "window", "range", "preceding", "following", "unbounded", "current",
	"similar", "to", "escape", "collate", "at", "time", "zone", "symmetric", "asymmetric",
	"both", "leading", "trailing", "for", "array", "overlaps", "isnull", "notnull",
	"year", "month", "week", "day", "hour", "minute", "second", "epoch", "dow", "doy",
	"quarter", "decade", "century", "millennium", "microseconds", "milliseconds",
	"current_date", "current_time", "current_timestamp", "localtime", "localtimestamp",
	"date", "timestamp", "timestamptz", "varchar", "char", "character", "varying", "text",
	"numeric", "decimal", "integer", "int", "int4", "int8", "bigint", "smallint", "real",
	"double", "precision", "float", "float8", "boolean", "bool", "json", "jsonb", "uuid",
)
