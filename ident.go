package main

import "strings"

// mysqlIdent quotes an identifier for the target. Backticks are always
// applied so reserved words and odd characters never need special-casing.
func mysqlIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// sqliteIdent quotes an identifier for source queries.
func sqliteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// mysqlIdentList joins column names with target quoting.
func mysqlIdentList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = mysqlIdent(n)
	}
	return strings.Join(quoted, ", ")
}
