package main

import (
	"fmt"
	"log"
	"strings"
)

// createTableStatements renders the phase-1 DDL: one CREATE TABLE per table
// with columns and primary key only, in introspection order. Indexes and
// foreign keys are deferred to constraintStatements.
func createTableStatements(schema *Schema, cfg *MigrationConfig) []string {
	stmts := make([]string, 0, len(schema.Tables))
	for i := range schema.Tables {
		stmts = append(stmts, generateCreateTable(&schema.Tables[i], cfg))
	}
	return stmts
}

func generateCreateTable(t *Table, cfg *MigrationConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", mysqlIdent(t.Name))

	for i := range t.Columns {
		col := &t.Columns[i]
		fmt.Fprintf(&b, "  %s %s", mysqlIdent(col.Name), col.TargetType)

		if !col.Nullable || col.AutoIncrement {
			b.WriteString(" NOT NULL")
		}
		if clause, ok := mapDefaultClause(t.Name, col); ok {
			b.WriteString(" DEFAULT " + clause)
		}
		if col.AutoIncrement {
			b.WriteString(" AUTO_INCREMENT")
		}

		if i < len(t.Columns)-1 || len(t.PKColumns) > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}

	if len(t.PKColumns) > 0 {
		fmt.Fprintf(&b, "  PRIMARY KEY (%s)\n", mysqlIdentList(t.PKColumns))
	}

	fmt.Fprintf(&b, ") ENGINE=InnoDB DEFAULT CHARSET=%s COLLATE=%s", cfg.Target.Charset, cfg.Target.Collation)
	return b.String()
}

// mapDefaultClause converts a SQLite default expression into a MySQL
// DEFAULT clause value. Expression defaults and defaults on TEXT/BLOB
// columns are skipped with a warning; MySQL cannot carry either.
func mapDefaultClause(table string, col *Column) (string, bool) {
	if col.Default == nil || col.AutoIncrement {
		return "", false
	}

	raw := strings.TrimSpace(*col.Default)
	upper := strings.ToUpper(raw)

	if upper == "NULL" || upper == "'NULL'" {
		if col.Nullable {
			return "NULL", true
		}
		return "", false
	}

	if upper == "CURRENT_TIMESTAMP" || upper == "'CURRENT_TIMESTAMP'" ||
		strings.Contains(strings.ReplaceAll(upper, `"`, "'"), "DATETIME('NOW')") {
		if familyOf(col.TargetType) != famDatetime {
			log.Printf("    WARN: skipping CURRENT_TIMESTAMP default on non-datetime column %s.%s (%s)",
				table, col.Name, col.TargetType)
			return "", false
		}
		return "CURRENT_TIMESTAMP", true
	}

	switch upper {
	case "TRUE":
		return "1", true
	case "FALSE":
		return "0", true
	}

	if defaultUnsupportedForType(col.TargetType) {
		log.Printf("    WARN: skipping default %q for %s.%s; %s columns cannot carry defaults",
			raw, table, col.Name, col.TargetType)
		return "", false
	}

	if isNumericLiteral(raw) {
		return raw, true
	}

	// Quoted string literal: re-escape for the target.
	if len(raw) >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[len(raw)-1] == raw[0] {
		inner := raw[1 : len(raw)-1]
		if raw[0] == '\'' {
			inner = strings.ReplaceAll(inner, "''", "'")
		}
		return "'" + strings.ReplaceAll(strings.ReplaceAll(inner, `\`, `\\`), "'", "''") + "'", true
	}

	log.Printf("    WARN: skipping expression default %q for %s.%s", raw, table, col.Name)
	return "", false
}

// defaultUnsupportedForType reports types MySQL refuses literal defaults on.
func defaultUnsupportedForType(targetType string) bool {
	switch strings.ToUpper(targetType) {
	case "TEXT", "LONGTEXT", "BLOB", "LONGBLOB":
		return true
	}
	return false
}

func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	hasDot := false
	start := 0
	if s[0] == '-' || s[0] == '+' {
		start = 1
	}
	if start >= len(s) {
		return false
	}
	for i := start; i < len(s); i++ {
		if s[i] == '.' {
			if hasDot {
				return false
			}
			hasDot = true
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
