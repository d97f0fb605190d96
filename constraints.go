package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// constraintStmt is a single deferred DDL statement with enough identity to
// report its failure individually.
type constraintStmt struct {
	Table string
	Name  string
	Kind  string // "index" or "foreign key"
	SQL   string
}

// ConstraintResult records the outcome of one deferred constraint.
type ConstraintResult struct {
	Table string
	Name  string
	Kind  string
	Err   error
}

// constraintStatements renders the phase-2 DDL: secondary indexes first,
// then foreign keys, all tables' indexes before any foreign key. Tables in
// skip are omitted entirely, as are foreign keys referencing them.
func constraintStatements(schema *Schema, cfg *MigrationConfig, skip map[string]bool) []constraintStmt {
	var stmts []constraintStmt

	if cfg.CreateIndexes {
		for i := range schema.Tables {
			t := &schema.Tables[i]
			if skip[t.Name] {
				continue
			}
			for _, idx := range t.Indexes {
				if reason, unsupported := indexUnsupportedReason(idx); unsupported {
					log.Printf("    WARN: skipping index %s on %s: %s", idx.Name, t.Name, reason)
					continue
				}
				unique := ""
				if idx.Unique {
					unique = "UNIQUE "
				}
				stmts = append(stmts, constraintStmt{
					Table: t.Name,
					Name:  idx.Name,
					Kind:  "index",
					SQL: fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
						unique, mysqlIdent(idx.Name), mysqlIdent(t.Name), mysqlIdentList(idx.Columns)),
				})
			}
		}
	}

	if cfg.CreateForeignKeys {
		for i := range schema.Tables {
			t := &schema.Tables[i]
			if skip[t.Name] {
				continue
			}
			for _, fk := range t.ForeignKeys {
				if schema.Table(fk.RefTable) == nil {
					log.Printf("    WARN: skipping %s on %s: referenced table %s not migrated",
						fk.Name, t.Name, fk.RefTable)
					continue
				}
				if skip[fk.RefTable] {
					log.Printf("    WARN: skipping %s on %s: referenced table %s failed to load",
						fk.Name, t.Name, fk.RefTable)
					continue
				}
				stmts = append(stmts, constraintStmt{
					Table: t.Name,
					Name:  fk.Name,
					Kind:  "foreign key",
					SQL: fmt.Sprintf(
						"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE %s ON DELETE %s",
						mysqlIdent(t.Name), mysqlIdent(fk.Name),
						mysqlIdentList(fk.Columns),
						mysqlIdent(fk.RefTable), mysqlIdentList(fk.RefColumns),
						fk.UpdateRule, fk.DeleteRule,
					),
				})
			}
		}
	}

	return stmts
}

// applyConstraints executes deferred constraints one by one, recording each
// failure instead of halting: rows, not constraints, are the primary value,
// so loaded data is never rolled back over a constraint error.
func applyConstraints(ctx context.Context, conn *sql.Conn, stmts []constraintStmt) []ConstraintResult {
	results := make([]ConstraintResult, 0, len(stmts))
	for _, stmt := range stmts {
		res := ConstraintResult{Table: stmt.Table, Name: stmt.Name, Kind: stmt.Kind}
		if _, err := conn.ExecContext(ctx, stmt.SQL); err != nil {
			res.Err = &ConstraintCreationError{Table: stmt.Table, Constraint: stmt.Name, Kind: stmt.Kind, Err: err}
			log.Printf("    FAIL %s %s on %s: %v", stmt.Kind, stmt.Name, stmt.Table, err)
		}
		results = append(results, res)
	}
	return results
}
