package main

import (
	"database/sql"
	"fmt"
	"net/url"
	"slices"
	"strings"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// openSource opens the SQLite file read-only. The file is never written;
// halting concurrent writers is an operational precondition, not something
// enforced here.
func openSource(path string) (*sql.DB, error) {
	uri, err := sqliteReadOnlyURI(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func sqliteReadOnlyURI(path string) (string, error) {
	if path == ":memory:" || path == "file::memory:" || strings.Contains(path, "mode=memory") {
		return "", fmt.Errorf("in-memory SQLite databases are not supported")
	}

	if !strings.HasPrefix(path, "file:") {
		return "file:" + path + "?mode=ro", nil
	}

	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse sqlite URI: %w", err)
	}
	q := u.Query()
	q.Set("mode", "ro")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// introspectSchema reads the full catalog of every user table, applying the
// configured include/exclude filters. System tables (sqlite_sequence,
// sqlite_autoindex_* and friends) are always excluded.
func introspectSchema(db *sql.DB, cfg *MigrationConfig) (*Schema, error) {
	names, err := introspectTableNames(db)
	if err != nil {
		return nil, &SchemaReadError{Err: err}
	}

	var tables []Table
	for _, name := range names {
		if !cfg.tableIncluded(name) {
			continue
		}
		t, err := introspectTable(db, name)
		if err != nil {
			return nil, &SchemaReadError{Table: name, Err: err}
		}
		if cfg.ScanValueStats {
			if err := scanColumnStats(db, t); err != nil {
				return nil, &SchemaReadError{Table: name, Err: err}
			}
		}
		tables = append(tables, *t)
	}

	schema := &Schema{Tables: tables}
	resolveImplicitFKTargets(schema)
	return schema, nil
}

func introspectTableNames(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func introspectTable(db *sql.DB, name string) (*Table, error) {
	t := &Table{Name: name}

	createSQL, err := tableCreateSQL(db, name)
	if err != nil {
		return nil, err
	}
	t.WithoutRowid = strings.Contains(strings.ToUpper(createSQL), "WITHOUT ROWID")

	if err := introspectColumns(db, t); err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table has no columns")
	}

	markAutoIncrement(t, createSQL)

	if err := introspectIndexes(db, t); err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}
	if err := introspectForeignKeys(db, t); err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM " + sqliteIdent(name)).Scan(&t.RowCount); err != nil {
		return nil, fmt.Errorf("row count: %w", err)
	}
	return t, nil
}

func tableCreateSQL(db *sql.DB, name string) (string, error) {
	var createSQL sql.NullString
	err := db.QueryRow("SELECT sql FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&createSQL)
	if err != nil {
		return "", fmt.Errorf("create sql: %w", err)
	}
	return createSQL.String, nil
}

func introspectColumns(db *sql.DB, t *Table) error {
	rows, err := db.Query("PRAGMA table_xinfo(" + sqliteIdent(t.Name) + ")")
	if err != nil {
		return err
	}
	defer rows.Close()

	type pkCol struct {
		name string
		pos  int
	}
	var pkCols []pkCol

	for rows.Next() {
		var cid, notnull, pk, hidden int
		var name, declType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &declType, &notnull, &dflt, &pk, &hidden); err != nil {
			return err
		}
		if hidden == 1 {
			continue // internal hidden column, not part of the logical table
		}

		col := Column{
			Name:         name,
			DeclaredType: declType,
			Affinity:     classifyAffinity(declType),
			Nullable:     notnull == 0,
			PrimaryKey:   pk > 0,
			OrdinalPos:   cid + 1,
		}
		if dflt.Valid {
			col.Default = &dflt.String
		}
		// table_xinfo hidden codes: 2 = generated VIRTUAL, 3 = generated STORED
		switch hidden {
		case 2:
			col.Generated = "VIRTUAL"
		case 3:
			col.Generated = "STORED"
		}

		t.Columns = append(t.Columns, col)
		if pk > 0 {
			pkCols = append(pkCols, pkCol{name: name, pos: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	slices.SortFunc(pkCols, func(a, b pkCol) int { return a.pos - b.pos })
	for _, pc := range pkCols {
		t.PKColumns = append(t.PKColumns, pc.name)
	}
	return nil
}

// markAutoIncrement flags the rowid-alias column. A lone INTEGER PRIMARY KEY
// is a rowid alias whether or not AUTOINCREMENT was spelled out, and is
// treated as auto-increment on the target either way.
func markAutoIncrement(t *Table, createSQL string) {
	if t.WithoutRowid || len(t.PKColumns) != 1 {
		return
	}
	col := t.Column(t.PKColumns[0])
	if col == nil {
		return
	}
	if strings.EqualFold(strings.TrimSpace(col.DeclaredType), "integer") {
		col.AutoIncrement = true
	}
	if autoIncrementColumn(createSQL) == col.Name {
		col.AutoIncrement = true
	}
}

// autoIncrementColumn finds the column declared INTEGER PRIMARY KEY
// AUTOINCREMENT in a CREATE TABLE statement, or "".
func autoIncrementColumn(createSQL string) string {
	upper := strings.ToUpper(createSQL)
	idx := strings.Index(upper, "AUTOINCREMENT")
	if idx < 0 {
		return ""
	}
	tokens := strings.Fields(strings.TrimRight(createSQL[:idx], " \t\n\r"))
	for i := len(tokens) - 1; i >= 0; i-- {
		switch strings.ToUpper(tokens[i]) {
		case "INTEGER", "PRIMARY", "KEY":
			continue
		}
		return strings.Trim(tokens[i], ",(\"`[] \n\r\t")
	}
	return ""
}

func introspectIndexes(db *sql.DB, t *Table) error {
	rows, err := db.Query("PRAGMA index_list(" + sqliteIdent(t.Name) + ")")
	if err != nil {
		return err
	}
	defer rows.Close()

	type idxInfo struct {
		name    string
		unique  bool
		partial bool
	}
	var infos []idxInfo

	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return err
		}
		// pk and unique-constraint indexes are implicit: the PK is emitted in
		// phase 1 and single-column UNIQUE is re-derived below, but composite
		// unique constraints ride along as regular unique indexes.
		if origin == "pk" {
			continue
		}
		infos = append(infos, idxInfo{name: name, unique: unique == 1, partial: partial == 1})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, info := range infos {
		idx := Index{
			Name:    info.name,
			Table:   t.Name,
			Unique:  info.unique,
			Partial: info.partial,
		}

		colRows, err := db.Query("PRAGMA index_info(" + sqliteIdent(info.name) + ")")
		if err != nil {
			return err
		}
		for colRows.Next() {
			var seqno, cid int
			var colName sql.NullString
			if err := colRows.Scan(&seqno, &cid, &colName); err != nil {
				colRows.Close()
				return err
			}
			if !colName.Valid {
				idx.HasExpression = true
				continue
			}
			if t.Column(colName.String) == nil {
				colRows.Close()
				return fmt.Errorf("index %s references unknown column %s", info.name, colName.String)
			}
			idx.Columns = append(idx.Columns, colName.String)
		}
		colRows.Close()

		// Single-column unique index narrows the column's target type so it
		// stays indexable under utf8mb4 key-length limits.
		if idx.Unique && len(idx.Columns) == 1 && !idx.HasExpression {
			if col := t.Column(idx.Columns[0]); col != nil {
				col.Unique = true
			}
		}

		t.Indexes = append(t.Indexes, idx)
	}
	return nil
}

func introspectForeignKeys(db *sql.DB, t *Table) error {
	rows, err := db.Query("PRAGMA foreign_key_list(" + sqliteIdent(t.Name) + ")")
	if err != nil {
		return err
	}
	defer rows.Close()

	fkMap := make(map[int]*ForeignKey)
	var fkOrder []int

	for rows.Next() {
		var id, seq int
		var refTable, from, onUpdate, onDelete, match string
		var to sql.NullString // NULL when referencing the parent's implicit PK
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}

		fk, ok := fkMap[id]
		if !ok {
			fk = &ForeignKey{
				Name:       fmt.Sprintf("fk_%s_%d", t.Name, id),
				Table:      t.Name,
				RefTable:   refTable,
				UpdateRule: normalizeFKRule(onUpdate),
				DeleteRule: normalizeFKRule(onDelete),
			}
			fkMap[id] = fk
			fkOrder = append(fkOrder, id)
		}
		if t.Column(from) == nil {
			return fmt.Errorf("foreign key %d references unknown local column %s", id, from)
		}
		fk.Columns = append(fk.Columns, from)
		fk.RefColumns = append(fk.RefColumns, to.String)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range fkOrder {
		t.ForeignKeys = append(t.ForeignKeys, *fkMap[id])
	}
	return nil
}

func normalizeFKRule(rule string) string {
	r := strings.ToUpper(strings.TrimSpace(rule))
	if r == "" {
		return "NO ACTION"
	}
	return r
}

// resolveImplicitFKTargets fills in referenced columns for foreign keys
// declared against a parent table's implicit primary key.
func resolveImplicitFKTargets(schema *Schema) {
	for i := range schema.Tables {
		t := &schema.Tables[i]
		for j := range t.ForeignKeys {
			fk := &t.ForeignKeys[j]
			ref := schema.Table(fk.RefTable)
			if ref == nil {
				continue // dangling reference, reported at constraint emission
			}
			for k, rc := range fk.RefColumns {
				if rc == "" && k < len(ref.PKColumns) {
					fk.RefColumns[k] = ref.PKColumns[k]
				}
			}
		}
	}
}

// scanColumnStats runs the pre-pass that feeds the widening rules: observed
// MIN/MAX for INTEGER columns and max length for TEXT/BLOB. Generated
// virtual columns are scanned too since their values migrate as plain data.
func scanColumnStats(db *sql.DB, t *Table) error {
	for i := range t.Columns {
		col := &t.Columns[i]
		ident := sqliteIdent(col.Name)
		table := sqliteIdent(t.Name)

		switch col.Affinity {
		case AffinityInteger:
			var minV, maxV sql.NullInt64
			q := fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s WHERE typeof(%s) = 'integer'",
				ident, ident, table, ident)
			if err := db.QueryRow(q).Scan(&minV, &maxV); err != nil {
				return fmt.Errorf("stats for %s: %w", col.Name, err)
			}
			if minV.Valid && maxV.Valid {
				col.Stats = &ColumnStats{HasValues: true, MinInt: minV.Int64, MaxInt: maxV.Int64}
			}
		case AffinityText, AffinityBlob:
			var maxLen sql.NullInt64
			q := fmt.Sprintf("SELECT MAX(LENGTH(%s)) FROM %s", ident, table)
			if err := db.QueryRow(q).Scan(&maxLen); err != nil {
				return fmt.Errorf("stats for %s: %w", col.Name, err)
			}
			if maxLen.Valid {
				col.Stats = &ColumnStats{HasValues: true, MaxLen: maxLen.Int64}
			}
		}
	}
	return nil
}
