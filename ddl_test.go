package main

import (
	"strings"
	"testing"
)

func testConfig() *MigrationConfig {
	return &MigrationConfig{
		BatchSize:         defaultBatchSize,
		OnValueError:      "abort_table",
		OnTableExists:     "error",
		CreateIndexes:     true,
		CreateForeignKeys: true,
		ScanValueStats:    true,
		Target: TargetConfig{
			DSN:       "root:root@tcp(127.0.0.1:3306)/testdb",
			Charset:   "utf8mb4",
			Collation: "utf8mb4_unicode_ci",
		},
	}
}

func TestGenerateCreateTable(t *testing.T) {
	table := Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", TargetType: "BIGINT", AutoIncrement: true, PrimaryKey: true},
			{Name: "email", TargetType: "VARCHAR(191)", Unique: true},
			{Name: "bio", TargetType: "TEXT", Nullable: true},
			{Name: "created_at", TargetType: "DATETIME"},
		},
		PKColumns: []string{"id"},
	}

	ddl := generateCreateTable(&table, testConfig())

	if !strings.HasPrefix(ddl, "CREATE TABLE `users` (") {
		t.Fatalf("expected CREATE TABLE prefix, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, "`id` BIGINT NOT NULL AUTO_INCREMENT") {
		t.Errorf("autoincrement column wrong, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, "`email` VARCHAR(191) NOT NULL") {
		t.Errorf("non-nullable column wrong, got:\n%s", ddl)
	}
	if strings.Contains(ddl, "`bio` TEXT NOT NULL") {
		t.Error("nullable column should not carry NOT NULL")
	}
	if !strings.Contains(ddl, "PRIMARY KEY (`id`)") {
		t.Errorf("primary key missing, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci") {
		t.Errorf("table options missing, got:\n%s", ddl)
	}

	// Phase 1 carries no secondary indexes or foreign keys.
	if strings.Contains(ddl, "INDEX") || strings.Contains(ddl, "FOREIGN KEY") || strings.Contains(ddl, "UNIQUE") {
		t.Errorf("bare DDL must not contain index or constraint clauses, got:\n%s", ddl)
	}
}

func TestGenerateCreateTableCompositeKey(t *testing.T) {
	table := Table{
		Name: "order_items",
		Columns: []Column{
			{Name: "order_id", TargetType: "INT"},
			{Name: "line", TargetType: "INT"},
		},
		PKColumns: []string{"order_id", "line"},
	}

	ddl := generateCreateTable(&table, testConfig())
	if !strings.Contains(ddl, "PRIMARY KEY (`order_id`, `line`)") {
		t.Errorf("composite key wrong, got:\n%s", ddl)
	}
}

func TestGenerateCreateTableNoPrimaryKey(t *testing.T) {
	table := Table{
		Name: "log_lines",
		Columns: []Column{
			{Name: "line", TargetType: "TEXT", Nullable: true},
		},
	}

	ddl := generateCreateTable(&table, testConfig())
	if strings.Contains(ddl, "PRIMARY KEY") {
		t.Errorf("keyless table must not emit PRIMARY KEY, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, "`line` TEXT\n") {
		t.Errorf("trailing comma handling wrong, got:\n%s", ddl)
	}
}

func TestMapDefaultClause(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name     string
		col      Column
		want     string
		wantSkip bool
	}{
		{"no default", Column{TargetType: "INT"}, "", true},
		{"autoincrement ignored", Column{TargetType: "BIGINT", AutoIncrement: true, Default: str("0")}, "", true},
		{"integer literal", Column{TargetType: "INT", Default: str("42")}, "42", false},
		{"negative literal", Column{TargetType: "INT", Default: str("-1")}, "-1", false},
		{"float literal", Column{TargetType: "DOUBLE", Default: str("0.5")}, "0.5", false},
		{"true", Column{TargetType: "TINYINT(1)", Default: str("TRUE")}, "1", false},
		{"false", Column{TargetType: "TINYINT(1)", Default: str("FALSE")}, "0", false},
		{"null on nullable", Column{TargetType: "INT", Nullable: true, Default: str("NULL")}, "NULL", false},
		{"null on not-null", Column{TargetType: "INT", Default: str("NULL")}, "", true},
		{"current_timestamp", Column{TargetType: "DATETIME", Default: str("CURRENT_TIMESTAMP")}, "CURRENT_TIMESTAMP", false},
		{"datetime now", Column{TargetType: "DATETIME", Default: str("datetime('now')")}, "CURRENT_TIMESTAMP", false},
		{"current_timestamp on text", Column{TargetType: "TEXT", Default: str("CURRENT_TIMESTAMP")}, "", true},
		{"string literal", Column{TargetType: "VARCHAR(255)", Default: str("'pending'")}, "'pending'", false},
		{"string with quote", Column{TargetType: "VARCHAR(255)", Default: str("'it''s'")}, "'it''s'", false},
		{"text target skipped", Column{TargetType: "TEXT", Default: str("'x'")}, "", true},
		{"blob target skipped", Column{TargetType: "BLOB", Default: str("'x'")}, "", true},
		{"expression skipped", Column{TargetType: "INT", Default: str("(abs(random()))")}, "", true},
	}
	for _, tt := range tests {
		got, ok := mapDefaultClause("t", &tt.col)
		if tt.wantSkip {
			if ok {
				t.Errorf("%s: expected skip, got %q", tt.name, got)
			}
			continue
		}
		if !ok {
			t.Errorf("%s: unexpected skip", tt.name)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsNumericLiteral(t *testing.T) {
	valid := []string{"0", "42", "-1", "+7", "3.14", "-0.5"}
	invalid := []string{"", "-", "1.2.3", "abc", "1e5", "'1'"}

	for _, s := range valid {
		if !isNumericLiteral(s) {
			t.Errorf("isNumericLiteral(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if isNumericLiteral(s) {
			t.Errorf("isNumericLiteral(%q) = true, want false", s)
		}
	}
}
