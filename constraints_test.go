package main

import (
	"strings"
	"testing"
)

func constraintSchema() *Schema {
	return &Schema{Tables: []Table{
		{
			Name: "users",
			Indexes: []Index{
				{Name: "idx_users_email", Table: "users", Columns: []string{"email"}, Unique: true},
			},
		},
		{
			Name: "posts",
			Indexes: []Index{
				{Name: "idx_posts_created", Table: "posts", Columns: []string{"created_at"}},
				{Name: "idx_posts_partial", Table: "posts", Columns: []string{"state"}, Partial: true},
			},
			ForeignKeys: []ForeignKey{
				{Name: "fk_posts_0", Table: "posts", Columns: []string{"user_id"},
					RefTable: "users", RefColumns: []string{"id"},
					UpdateRule: "NO ACTION", DeleteRule: "CASCADE"},
			},
		},
	}}
}

func TestConstraintStatements(t *testing.T) {
	stmts := constraintStatements(constraintSchema(), testConfig(), nil)

	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3 (partial index skipped)", len(stmts))
	}

	// All indexes come before any foreign key.
	lastIndex, firstFK := -1, len(stmts)
	for i, s := range stmts {
		switch s.Kind {
		case "index":
			lastIndex = i
		case "foreign key":
			if i < firstFK {
				firstFK = i
			}
		}
	}
	if lastIndex > firstFK {
		t.Error("indexes must all precede foreign keys")
	}

	if !strings.Contains(stmts[0].SQL, "CREATE UNIQUE INDEX `idx_users_email` ON `users` (`email`)") {
		t.Errorf("unique index wrong: %s", stmts[0].SQL)
	}
	fk := stmts[len(stmts)-1]
	wantFK := "ALTER TABLE `posts` ADD CONSTRAINT `fk_posts_0` FOREIGN KEY (`user_id`) REFERENCES `users` (`id`) ON UPDATE NO ACTION ON DELETE CASCADE"
	if fk.SQL != wantFK {
		t.Errorf("foreign key wrong:\ngot  %s\nwant %s", fk.SQL, wantFK)
	}
}

func TestConstraintStatementsSkipsFailedTables(t *testing.T) {
	skip := map[string]bool{"users": true}
	stmts := constraintStatements(constraintSchema(), testConfig(), skip)

	for _, s := range stmts {
		if s.Table == "users" {
			t.Errorf("failed table should emit no constraints: %s", s.SQL)
		}
		if s.Kind == "foreign key" {
			t.Errorf("foreign key into a failed table should be skipped: %s", s.SQL)
		}
	}
}

func TestConstraintStatementsHonorsToggles(t *testing.T) {
	cfg := testConfig()
	cfg.CreateIndexes = false
	cfg.CreateForeignKeys = false

	if stmts := constraintStatements(constraintSchema(), cfg, nil); len(stmts) != 0 {
		t.Errorf("disabled toggles should produce no statements, got %d", len(stmts))
	}
}

func TestConstraintStatementsSkipsUnknownRefTable(t *testing.T) {
	schema := &Schema{Tables: []Table{
		{
			Name: "posts",
			ForeignKeys: []ForeignKey{
				{Name: "fk_posts_0", Columns: []string{"user_id"},
					RefTable: "users", RefColumns: []string{"id"},
					UpdateRule: "NO ACTION", DeleteRule: "NO ACTION"},
			},
		},
	}}

	if stmts := constraintStatements(schema, testConfig(), nil); len(stmts) != 0 {
		t.Errorf("foreign key to an unmigrated table should be skipped, got %d statements", len(stmts))
	}
}
