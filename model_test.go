package main

import (
	"reflect"
	"testing"
)

func tableNames(tables []Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

func TestSortTablesByDependency(t *testing.T) {
	tables := []Table{
		{Name: "comments", ForeignKeys: []ForeignKey{
			{RefTable: "posts"}, {RefTable: "users"},
		}},
		{Name: "posts", ForeignKeys: []ForeignKey{{RefTable: "users"}}},
		{Name: "users"},
		{Name: "tags"},
	}

	ordered, cyclic := sortTablesByDependency(tables)
	if len(cyclic) != 0 {
		t.Fatalf("unexpected cycle: %v", cyclic)
	}

	got := tableNames(ordered)
	want := []string{"users", "posts", "comments", "tags"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSortTablesByDependencyKeepsSourceOrder(t *testing.T) {
	tables := []Table{{Name: "c"}, {Name: "a"}, {Name: "b"}}

	ordered, _ := sortTablesByDependency(tables)
	got := tableNames(ordered)
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("independent tables should keep source order, got %v", got)
	}
}

func TestSortTablesByDependencySelfReference(t *testing.T) {
	tables := []Table{
		{Name: "categories", ForeignKeys: []ForeignKey{{RefTable: "categories"}}},
	}

	ordered, cyclic := sortTablesByDependency(tables)
	if len(cyclic) != 0 {
		t.Errorf("self-reference must not count as a cycle: %v", cyclic)
	}
	if len(ordered) != 1 || ordered[0].Name != "categories" {
		t.Errorf("ordered = %v", tableNames(ordered))
	}
}

func TestSortTablesByDependencyCycle(t *testing.T) {
	tables := []Table{
		{Name: "standalone"},
		{Name: "employees", ForeignKeys: []ForeignKey{{RefTable: "departments"}}},
		{Name: "departments", ForeignKeys: []ForeignKey{{RefTable: "employees"}}},
	}

	ordered, cyclic := sortTablesByDependency(tables)
	if !reflect.DeepEqual(cyclic, []string{"employees", "departments"}) {
		t.Errorf("cyclic = %v", cyclic)
	}
	// Every table still appears exactly once.
	got := tableNames(ordered)
	want := []string{"standalone", "employees", "departments"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSortTablesByDependencyUnknownParent(t *testing.T) {
	tables := []Table{
		{Name: "orphans", ForeignKeys: []ForeignKey{{RefTable: "excluded_parent"}}},
	}

	ordered, cyclic := sortTablesByDependency(tables)
	if len(cyclic) != 0 || len(ordered) != 1 {
		t.Errorf("reference to a filtered-out table must not block ordering: ordered=%v cyclic=%v",
			tableNames(ordered), cyclic)
	}
}

func TestTableColumnLookup(t *testing.T) {
	table := Table{
		Name: "users",
		Columns: []Column{
			{Name: "id"},
			{Name: "email"},
		},
	}

	if col := table.Column("email"); col == nil || col.Name != "email" {
		t.Errorf("Column(email) = %v", col)
	}
	if col := table.Column("missing"); col != nil {
		t.Errorf("Column(missing) = %v, want nil", col)
	}
	if got := table.ColumnNames(); !reflect.DeepEqual(got, []string{"id", "email"}) {
		t.Errorf("ColumnNames() = %v", got)
	}
}
