package main

import "slices"

// Affinity is the SQLite type affinity a column's declared type resolves to.
type Affinity int

const (
	AffinityInteger Affinity = iota
	AffinityText
	AffinityReal
	AffinityBlob
	AffinityNumeric
	AffinityUnknown
)

func (a Affinity) String() string {
	switch a {
	case AffinityInteger:
		return "INTEGER"
	case AffinityText:
		return "TEXT"
	case AffinityReal:
		return "REAL"
	case AffinityBlob:
		return "BLOB"
	case AffinityNumeric:
		return "NUMERIC"
	default:
		return "UNKNOWN"
	}
}

// ColumnStats holds the observed value ranges from the pre-pass scan.
// Only the fields matching the column's affinity are populated.
type ColumnStats struct {
	HasValues bool  // at least one non-NULL value of the expected storage class
	MinInt    int64 // INTEGER affinity only
	MaxInt    int64
	MaxLen    int64 // TEXT/BLOB affinity only
}

// Column represents a single source column plus its resolved target type.
type Column struct {
	Name          string
	DeclaredType  string // raw declared type, e.g. "VARCHAR(64)", may be empty
	Affinity      Affinity
	TargetType    string // MySQL type, assigned by resolveTargetTypes before DDL emission
	Nullable      bool
	Default       *string // raw SQLite default expression, nil if none
	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool   // covered by a single-column unique index
	Generated     string // "", "STORED" or "VIRTUAL"
	Stats         *ColumnStats
	OrdinalPos    int
}

// Index represents a source index (never the implicit primary key).
type Index struct {
	Name          string
	Table         string
	Columns       []string
	Unique        bool
	Partial       bool // has a WHERE clause
	HasExpression bool // expression key-parts, not representable as a column list
}

// ForeignKey represents a declared foreign key constraint.
type ForeignKey struct {
	Name       string
	Table      string
	Columns    []string
	RefTable   string
	RefColumns []string
	UpdateRule string // NO ACTION, CASCADE, SET NULL, ...
	DeleteRule string
}

// Table holds the full introspected definition of one source table.
// Constructed once by introspection, immutable afterwards except for
// TargetType assignment on its columns.
type Table struct {
	Name         string
	Columns      []Column
	PKColumns    []string // ordered primary key column names, may be empty
	Indexes      []Index
	ForeignKeys  []ForeignKey
	RowCount     int64
	WithoutRowid bool
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i := range t.Columns {
		names[i] = t.Columns[i].Name
	}
	return names
}

// Schema holds all introspected tables in introspection order.
type Schema struct {
	Tables []Table
}

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// sortTablesByDependency orders tables so that every foreign-key parent
// precedes its children, keeping introspection order among independent
// tables. Constraints are deferred until after all loads, so a cycle is
// not fatal; cyclic tables are appended in introspection order and
// returned for the caller to log.
func sortTablesByDependency(tables []Table) (ordered []Table, cyclic []string) {
	byName := make(map[string]int, len(tables))
	for i, t := range tables {
		byName[t.Name] = i
	}

	indegree := make([]int, len(tables))
	children := make([][]int, len(tables))
	for i, t := range tables {
		seen := make(map[string]bool)
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == t.Name || seen[fk.RefTable] {
				continue // self-references don't constrain load order
			}
			parent, ok := byName[fk.RefTable]
			if !ok {
				continue
			}
			seen[fk.RefTable] = true
			indegree[i]++
			children[parent] = append(children[parent], i)
		}
	}

	var ready []int
	for i := range tables {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	done := make([]bool, len(tables))
	for len(ready) > 0 {
		slices.Sort(ready) // lowest introspection position first, keeps order stable
		i := ready[0]
		ready = ready[1:]
		done[i] = true
		ordered = append(ordered, tables[i])
		for _, c := range children[i] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	for i := range tables {
		if !done[i] {
			cyclic = append(cyclic, tables[i].Name)
			ordered = append(ordered, tables[i])
		}
	}
	return ordered, cyclic
}
