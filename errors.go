package main

import "fmt"

// SchemaReadError reports an unreadable or inconsistent source catalog,
// or a failed source read during export.
type SchemaReadError struct {
	Table string // empty when the catalog itself is unreadable
	Err   error
}

func (e *SchemaReadError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("read source schema: %v", e.Err)
	}
	return fmt.Sprintf("read source schema for %s: %v", e.Table, e.Err)
}

func (e *SchemaReadError) Unwrap() error { return e.Err }

// TypeMappingError reports a declared type no rule can map to a target type.
type TypeMappingError struct {
	Table        string
	Column       string
	DeclaredType string
}

func (e *TypeMappingError) Error() string {
	return fmt.Sprintf("unmappable declared type %q for %s.%s", e.DeclaredType, e.Table, e.Column)
}

// ValueConversionError reports a single value that cannot be coerced to its
// column's target type. Handling is policy-controlled (on_value_error).
type ValueConversionError struct {
	Table     string
	Column    string
	RowOffset int64 // 0-based offset within the table's export order
	Value     any
	Reason    string
}

func (e *ValueConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s.%s row %d value %v: %s",
		e.Table, e.Column, e.RowOffset, truncateValue(e.Value), e.Reason)
}

// TargetWriteError reports a failed write against the target: connection
// loss, constraint violation, or DDL failure.
type TargetWriteError struct {
	Table       string
	BatchOffset int64 // first row offset of the failed batch, -1 for DDL
	Err         error
}

func (e *TargetWriteError) Error() string {
	if e.BatchOffset < 0 {
		return fmt.Sprintf("target write for %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("target write for %s (batch at row %d): %v", e.Table, e.BatchOffset, e.Err)
}

func (e *TargetWriteError) Unwrap() error { return e.Err }

// ConstraintCreationError reports an index or foreign key that could not be
// created after data load. Loaded data stays in place.
type ConstraintCreationError struct {
	Table      string
	Constraint string
	Kind       string // "index" or "foreign key"
	Err        error
}

func (e *ConstraintCreationError) Error() string {
	return fmt.Sprintf("create %s %s on %s: %v", e.Kind, e.Constraint, e.Table, e.Err)
}

func (e *ConstraintCreationError) Unwrap() error { return e.Err }

// truncateValue keeps error messages readable for long blobs and strings.
func truncateValue(v any) any {
	const max = 64
	switch s := v.(type) {
	case string:
		if len(s) > max {
			return s[:max] + "..."
		}
	case []byte:
		if len(s) > max {
			return fmt.Sprintf("%d-byte blob", len(s))
		}
	}
	return v
}
