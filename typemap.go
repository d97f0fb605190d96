package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MySQL index-length limits for utf8mb4 keys (191 * 4 bytes < 767).
const (
	indexedVarcharMax = 191
	defaultVarcharMax = 255
	maxInlineLen      = 65535 // TEXT/BLOB capacity in bytes
)

// classifyAffinity resolves a declared type to its SQLite affinity.
// Rules follow the SQLite type-affinity algorithm; an empty declared type
// is reported as UNKNOWN so name heuristics can run on it.
func classifyAffinity(declared string) Affinity {
	dt := strings.ToUpper(strings.TrimSpace(declared))
	switch {
	case dt == "":
		return AffinityUnknown
	case strings.Contains(dt, "INT"):
		return AffinityInteger
	case strings.Contains(dt, "CHAR"), strings.Contains(dt, "CLOB"), strings.Contains(dt, "TEXT"):
		return AffinityText
	case strings.Contains(dt, "BLOB"):
		return AffinityBlob
	case strings.Contains(dt, "REAL"), strings.Contains(dt, "FLOA"), strings.Contains(dt, "DOUB"):
		return AffinityReal
	default:
		return AffinityNumeric
	}
}

// declaredParams extracts (precision, scale) from a declared type like
// "DECIMAL(10,2)" or "VARCHAR(64)". scale is 0 when absent.
func declaredParams(declared string) (precision, scale int64, ok bool) {
	open := strings.IndexByte(declared, '(')
	close := strings.LastIndexByte(declared, ')')
	if open < 0 || close <= open {
		return 0, 0, false
	}
	parts := strings.Split(declared[open+1:close], ",")
	p, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || p <= 0 {
		return 0, 0, false
	}
	var s int64
	if len(parts) >= 2 {
		s, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil || s < 0 {
			return 0, 0, false
		}
	}
	return p, s, true
}

// mapColumnType returns the MySQL type for a source column. Pure: the
// result depends only on the column model (declared type, flags, observed
// stats, name). One type is committed per column; rows that disagree are
// the exporter's problem.
func mapColumnType(table string, col Column) (string, error) {
	switch col.Affinity {
	case AffinityInteger:
		return mapIntegerType(col), nil
	case AffinityText:
		return mapTextType(col), nil
	case AffinityReal:
		return "DOUBLE", nil
	case AffinityBlob:
		return mapBlobType(col), nil
	case AffinityNumeric:
		t := mapNumericType(col)
		if t == "" {
			return "", &TypeMappingError{Table: table, Column: col.Name, DeclaredType: col.DeclaredType}
		}
		return t, nil
	default: // UNKNOWN: untyped column, fall back to name heuristics
		if isTimestampName(col.Name) {
			return "DATETIME", nil
		}
		return "TEXT", nil
	}
}

func mapIntegerType(col Column) string {
	if col.AutoIncrement {
		return "BIGINT" // identity values must survive future growth
	}
	if strings.Contains(strings.ToUpper(col.DeclaredType), "BIGINT") {
		return "BIGINT"
	}
	if s := col.Stats; s != nil && s.HasValues {
		if s.MinInt < math.MinInt32 || s.MaxInt > math.MaxInt32 {
			return "BIGINT"
		}
	}
	return "INT"
}

func mapTextType(col Column) string {
	if col.PrimaryKey || col.Unique {
		return fmt.Sprintf("VARCHAR(%d)", indexedVarcharMax)
	}
	if s := col.Stats; s != nil && s.HasValues {
		switch {
		case s.MaxLen <= defaultVarcharMax:
			return fmt.Sprintf("VARCHAR(%d)", defaultVarcharMax)
		case s.MaxLen > maxInlineLen:
			return "LONGTEXT"
		default:
			return "TEXT"
		}
	}
	if p, _, ok := declaredParams(col.DeclaredType); ok && p <= defaultVarcharMax {
		return fmt.Sprintf("VARCHAR(%d)", defaultVarcharMax)
	}
	return "TEXT"
}

func mapBlobType(col Column) string {
	if col.PrimaryKey || col.Unique {
		return fmt.Sprintf("VARBINARY(%d)", indexedVarcharMax)
	}
	if s := col.Stats; s != nil && s.HasValues && s.MaxLen > maxInlineLen {
		return "LONGBLOB"
	}
	return "BLOB"
}

// mapNumericType handles NUMERIC affinity: booleans, date/time declared
// types and decimals. Returns "" for declared types no rule covers.
func mapNumericType(col Column) string {
	dt := strings.ToUpper(strings.TrimSpace(col.DeclaredType))
	base := dt
	if idx := strings.IndexByte(base, '('); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}

	switch {
	case strings.HasPrefix(base, "BOOL"):
		return "TINYINT(1)"
	case base == "TIME":
		return "TIME"
	case strings.Contains(base, "DATE"), strings.Contains(base, "TIMESTAMP"):
		return "DATETIME"
	case base == "NUMERIC", base == "DECIMAL", base == "NUM", base == "DEC":
		if p, s, ok := declaredParams(dt); ok {
			return fmt.Sprintf("DECIMAL(%d,%d)", p, s)
		}
		return "DECIMAL(10,2)"
	default:
		return ""
	}
}

// isTimestampName reports whether an untyped column's name conventionally
// holds a timestamp.
func isTimestampName(name string) bool {
	n := strings.ToLower(name)
	if n == "timestamp" || n == "datetime" {
		return true
	}
	return strings.HasSuffix(n, "_at") || strings.HasSuffix(n, "_date") || strings.HasSuffix(n, "_time")
}

// resolveTargetTypes assigns TargetType to every column, collecting every
// unmappable column rather than stopping at the first.
func resolveTargetTypes(schema *Schema) []*TypeMappingError {
	var errs []*TypeMappingError
	for i := range schema.Tables {
		t := &schema.Tables[i]
		for j := range t.Columns {
			mapped, err := mapColumnType(t.Name, t.Columns[j])
			if err != nil {
				errs = append(errs, err.(*TypeMappingError))
				continue
			}
			t.Columns[j].TargetType = mapped
		}
	}
	return errs
}

// targetFamily groups MySQL types into the coercion families the exporter
// cares about.
type targetFamily int

const (
	famInt targetFamily = iota
	famBigint
	famBool
	famDouble
	famDecimal
	famText
	famBinary
	famDatetime
	famTime
)

func familyOf(targetType string) targetFamily {
	base := strings.ToUpper(targetType)
	if idx := strings.IndexByte(base, '('); idx >= 0 {
		base = base[:idx]
	}
	switch base {
	case "TINYINT":
		return famBool
	case "INT":
		return famInt
	case "BIGINT":
		return famBigint
	case "DOUBLE":
		return famDouble
	case "DECIMAL":
		return famDecimal
	case "VARCHAR", "TEXT", "LONGTEXT":
		return famText
	case "VARBINARY", "BLOB", "LONGBLOB":
		return famBinary
	case "DATETIME":
		return famDatetime
	case "TIME":
		return famTime
	default:
		return famText
	}
}
