package main

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// rowSkip records one row dropped under the skip_row policy.
type rowSkip struct {
	Table     string
	Column    string
	RowOffset int64
	Reason    string
}

// tableExporter produces a lazy, finite sequence of converted rows for one
// table, reading fixed-size pages in natural row order. Rowid tables page
// by rowid keyset; WITHOUT ROWID tables page by primary key with OFFSET.
// A fresh exporter restarts the table from the beginning.
type tableExporter struct {
	db       *sql.DB
	table    *Table
	pageSize int
	policy   string // skip_row | abort_table | abort_run
	fixup    rowFixup
	families []targetFamily
	colNames []string

	lastRowid int64
	offset    int64 // rows consumed so far in export order
	done      bool
	skipped   []rowSkip
}

func newTableExporter(db *sql.DB, t *Table, cfg *MigrationConfig) *tableExporter {
	families := make([]targetFamily, len(t.Columns))
	for i := range t.Columns {
		families[i] = familyOf(t.Columns[i].TargetType)
	}
	return &tableExporter{
		db:       db,
		table:    t,
		pageSize: cfg.BatchSize,
		policy:   cfg.OnValueError,
		fixup:    fixupFor(t.Name),
		families: families,
		colNames: t.ColumnNames(),
	}
}

// NextPage returns up to pageSize converted rows, or (nil, nil) once the
// table is exhausted. Under skip_row a page may come back shorter; skips
// are recorded on the exporter for the final report.
func (e *tableExporter) NextPage() ([][]any, error) {
	if e.done {
		return nil, nil
	}

	raw, err := e.fetchPage()
	if err != nil {
		return nil, &SchemaReadError{Table: e.table.Name, Err: err}
	}
	if len(raw) == 0 {
		e.done = true
		return nil, nil
	}
	if len(raw) < e.pageSize {
		e.done = true
	}

	out := make([][]any, 0, len(raw))
	for _, row := range raw {
		if e.fixup != nil {
			e.fixup(e.colNames, row)
		}
		converted, convErr := e.convertRow(row)
		if convErr != nil {
			if e.policy == "skip_row" {
				e.skipped = append(e.skipped, rowSkip{
					Table:     convErr.Table,
					Column:    convErr.Column,
					RowOffset: convErr.RowOffset,
					Reason:    convErr.Reason,
				})
				e.offset++
				continue
			}
			return nil, convErr
		}
		out = append(out, converted)
		e.offset++
	}
	return out, nil
}

// rowsRead reports how many source rows were consumed so far.
func (e *tableExporter) rowsRead() int64 { return e.offset }

func (e *tableExporter) fetchPage() ([][]any, error) {
	var query string
	var args []any
	withRowid := !e.table.WithoutRowid

	selectList := make([]string, 0, len(e.colNames)+1)
	if withRowid {
		selectList = append(selectList, "rowid")
	}
	for _, c := range e.colNames {
		selectList = append(selectList, sqliteIdent(c))
	}

	if withRowid {
		query = fmt.Sprintf("SELECT %s FROM %s WHERE rowid > ? ORDER BY rowid LIMIT %d",
			strings.Join(selectList, ", "), sqliteIdent(e.table.Name), e.pageSize)
		args = append(args, e.lastRowid)
	} else {
		order := make([]string, len(e.table.PKColumns))
		for i, c := range e.table.PKColumns {
			order[i] = sqliteIdent(c)
		}
		query = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d OFFSET %d",
			strings.Join(selectList, ", "), sqliteIdent(e.table.Name),
			strings.Join(order, ", "), e.pageSize, e.offset)
	}

	rows, err := e.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var page [][]any
	for rows.Next() {
		vals := make([]any, len(selectList))
		ptrs := make([]any, len(selectList))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		if withRowid {
			rid, ok := vals[0].(int64)
			if !ok {
				return nil, fmt.Errorf("unexpected rowid type %T", vals[0])
			}
			e.lastRowid = rid
			vals = vals[1:]
		}
		page = append(page, vals)
	}
	return page, rows.Err()
}

func (e *tableExporter) convertRow(row []any) ([]any, *ValueConversionError) {
	out := make([]any, len(row))
	for i, val := range row {
		converted, reason := convertValue(e.families[i], val)
		if reason != "" {
			return nil, &ValueConversionError{
				Table:     e.table.Name,
				Column:    e.colNames[i],
				RowOffset: e.offset,
				Value:     val,
				Reason:    reason,
			}
		}
		out[i] = converted
	}
	return out, nil
}

// convertValue coerces one source value to its column's target family.
// SQLite's per-row dynamic typing means any storage class can appear in any
// column; a value the committed target type cannot hold is reported, never
// silently reinterpreted. A non-empty reason means failure.
func convertValue(fam targetFamily, val any) (any, string) {
	if val == nil {
		return nil, ""
	}

	switch fam {
	case famInt:
		return convertInteger(val, math.MinInt32, math.MaxInt32, "INT")
	case famBigint:
		return convertInteger(val, math.MinInt64, math.MaxInt64, "BIGINT")
	case famBool:
		return convertInteger(val, -128, 127, "TINYINT")

	case famDouble:
		switch v := val.(type) {
		case float64:
			return v, ""
		case int64:
			return float64(v), ""
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, ""
			}
		case []byte:
			if f, err := strconv.ParseFloat(string(v), 64); err == nil {
				return f, ""
			}
		}
		return nil, fmt.Sprintf("%T is not coercible to DOUBLE", val)

	case famDecimal:
		switch v := val.(type) {
		case int64, float64:
			return v, ""
		case string:
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				return v, ""
			}
		case []byte:
			if _, err := strconv.ParseFloat(string(v), 64); err == nil {
				return string(v), ""
			}
		}
		return nil, fmt.Sprintf("%T is not coercible to DECIMAL", val)

	case famText:
		switch v := val.(type) {
		case string:
			return strings.ToValidUTF8(v, "�"), ""
		case []byte:
			return strings.ToValidUTF8(string(v), "�"), ""
		case int64:
			return strconv.FormatInt(v, 10), ""
		case float64:
			return strconv.FormatFloat(v, 'g', -1, 64), ""
		}
		return nil, fmt.Sprintf("%T is not coercible to text", val)

	case famBinary:
		switch v := val.(type) {
		case []byte:
			return v, ""
		case string:
			return []byte(v), ""
		}
		return nil, fmt.Sprintf("%T is not coercible to binary", val)

	case famDatetime:
		switch v := val.(type) {
		case string:
			if norm, ok := normalizeDatetime(v); ok {
				return norm, ""
			}
			return nil, fmt.Sprintf("%q is not a recognized datetime", v)
		case int64:
			return epochToDatetime(v), ""
		case float64:
			return epochToDatetime(int64(v)), ""
		}
		return nil, fmt.Sprintf("%T is not coercible to DATETIME", val)

	case famTime:
		if v, ok := val.(string); ok {
			return v, ""
		}
		return nil, fmt.Sprintf("%T is not coercible to TIME", val)
	}

	return val, ""
}

func convertInteger(val any, min, max int64, typeName string) (any, string) {
	switch v := val.(type) {
	case int64:
		if v < min || v > max {
			return nil, fmt.Sprintf("value %d out of %s range", v, typeName)
		}
		return v, ""
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Sprintf("non-integral value %v for %s column", v, typeName)
		}
		i := int64(v)
		if i < min || i > max {
			return nil, fmt.Sprintf("value %v out of %s range", v, typeName)
		}
		return i, ""
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Sprintf("%q is not an integer", v)
		}
		if i < min || i > max {
			return nil, fmt.Sprintf("value %d out of %s range", i, typeName)
		}
		return i, ""
	case []byte:
		return convertInteger(string(v), min, max, typeName)
	}
	return nil, fmt.Sprintf("%T is not coercible to %s", val, typeName)
}

var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02",
}

// normalizeDatetime reduces the datetime spellings SQLite files carry to
// the single form MySQL DATETIME accepts everywhere. Zoned values are
// converted to UTC; naive values are taken as-is. Epoch numbers stored as
// text are handled too.
func normalizeDatetime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Location() != time.UTC {
			t = t.UTC()
		}
		return t.Format("2006-01-02 15:04:05"), true
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return epochToDatetime(i), true
	}
	return "", false
}

// epochToDatetime formats a Unix epoch as DATETIME text. Values beyond the
// year ~2096 are taken as milliseconds, matching the upstream rule for
// knex-style timestamps.
func epochToDatetime(v int64) string {
	if v > 4_000_000_000 || v < -4_000_000_000 {
		v /= 1000
	}
	return time.Unix(v, 0).UTC().Format("2006-01-02 15:04:05")
}
