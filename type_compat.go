package main

import "fmt"

// formatTypeMappingErrors renders the pre-flight unmappable-type report.
func formatTypeMappingErrors(errs []*TypeMappingError) []string {
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		lines = append(lines, fmt.Sprintf("%s.%s (%s)", e.Table, e.Column, e.DeclaredType))
	}
	return lines
}

// collectNarrowingWarnings flags keyed text/blob columns whose observed max
// length exceeds the indexed-column cap they are narrowed to. The load will
// reject the longer rows, so say so up front instead of failing mid-batch.
func collectNarrowingWarnings(schema *Schema) []string {
	var warnings []string
	for i := range schema.Tables {
		t := &schema.Tables[i]
		for j := range t.Columns {
			col := &t.Columns[j]
			if !col.PrimaryKey && !col.Unique {
				continue
			}
			if col.Affinity != AffinityText && col.Affinity != AffinityBlob {
				continue
			}
			if s := col.Stats; s != nil && s.HasValues && s.MaxLen > indexedVarcharMax {
				warnings = append(warnings, fmt.Sprintf(
					"%s.%s: observed max length %d exceeds %s; longer values will fail to load",
					t.Name, col.Name, s.MaxLen, col.TargetType))
			}
		}
	}
	return warnings
}
