package main

import "fmt"

func indexUnsupportedReason(idx Index) (string, bool) {
	if idx.Partial {
		return "partial index WHERE clauses are not migrated", true
	}
	if idx.HasExpression {
		return "expression index key-parts are not supported", true
	}
	if len(idx.Columns) == 0 {
		return "index has no plain column key-parts", true
	}
	return "", false
}

func collectIndexCompatibilityWarnings(schema *Schema) []string {
	var warnings []string
	for _, t := range schema.Tables {
		for _, idx := range t.Indexes {
			if reason, unsupported := indexUnsupportedReason(idx); unsupported {
				warnings = append(warnings, fmt.Sprintf("%s.%s: %s", t.Name, idx.Name, reason))
			}
		}
	}
	return warnings
}
