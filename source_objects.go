package main

import (
	"database/sql"
	"fmt"
)

// SourceObjects holds non-table source objects that require manual migration.
type SourceObjects struct {
	Views    []string
	Triggers []string
}

func introspectSourceObjects(db *sql.DB) (*SourceObjects, error) {
	objs := &SourceObjects{}

	for _, kind := range []struct {
		typ string
		out *[]string
	}{
		{"view", &objs.Views},
		{"trigger", &objs.Triggers},
	} {
		rows, err := db.Query("SELECT name FROM sqlite_master WHERE type=? ORDER BY name", kind.typ)
		if err != nil {
			return nil, fmt.Errorf("introspect %ss: %w", kind.typ, err)
		}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return nil, err
			}
			*kind.out = append(*kind.out, name)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return objs, nil
}

func sourceObjectWarnings(objs *SourceObjects) []string {
	if objs == nil || (len(objs.Views) == 0 && len(objs.Triggers) == 0) {
		return nil
	}

	warnings := []string{fmt.Sprintf(
		"source contains non-table objects not migrated automatically (%d views, %d triggers)",
		len(objs.Views), len(objs.Triggers),
	)}
	for _, v := range objs.Views {
		warnings = append(warnings, fmt.Sprintf("view: %s", v))
	}
	for _, t := range objs.Triggers {
		warnings = append(warnings, fmt.Sprintf("trigger: %s", t))
	}
	return warnings
}
