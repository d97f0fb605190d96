package main

// rowFixup rewrites one raw source row in place before type conversion.
// Registered per table name for source values the generic conversion rules
// cannot get right on their own.
type rowFixup func(cols []string, row []any)

var tableFixups = map[string]rowFixup{
	"knex_migrations": knexMigrationTimeFixup,
}

func fixupFor(table string) rowFixup {
	return tableFixups[table]
}

// knexMigrationTimeFixup coerces knex's migration_time column, which older
// schema versions stored as an epoch integer, into datetime text so the
// DATETIME target accepts it.
func knexMigrationTimeFixup(cols []string, row []any) {
	for i, c := range cols {
		if c != "migration_time" {
			continue
		}
		switch v := row[i].(type) {
		case int64:
			row[i] = epochToDatetime(v)
		case float64:
			row[i] = epochToDatetime(int64(v))
		}
		return
	}
}
