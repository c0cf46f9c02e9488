package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema history; each file registers itself in init.
var Migrations = migrate.NewMigrations()
