package database

import "embed"

// Migrations holds the schema for every supported dialect, one directory
// per dialect under migrations/.
//
//go:embed migrations
var Migrations embed.FS

func MigrationsDir(dialect Dialect) string {
	return "migrations/" + string(dialect)
}
