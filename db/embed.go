// Package db embeds the goose migrations for the SQL backends.
package db

import "embed"

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var Migrations embed.FS

// Dir returns the migrations directory for a goose dialect.
func Dir(dialect string) string {
	if dialect == "postgres" {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}
