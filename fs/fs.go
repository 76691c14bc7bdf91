// Package appfs embeds the static assets shipped with the binaries.
package appfs

import "embed"

//go:embed migrations locales all:templates
var FS embed.FS

const (
	PostgresMigrationsDir = "migrations/postgres"
	SQLiteMigrationsDir   = "migrations/sqlite"
	LocalesDir            = "locales"
	EmailTemplatesDir     = "templates/email"
)
