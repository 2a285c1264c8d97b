// Package db embeds the SQL migrations so binaries and tests share one schema source.
package db

import "embed"

// Migrations holds the *.up.sql / *.down.sql files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
