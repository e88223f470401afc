// Package migrations embeds the capture database schema into the binary.
//
// Pass FS to database.DB.Migrate; the SQL files do not need to be present
// on the filesystem at runtime.
package migrations

import "embed"

// FS holds every *.sql file in this directory at its root.
//
//go:embed *.sql
var FS embed.FS
