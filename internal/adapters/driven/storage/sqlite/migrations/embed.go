// Package migrations holds the versioned SQL schema of the feed database.
// Files are named NNN_name.up.sql and NNN_name.down.sql.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
