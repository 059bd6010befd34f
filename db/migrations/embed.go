// Package dbmigrations exposes embedded SQL migrations for SoleScan binaries.
package dbmigrations

import "embed"

// Files contains the embedded SQL migrations bundled into SoleScan binaries.
//
//go:embed *.sql
var Files embed.FS
