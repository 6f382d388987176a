// Package migrations holds the goose SQL migrations applied to Postgres.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
