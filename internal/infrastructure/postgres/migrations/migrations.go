// Package migrations esquema SQL embebido, aplicado con goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
