// Package migrations содержит SQL-миграции goose, встроенные в бинарник
package migrations

import "embed"

// FS миграции схемы bookings
//
//go:embed *.sql
var FS embed.FS
