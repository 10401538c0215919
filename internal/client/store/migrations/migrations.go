// Package migrations embeds the goose migration files for the local mirror
// database. Migrations are additive only: a version bump may create tables
// or indexes but never rewrites or drops existing data, so an upgraded
// client keeps every record saved by an older one.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
