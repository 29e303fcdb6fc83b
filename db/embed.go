// Package db embeds the database schema and the demo catalog.
package db

import _ "embed"

// Schema is the idempotent DDL for every table.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedCatalog is the demo catalog loaded by seed-db when no catalog file is
// given.
//
//go:embed seed/catalog.json
var SeedCatalog []byte
