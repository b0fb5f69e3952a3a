// Package db provides the embedded database schema.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables. It is
// idempotent and safe to run on every startup.
//
//go:embed migrations/001_schema.sql
var Schema string
