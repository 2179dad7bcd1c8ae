package embedsql

import _ "embed"

// Schema is the complete database schema, applied on startup.
//
//go:embed schema.sql
var Schema string
