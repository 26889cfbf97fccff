// Package migrations holds the SQL schema. Files are applied in version
// order by goose and shipped inside every binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
