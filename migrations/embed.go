// Package migrations embeds the goose SQL migrations so the binary and the
// test helpers apply the same schema without depending on the working directory.
package migrations

import "embed"

// FS holds every *.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS
