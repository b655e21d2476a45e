package web

import "embed"

// Static holds the embedded web/static directory with the single-page admin
// client. Handlers access it via fs.Sub(Static, "static").
//
//go:embed static
var Static embed.FS
