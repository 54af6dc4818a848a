// Package static embeds the API documentation served at /docs and /static.
package static

import "embed"

// FS holds openapi.html and openapi.json.
//
//go:embed openapi.html openapi.json
var FS embed.FS
