// Package web holds the static site served by the origin server.
package web

import "embed"

// FS contains index.html, style.css and manifest.json.
//
//go:embed index.html style.css manifest.json
var FS embed.FS
