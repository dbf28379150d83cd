// Package web bundles the fraud-analysis form UI served at the server root.
package web

import "embed"

//go:embed index.html
var FS embed.FS
