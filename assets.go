// Package fotoforge holds the files embedded into the binary.
package fotoforge

import "embed"

// WebTemplates are the HTML pages served by the editor.
//
//go:embed web/templates/*.html
var WebTemplates embed.FS
