// Package locator provides the embedded web assets of the ePharmacy Locator gateway.
package locator

import "embed"

// In dev mode templates are read from disk for hot reloading; otherwise
// these embedded copies are served.

//go:embed all:web/static
var StaticFS embed.FS

//go:embed all:web/templates
var TemplateFS embed.FS
