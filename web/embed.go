// Package web provides embedded static assets for the admin interface.
// In development the layout loads TailwindCSS from its CDN; in production
// it links the stylesheet embedded here and served at /static/.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var staticFS embed.FS

// Static returns the asset tree rooted at web/static, ready to be served
// under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
