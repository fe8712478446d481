package dashboard

import (
	_ "embed"
	"net/http"
)

//go:embed admin.html
var adminHTML []byte

// ServeIndex serves the embedded admin page.
func (d *Dashboard) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(adminHTML)
}
