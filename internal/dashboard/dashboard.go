// Package dashboard serves the read-only admin page and its stats API.
package dashboard

import (
	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/overlay-studio/internal/admin"
	"github.com/ziadkadry99/overlay-studio/internal/audit"
	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
)

// RecentLimit caps the changes listed in the stats response.
const RecentLimit = 10

// Dashboard reports on the icon config and its audit trail. The page asks
// for the admin secret before showing anything; the APIs stay open.
type Dashboard struct {
	icons *iconconfig.Store
	audit *audit.Store
	gate  admin.Options
}

// New creates a new Dashboard. auditStore may be nil. Zero gate fields take
// the admin defaults.
func New(icons *iconconfig.Store, auditStore *audit.Store, gate admin.Options) *Dashboard {
	return &Dashboard{icons: icons, audit: auditStore, gate: gate.WithDefaults()}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/admin", d.ServeIndex)
	r.Get("/api/dashboard/stats", d.handleStats)
	r.Post("/api/dashboard/unlock", d.handleUnlock)
}
