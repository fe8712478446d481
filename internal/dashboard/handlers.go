package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ziadkadry99/overlay-studio/internal/admin"
	"github.com/ziadkadry99/overlay-studio/internal/audit"
)

// statsResponse is the JSON response for the stats endpoint.
type statsResponse struct {
	IconCount     int           `json:"iconCount"`
	HiddenCount   int           `json:"hiddenCount"`
	LastUpdated   *time.Time    `json:"lastUpdated"`
	RecentChanges []audit.Entry `json:"recentChanges"`
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, err := d.icons.Load(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	resp := statsResponse{RecentChanges: []audit.Entry{}}
	if doc != nil {
		resp.IconCount = len(doc.Icons)
		for _, icon := range doc.Icons {
			if !icon.Visible() {
				resp.HiddenCount++
			}
		}
		resp.LastUpdated = doc.LastUpdated
	}

	if d.audit != nil {
		recent, err := d.audit.Query(ctx, audit.QueryFilter{Limit: RecentLimit})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		resp.RecentChanges = recent
	}

	writeJSON(w, http.StatusOK, resp)
}

type unlockRequest struct {
	Secret string `json:"secret"`
}

// unlockResponse tells the page whether to open or where to send the
// operator after the delay.
type unlockResponse struct {
	Granted         bool   `json:"granted"`
	Error           string `json:"error,omitempty"`
	RedirectURL     string `json:"redirectUrl,omitempty"`
	RedirectDelayMs int64  `json:"redirectDelayMs,omitempty"`
}

func (d *Dashboard) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if admin.Match(d.gate.Secret, req.Secret) {
		writeJSON(w, http.StatusOK, unlockResponse{Granted: true})
		return
	}
	writeJSON(w, http.StatusOK, unlockResponse{
		Error:           admin.ErrInvalidSecret.Error(),
		RedirectURL:     d.gate.RedirectURL,
		RedirectDelayMs: d.gate.Delay.Milliseconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
