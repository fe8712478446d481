package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Action describes what was done.
type Action string

// Actions written by the config and asset handlers.
const (
	ActionIconSaved         Action = "icon_saved"
	ActionIconDeleted       Action = "icon_deleted"
	ActionAssetUploaded     Action = "asset_uploaded"
	ActionAssetDeleted      Action = "asset_deleted"
	ActionAssetDeleteFailed Action = "asset_delete_failed"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	IconID    string    `json:"iconId,omitempty"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
}

// Recorder adapts a Store to the handlers' fire-and-forget audit hook.
// Failures are logged and never reach the request.
type Recorder struct {
	store  *Store
	logger *zap.Logger
}

// NewRecorder returns a Recorder writing to store.
func NewRecorder(store *Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger.Named("audit")}
}

// Audit records one mutation.
func (r *Recorder) Audit(ctx context.Context, action, iconID, summary string) {
	// The request may be finishing; the record should still land.
	ctx = context.WithoutCancel(ctx)
	err := r.store.Log(ctx, Entry{Action: Action(action), IconID: iconID, Summary: summary})
	if err != nil {
		r.logger.Warn("audit write failed", zap.String("action", action), zap.String("icon", iconID), zap.Error(err))
	}
}
