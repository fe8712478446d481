package iconconfig

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VersionHeader carries the store's write counter on every response.
const VersionHeader = "X-Config-Version"

// AssetRemover deletes an uploaded icon file, located by its public path
// or, failing that, by name.
type AssetRemover interface {
	Remove(publicPath, fileName string) error
}

// Auditor records config and asset mutations.
type Auditor interface {
	Audit(ctx context.Context, action, iconID, summary string)
}

// Audit actions emitted by the handlers.
const (
	ActionIconSaved         = "icon_saved"
	ActionIconDeleted       = "icon_deleted"
	ActionAssetDeleted      = "asset_deleted"
	ActionAssetDeleteFailed = "asset_delete_failed"
)

// Deps are the optional collaborators of the HTTP handlers.
type Deps struct {
	Assets AssetRemover
	Audit  Auditor
	Hub    *Hub
	Logger *zap.Logger
}

type saveRequest struct {
	IconSettings *IconConfig `json:"iconSettings"`
}

// SaveResult is the body of a successful POST /icon-config.
type SaveResult struct {
	Message    string `json:"message"`
	ConfigPath string `json:"configPath"`
	IconCount  int    `json:"iconCount"`
}

type deleteRequest struct {
	IconID     string `json:"iconId"`
	DeleteFile bool   `json:"deleteFile"`
}

// DeleteResult is the body of a successful DELETE /icon-config.
type DeleteResult struct {
	Message        string     `json:"message"`
	DeletedIcon    IconConfig `json:"deletedIcon"`
	RemainingIcons int        `json:"remainingIcons"`
}

// RegisterRoutes mounts the config store endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logger := deps.Logger.Named("iconconfig")

	r.Route("/icon-config", func(r chi.Router) {
		r.Get("/", handleGet(store))
		r.Post("/", handleSave(store, deps, logger))
		r.Delete("/", handleDelete(store, deps, logger))
	})
	if deps.Hub != nil {
		r.Get("/ws/icon-config", deps.Hub.ServeHTTP)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.Load(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		setVersion(w, store)
		writeJSON(w, http.StatusOK, doc)
	}
}

func handleSave(store *Store, deps Deps, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.IconSettings == nil || req.IconSettings.ID == "" {
			writeError(w, http.StatusBadRequest, "iconSettings with an id is required")
			return
		}

		count, err := store.Upsert(r.Context(), *req.IconSettings)
		if err != nil {
			logger.Error("saving icon config failed", zap.String("icon", req.IconSettings.ID), zap.Error(err))
			writeError(w, statusFor(err), "failed to save icon configuration: "+err.Error())
			return
		}

		if deps.Audit != nil {
			deps.Audit.Audit(r.Context(), ActionIconSaved, req.IconSettings.ID, "icon configuration saved")
		}

		setVersion(w, store)
		writeJSON(w, http.StatusOK, SaveResult{
			Message:    "Icon configuration saved",
			ConfigPath: store.Path(),
			IconCount:  count,
		})
	}
}

func handleDelete(store *Store, deps Deps, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.IconID == "" {
			writeError(w, http.StatusBadRequest, "iconId is required")
			return
		}

		removed, remaining, err := store.Delete(r.Context(), req.IconID)
		switch {
		case errors.Is(err, ErrNoDocument):
			writeError(w, http.StatusNotFound, "no icon configuration found")
			return
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "icon not found: "+req.IconID)
			return
		case err != nil:
			logger.Error("deleting icon config failed", zap.String("icon", req.IconID), zap.Error(err))
			writeError(w, statusFor(err), "failed to delete icon configuration: "+err.Error())
			return
		}

		if deps.Audit != nil {
			deps.Audit.Audit(r.Context(), ActionIconDeleted, req.IconID, "icon configuration deleted")
		}

		// The config is the source of truth; an orphaned file is tolerated.
		if req.DeleteFile && removed.FileName != "" && deps.Assets != nil {
			if err := deps.Assets.Remove(removed.PublicPath, removed.FileName); err != nil {
				logger.Warn("deleting icon file failed",
					zap.String("icon", req.IconID), zap.String("file", removed.FileName), zap.Error(err))
				if deps.Audit != nil {
					deps.Audit.Audit(r.Context(), ActionAssetDeleteFailed, req.IconID, err.Error())
				}
			} else if deps.Audit != nil {
				deps.Audit.Audit(r.Context(), ActionAssetDeleted, req.IconID, removed.FileName)
			}
		}

		setVersion(w, store)
		writeJSON(w, http.StatusOK, DeleteResult{
			Message:        "Icon configuration deleted",
			DeletedIcon:    removed,
			RemainingIcons: remaining,
		})
	}
}

func setVersion(w http.ResponseWriter, store *Store) {
	w.Header().Set(VersionHeader, strconv.FormatUint(store.Version(), 10))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
