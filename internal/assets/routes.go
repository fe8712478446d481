package assets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxUploadMemory = 32 << 20

// Auditor records uploads.
type Auditor interface {
	Audit(ctx context.Context, action, iconID, summary string)
}

// ActionAssetUploaded is the audit action for a stored upload.
const ActionAssetUploaded = "asset_uploaded"

// RegisterRoutes mounts POST /upload-icon on the given router. audit may be
// nil.
func RegisterRoutes(r chi.Router, store *Store, audit Auditor, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.Post("/upload-icon", handleUpload(store, audit, logger.Named("assets")))
}

func handleUpload(store *Store, audit Auditor, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		file, header, err := r.FormFile("icon")
		if err != nil {
			writeError(w, http.StatusBadRequest, "no icon file uploaded")
			return
		}
		defer file.Close()

		resp, err := store.Save(r.FormValue("destination"), header.Filename, file)
		switch {
		case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidDestination):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			logger.Error("storing upload failed", zap.String("file", header.Filename), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store icon: "+err.Error())
			return
		}

		logger.Info("icon uploaded", zap.String("path", resp.FilePath), zap.Int64("size", resp.Size))
		if audit != nil {
			audit.Audit(r.Context(), ActionAssetUploaded, "", resp.FilePath)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
