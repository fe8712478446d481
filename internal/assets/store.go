// Package assets stores uploaded icon binaries under the site's static
// directory, addressed by public path.
package assets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultAllowed are the file name patterns accepted for upload.
var DefaultAllowed = []string{"*.{png,jpg,jpeg,gif,svg,webp,ico}"}

var (
	// ErrInvalidName rejects empty, hidden or disallowed file names.
	ErrInvalidName = errors.New("invalid icon file name")
	// ErrInvalidDestination rejects destinations outside the site root.
	ErrInvalidDestination = errors.New("invalid destination")
)

// UploadResponse is the body of a successful POST /upload-icon.
type UploadResponse struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	Size     int64  `json:"size"`
}

// Store writes icons below Root. Destinations are relative to Root; the
// public path of a file is its slash path relative to Root.
type Store struct {
	root       string
	defaultDir string
	allowed    []string
}

// NewStore returns a Store rooted at siteDir that uploads to iconDir
// (relative to siteDir) by default.
func NewStore(siteDir, iconDir string, allowed []string) *Store {
	if len(allowed) == 0 {
		allowed = DefaultAllowed
	}
	return &Store{root: siteDir, defaultDir: iconDir, allowed: allowed}
}

// Save writes r to destination/<base of fileName>, overwriting any file of
// the same name.
func (s *Store) Save(destination, fileName string, r io.Reader) (UploadResponse, error) {
	name, err := s.checkName(fileName)
	if err != nil {
		return UploadResponse{}, err
	}
	dir, err := s.resolve(destination)
	if err != nil {
		return UploadResponse{}, err
	}

	if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
		return UploadResponse{}, fmt.Errorf("creating destination: %w", err)
	}

	full := filepath.Join(s.root, dir, name)
	f, err := os.Create(full)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("creating %s: %w", full, err)
	}
	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return UploadResponse{}, fmt.Errorf("writing %s: %w", full, copyErr)
	}
	if closeErr != nil {
		return UploadResponse{}, fmt.Errorf("closing %s: %w", full, closeErr)
	}

	return UploadResponse{
		Message:  "Icon uploaded",
		FileName: name,
		FilePath: PublicPath(dir, name),
		Size:     size,
	}, nil
}

// Remove deletes an icon file. It is located by publicPath when set, so
// icons uploaded to a custom destination are found, and otherwise by
// fileName in the default icon directory. Only allowed icon files inside
// the site root can be removed.
func (s *Store) Remove(publicPath, fileName string) error {
	rel, err := s.locate(publicPath, fileName)
	if err != nil {
		return err
	}
	full := filepath.Join(s.root, rel)
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("removing %s: %w", full, err)
	}
	return nil
}

func (s *Store) locate(publicPath, fileName string) (string, error) {
	if p := strings.TrimSpace(publicPath); p != "" {
		rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(p, "/")))
		if !filepath.IsLocal(rel) {
			return "", fmt.Errorf("%w: %q", ErrInvalidDestination, publicPath)
		}
		name := filepath.Base(rel)
		if strings.HasPrefix(name, ".") || !s.Allowed(name) {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, publicPath)
		}
		return rel, nil
	}
	name := filepath.Base(filepath.FromSlash(fileName))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, fileName)
	}
	return filepath.Join(s.defaultDir, name), nil
}

// Allowed reports whether name matches one of the allowed patterns.
func (s *Store) Allowed(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range s.allowed {
		if ok, err := doublestar.Match(strings.ToLower(pattern), lower); err == nil && ok {
			return true
		}
	}
	return false
}

// PublicPath returns the URL path of name inside dir.
func PublicPath(dir, name string) string {
	return path.Join("/", filepath.ToSlash(dir), name)
}

func (s *Store) checkName(fileName string) (string, error) {
	name := filepath.Base(filepath.FromSlash(strings.ReplaceAll(fileName, `\`, "/")))
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, fileName)
	}
	if !s.Allowed(name) {
		return "", fmt.Errorf("%w: %q is not an allowed icon type", ErrInvalidName, name)
	}
	return name, nil
}

func (s *Store) resolve(destination string) (string, error) {
	if strings.TrimSpace(destination) == "" {
		return s.defaultDir, nil
	}
	dir := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(destination, "/")))
	if !filepath.IsLocal(dir) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDestination, destination)
	}
	return dir, nil
}
