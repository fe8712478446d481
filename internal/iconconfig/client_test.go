package iconconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/overlay-studio/internal/assets"
)

func setupServer(t *testing.T) (*Client, *Store, string) {
	t.Helper()
	siteDir := t.TempDir()
	store := newTestStore(t)
	files := assets.NewStore(siteDir, "icons", nil)

	r := chi.NewRouter()
	RegisterRoutes(r, store, Deps{Assets: files})
	assets.RegisterRoutes(r, files, nil, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/"), store, siteDir
}

func TestClientRoundTrip(t *testing.T) {
	client, _, _ := setupServer(t)
	ctx := context.Background()

	doc, err := client.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(doc.Icons) != 0 || doc.LastUpdated != nil {
		t.Errorf("initial doc = %+v, want empty", doc)
	}

	res, err := client.Save(ctx, sampleIcon("a"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.IconCount != 1 {
		t.Errorf("IconCount = %d, want 1", res.IconCount)
	}

	doc, err = client.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, ok := doc.Icons["a"]; !ok || doc.LastUpdated == nil {
		t.Errorf("doc after save = %+v", doc)
	}

	del, err := client.Delete(ctx, "a", false)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if del.RemainingIcons != 0 {
		t.Errorf("RemainingIcons = %d, want 0", del.RemainingIcons)
	}
}

func TestClientErrorsCarryStatus(t *testing.T) {
	client, _, _ := setupServer(t)
	ctx := context.Background()

	_, err := client.Delete(ctx, "ghost", false)
	if !IsNotFound(err) {
		t.Errorf("Delete unknown: err = %v, want 404", err)
	}
	if IsTransient(err) {
		t.Error("404 reported as transient")
	}

	_, err = client.Save(ctx, IconConfig{})
	if !IsValidation(err) {
		t.Errorf("Save without id: err = %v, want 400", err)
	}
}

func TestClientTransportErrorIsTransient(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsTransient(err) {
		t.Errorf("err = %v, want transient", err)
	}
}

func TestClientUpload(t *testing.T) {
	client, _, _ := setupServer(t)

	res, err := client.Upload(context.Background(), "star.png", strings.NewReader("PNGDATA"), "")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.FilePath != "/icons/star.png" || res.Size != 7 {
		t.Errorf("upload = %+v", res)
	}

	_, err = client.Upload(context.Background(), "notes.txt", strings.NewReader("x"), "")
	if !IsValidation(err) {
		t.Errorf("disallowed type: err = %v, want 400", err)
	}
}

func TestClientTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	client := NewClient(slow.URL)
	client.SetTimeout(50 * time.Millisecond)
	if _, err := client.Fetch(context.Background()); !IsTransient(err) {
		t.Errorf("err = %v, want a transient timeout", err)
	}
}
