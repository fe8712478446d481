package iconconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ziadkadry99/overlay-studio/internal/assets"
)

// Client talks to the config and asset stores over HTTP.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetTimeout bounds every request, uploads included.
func (c *Client) SetTimeout(d time.Duration) { c.http.Timeout = d }

// Fetch reads the whole configuration document.
func (c *Client) Fetch(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/icon-config", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	doc := Empty()
	if err := c.do(req, doc); err != nil {
		return nil, err
	}
	if doc.Icons == nil {
		doc.Icons = map[string]IconConfig{}
	}
	return doc, nil
}

// Save upserts cfg.
func (c *Client) Save(ctx context.Context, cfg IconConfig) (SaveResult, error) {
	var out SaveResult
	req, err := c.jsonRequest(ctx, http.MethodPost, saveRequest{IconSettings: &cfg})
	if err != nil {
		return out, err
	}
	err = c.do(req, &out)
	return out, err
}

// Delete removes the icon with the given id, and its file when deleteFile
// is set.
func (c *Client) Delete(ctx context.Context, id string, deleteFile bool) (DeleteResult, error) {
	var out DeleteResult
	req, err := c.jsonRequest(ctx, http.MethodDelete, deleteRequest{IconID: id, DeleteFile: deleteFile})
	if err != nil {
		return out, err
	}
	err = c.do(req, &out)
	return out, err
}

// Upload sends an icon binary to the asset store. An empty destination
// uses the server default.
func (c *Client) Upload(ctx context.Context, fileName string, r io.Reader, destination string) (assets.UploadResponse, error) {
	var out assets.UploadResponse

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("icon", fileName)
	if err != nil {
		return out, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return out, fmt.Errorf("copying icon: %w", err)
	}
	if destination != "" {
		if err := mw.WriteField("destination", destination); err != nil {
			return out, fmt.Errorf("writing destination: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return out, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/upload-icon", &body)
	if err != nil {
		return out, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	err = c.do(req, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method string, v any) (*http.Request, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+"/icon-config", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}
