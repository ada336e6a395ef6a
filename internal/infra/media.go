package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// MediaClient uploads invoice artifacts (PDF/XML) to the media storage API so
// the POS serves documents from a stable CDN URL instead of the fiscal gateway.
type MediaClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewMediaClient(baseURL, apiKey string) *MediaClient {
	return &MediaClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type mediaUploadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		SecureURL string `json:"secureUrl"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Upload posts the file as multipart form data and returns the hosted URL.
// folder is e.g. "invoices/{storeID}"; tags are comma-joined into one field.
func (c *MediaClient) Upload(ctx context.Context, fileName string, content []byte, folder string, tags string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("media: create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("media: write file part: %w", err)
	}
	if err := w.WriteField("folder", folder); err != nil {
		return "", fmt.Errorf("media: write folder field: %w", err)
	}
	if err := w.WriteField("tags", tags); err != nil {
		return "", fmt.Errorf("media: write tags field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("media: close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("media: create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media: api unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("media: api returned %d", resp.StatusCode)
	}

	var result mediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("media: decode response: %w", err)
	}
	if !result.Success || result.Data.SecureURL == "" {
		return "", fmt.Errorf("media: upload rejected: %s", result.Error)
	}
	return result.Data.SecureURL, nil
}
