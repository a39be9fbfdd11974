// Package client talks to the HTTP collaborators: the LLM endpoint, the text
// sentiment and face emotion classifiers, and the tutor backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrClassifierUnavailable is returned when a collaborator cannot be reached
// or answers with a non-2xx status.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// statusError reads a truncated body for the error message.
func statusError(name string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%w: %s %s: %s", ErrClassifierUnavailable, name, resp.Status, bytes.TrimSpace(body))
}

// postJSON sends in as JSON and decodes the 2xx reply into out.
func postJSON(ctx context.Context, c *http.Client, name, url string, header http.Header, in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", name, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	return do(c, name, req, out)
}

// postImage uploads image as the multipart field "image".
func postImage(ctx context.Context, c *http.Client, name, url, filename string, image io.Reader, out interface{}) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("image", filename)
	if err != nil {
		return fmt.Errorf("%s: create form file: %w", name, err)
	}
	if _, err := io.Copy(fw, image); err != nil {
		return fmt.Errorf("%s: copy image: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: close form: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &b)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", name, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return do(c, name, req, out)
}

func do(c *http.Client, name string, req *http.Request, out interface{}) error {
	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrClassifierUnavailable, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(name, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", name, err)
	}
	return nil
}
