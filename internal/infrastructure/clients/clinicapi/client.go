package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/zatekoja/clinicdesk/backend/pkg/errors"
)

// maxBodyBytes bounds a single response body
const maxBodyBytes = 8 << 20

// Client reads the clinic REST backend. Every method returns AppErrors of
// type NOT_FOUND, TIMEOUT, EXTERNAL or MALFORMED_RESPONSE.
type Client interface {
	GetObject(ctx context.Context, path string) (json.RawMessage, error)
	GetCollection(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error)
}

// HTTPClient is the net/http implementation of Client
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL; a non-positive timeout defaults to 10s
func NewClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP uses the given http.Client, e.g. one with instrumented transport
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the normalized backend root
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// GetObject fetches a single object, unwrapping a {"data": {...}} envelope.
// A 404 yields a NOT_FOUND error.
func (c *HTTPClient) GetObject(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, apperrors.NewMalformedResponseError(fmt.Sprintf("expected object from %s", path), nil)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, apperrors.NewMalformedResponseError(fmt.Sprintf("invalid JSON from %s", path), err)
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) > 0 && data[0] == '{' {
		return data, nil
	}
	return trimmed, nil
}

// GetCollection fetches a list that arrives either as a bare array or as a
// {"data": [...]} envelope. A 404 yields a NOT_FOUND error.
func (c *HTTPClient) GetCollection(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return decodeCollection(path, body)
}

func decodeCollection(path string, body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, apperrors.NewMalformedResponseError(fmt.Sprintf("empty body from %s", path), nil)
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, apperrors.NewMalformedResponseError(fmt.Sprintf("invalid array from %s", path), err)
		}
		return items, nil
	case '{':
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, apperrors.NewMalformedResponseError(fmt.Sprintf("invalid JSON from %s", path), err)
		}
		data := bytes.TrimSpace(envelope.Data)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return []json.RawMessage{}, nil
		}
		if data[0] != '[' {
			return nil, apperrors.NewMalformedResponseError(fmt.Sprintf("envelope from %s has no data array", path), nil)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, apperrors.NewMalformedResponseError(fmt.Sprintf("invalid data array from %s", path), err)
		}
		return items, nil
	default:
		return nil, apperrors.NewMalformedResponseError(fmt.Sprintf("expected array from %s", path), nil)
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	parsed, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, apperrors.NewInternalError("invalid backend path", err)
	}
	if len(query) > 0 {
		parsed.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build backend request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s not found", path))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("clinic api returned status %d for %s", resp.StatusCode, path), nil)
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		return nil, apperrors.NewMalformedResponseError(fmt.Sprintf("non-JSON content type %q from %s", resp.Header.Get("Content-Type"), path), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(path, err)
	}
	return body, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func transportError(path string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTimeoutError(fmt.Sprintf("request to %s timed out", path), err)
	}
	return apperrors.NewExternalError(fmt.Sprintf("request to %s failed", path), err)
}
