// Package upstream is the HTTP client for the external ticketing backend.
// Every call site gets one normalized shape back: response payloads arrive
// wrapped under "data", under an endpoint-named field, or bare, and that
// difference is resolved here, never in handlers.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// APIError carries the upstream's user-facing message for a failed call. The
// backend answers in Portuguese or English depending on the endpoint, so both
// message fields are checked.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream error (status %d)", e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New() *Client {
	base := os.Getenv("TICKETING_API_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	return NewWithBase(base)
}

func NewWithBase(base string) *Client {
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Do performs one JSON round trip. token is forwarded as a bearer header when
// present. The raw response body is returned for the caller to decode through
// Unwrap.
func (c *Client) Do(ctx context.Context, method, path, token string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach ticketing service: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: extractMessage(bodyBytes)}
	}
	return bodyBytes, nil
}

// envelope covers every wrapping the backend uses across endpoints.
type envelope struct {
	Success  *bool           `json:"success"`
	Message  string          `json:"message"`
	Mensagem string          `json:"mensagem"`
	Data     json.RawMessage `json:"data"`
}

// Unwrap decodes a response into out. A 2xx answer with success:false is a
// business rejection and comes back as *APIError so call sites treat it the
// same as a transport failure. field names an endpoint-specific wrapper (e.g.
// "cart", "carts", "payment") tried before "data"; pass "" for bare bodies.
func Unwrap(raw []byte, field string, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Success != nil && !*env.Success {
			msg := env.Message
			if msg == "" {
				msg = env.Mensagem
			}
			return &APIError{StatusCode: http.StatusOK, Message: msg}
		}
	}

	if out == nil {
		return nil
	}

	if field != "" {
		var named map[string]json.RawMessage
		if err := json.Unmarshal(raw, &named); err == nil {
			if inner, ok := named[field]; ok && len(inner) > 0 && string(inner) != "null" {
				return json.Unmarshal(inner, out)
			}
		}
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(raw, out)
}

func extractMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Mensagem != "" {
			return env.Mensagem
		}
	}
	var alt struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &alt); err == nil && alt.Error != "" {
		return alt.Error
	}
	return ""
}
