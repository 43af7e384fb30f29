package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Response is the result of a gateway call. Unauthorized is set when the
// status was one of the intercepted auth-failure codes; the handler has
// already been notified by the time the caller sees it.
type Response struct {
	*http.Response
	Unauthorized bool
}

// OK reports whether the status is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON decodes the body into v and closes it
func (r *Response) DecodeJSON(v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Discard drains and closes the body so the connection can be reused
func (r *Response) Discard() {
	_, _ = io.Copy(io.Discard, r.Body)
	_ = r.Body.Close()
}

// Error returns a descriptive error for a non-2xx response and closes the body
func (r *Response) Error(action string) error {
	defer r.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
	return fmt.Errorf("%s failed (status %d): %s", action, r.StatusCode, string(body))
}
