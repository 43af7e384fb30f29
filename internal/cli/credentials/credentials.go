// Package credentials persists the API session cookies between CLI runs
// in the OS keychain/credential manager.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	service = "sessionguard-cli"
)

// ErrNotFound is returned when no cookies are stored for an API
var ErrNotFound = errors.New("no stored session, run 'sessionguard login' first")

// Store defines the interface for cookie storage operations.
// This allows us to mock the keyring in tests.
type Store interface {
	Save(apiURL string, cookies []*http.Cookie) error
	Load(apiURL string) ([]*http.Cookie, error)
	Delete(apiURL string) error
}

// Keyring implements Store using the OS keyring
type Keyring struct{}

// Default is the production store
var Default Store = Keyring{}

// storedCookie is the persisted subset of http.Cookie
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// keyringKey returns a unique key for storing cookies per API
func keyringKey(apiURL string) string {
	return fmt.Sprintf("cookies-%s", apiURL)
}

// Save persists the cookies securely in the OS keychain/credential manager
func (Keyring) Save(apiURL string, cookies []*http.Cookie) error {
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if err := keyring.Set(service, keyringKey(apiURL), string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load retrieves the cookies from the OS keychain/credential manager
func (Keyring) Load(apiURL string) ([]*http.Cookie, error) {
	data, err := keyring.Get(service, keyringKey(apiURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode stored session: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		cookies = append(cookies, &http.Cookie{
			Name:     s.Name,
			Value:    s.Value,
			Path:     s.Path,
			Domain:   s.Domain,
			Expires:  s.Expires,
			Secure:   s.Secure,
			HttpOnly: s.HttpOnly,
		})
	}
	return cookies, nil
}

// Delete removes the cookies from the OS keychain/credential manager
func (Keyring) Delete(apiURL string) error {
	if err := keyring.Delete(service, keyringKey(apiURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
