package session

import (
	"encoding/json"
	"maps"
)

// RoleAdmin is the role that grants access to admin-only routes
const RoleAdmin = "admin"

// User is the identity record returned by the API. Only Role is interpreted;
// fields the client doesn't know about are kept in Extra.
type User struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	Role        string         `json:"role"`
	Extra       map[string]any `json:"-"`
}

// IsAdmin is safe to call on a nil user
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Clone returns a deep-enough copy so callers can't mutate store state
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Extra = maps.Clone(u.Extra)
	return &c
}

var knownUserFields = map[string]struct{}{
	"id": {}, "email": {}, "display_name": {}, "role": {},
}

// UnmarshalJSON keeps unknown fields in Extra
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range knownUserFields {
		delete(raw, key)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}

	*u = User(p)
	return nil
}

// MarshalJSON writes Extra back alongside the known fields
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+4)
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	out["email"] = u.Email
	out["display_name"] = u.DisplayName
	out["role"] = u.Role
	return json.Marshal(out)
}
