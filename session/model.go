package session

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Role is the coarse permission class assigned to a clinic account. It is a
// closed set; strings outside the three known values are rejected at the
// storage boundary rather than trusted.
type Role string

const (
	// RoleAdmin may manage every clinic resource.
	RoleAdmin Role = "admin"
	// RoleDoctor may manage their own schedule and assigned patients.
	RoleDoctor Role = "doctor"
	// RolePatient may manage their own appointments and profile.
	RolePatient Role = "patient"
)

// Valid reports whether r is one of the three recognized clinic roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// ParseRole converts a raw string into a [Role], rejecting anything outside
// the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Profile is the cached account profile associated with a bearer token. The
// JSON field names follow the backend's wire format; a Profile is only
// meaningful paired with a non-empty token and the two are written and
// cleared together.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`

	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Record is the persisted pair: the opaque bearer token and the profile it
// authenticates.
type Record struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// validate rejects records that must never be handed back to the engine: a
// missing token, a missing profile identity, or a role outside the closed set.
func (r Record) validate() error {
	if r.Token == "" {
		return fmt.Errorf("record has no token")
	}
	if r.User.ID == "" {
		return fmt.Errorf("record has no user id")
	}
	if !r.User.Role.Valid() {
		return fmt.Errorf("unknown role %q", string(r.User.Role))
	}
	return nil
}

func encodeProfile(p Profile) ([]byte, error) {
	return json.Marshal(p)
}

func decodeProfile(raw []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
