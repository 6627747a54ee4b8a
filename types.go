package sessiongate

import (
	"github.com/cityhealth/sessiongate/session"
)

// Role is the coarse permission class (admin, doctor, patient) controlling
// which views an account may access.
type Role = session.Role

const (
	// RoleAdmin may manage every clinic resource.
	RoleAdmin = session.RoleAdmin
	// RoleDoctor may manage their own schedule and assigned patients.
	RoleDoctor = session.RoleDoctor
	// RolePatient may manage their own appointments and profile.
	RolePatient = session.RolePatient
)

// ParseRole converts a raw string into a [Role], rejecting anything outside
// the closed set.
func ParseRole(s string) (Role, error) {
	return session.ParseRole(s)
}

// UserProfile is the cached account profile paired with the bearer token.
type UserProfile = session.Profile

// TokenStore is the durable token/profile pair behind the engine. The
// session sub-package ships memory, file, and redis implementations.
type TokenStore = session.Store

// Status is the derived session state. It is computed by the engine and
// never set directly by callers.
type Status uint8

const (
	// StatusUnknown is the state before the first Hydrate.
	StatusUnknown Status = iota
	// StatusLoading is the state while a Hydrate is in flight. Guards treat
	// it as decision-pending, never as denied.
	StatusLoading
	// StatusAuthenticated is the state when a valid token/profile pair is held.
	StatusAuthenticated
	// StatusAnonymous is the state when no pair is held.
	StatusAnonymous
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// Session is a point-in-time snapshot of the engine's derived state. User is
// nil unless Status is StatusAuthenticated. Snapshots are values; holding one
// does not observe later transitions (subscribe for that).
type Session struct {
	User   *UserProfile
	Status Status
}

// Authenticated reports whether the snapshot holds a signed-in user.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Credentials is the transient login input. It is sent to the Authentication
// Endpoint and discarded; nothing here is persisted.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`

	// Role is the surface the user logged in from. When set, the engine
	// requires the server-assigned role to match; see ErrRoleMismatch.
	Role Role `validate:"omitempty,oneof=admin doctor patient"`
}

// Registration is the transient sign-up input, posted to the Registration
// Endpoint. A successful registration behaves exactly like a successful
// login.
type Registration struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=8"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Role      Role   `validate:"required,oneof=admin doctor patient"`

	Phone   string `validate:"omitempty"`
	Address string `validate:"omitempty"`
}
