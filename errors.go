package sessiongate

import (
	"errors"
	"fmt"

	"github.com/cityhealth/sessiongate/internal/endpoint"
)

var (
	// ErrInvalidCredentials is returned when login or registration input fails
	// local validation before any network call.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRoleMismatch is returned when a login requested one role and the
	// backend assigned another. Nothing is persisted on this error.
	ErrRoleMismatch = errors.New("requested role does not match assigned role")
	// ErrEndpointFailure is returned when the backend rejected the call or
	// could not be reached. The wrapping AuthError carries the reason.
	ErrEndpointFailure = errors.New("authentication endpoint failure")
	// ErrStorageFailure is returned when the token store could not persist a
	// successful login or registration. Session state is left unchanged.
	ErrStorageFailure = errors.New("token store failure")
	// ErrValidateDisabled is returned by Validate when no validate endpoint is
	// configured.
	ErrValidateDisabled = errors.New("validate endpoint not configured")
	// ErrEngineNotReady is returned when a method is called on a nil or
	// unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// AuthError is a failed login or registration. It is safe to show Reason to
// the user: it is either the server-provided message or a short generic one.
// Existing session state is never altered by an operation that returns an
// AuthError.
type AuthError struct {
	// Op is the operation that failed: "login" or "register".
	Op string
	// StatusCode is the HTTP status of the backend response, or zero when the
	// failure happened before a response (validation, transport).
	StatusCode int
	// Reason is the human-readable message to surface.
	Reason string

	err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Reason)
}

func (e *AuthError) Unwrap() error { return e.err }

func newAuthError(op string, sentinel error, reason string) *AuthError {
	return &AuthError{Op: op, Reason: reason, err: sentinel}
}

// authErrorFromCall converts an endpoint failure into the public AuthError,
// preserving the server-provided reason when one exists.
func authErrorFromCall(op string, err error) *AuthError {
	var callErr *endpoint.CallError
	if errors.As(err, &callErr) {
		reason := callErr.Reason
		if reason == "" {
			if callErr.Status != 0 {
				reason = fmt.Sprintf("the server rejected the request (status %d)", callErr.Status)
			} else {
				reason = "the authentication service could not be reached"
			}
		}
		return &AuthError{
			Op:         op,
			StatusCode: callErr.Status,
			Reason:     reason,
			err:        fmt.Errorf("%w: %w", ErrEndpointFailure, err),
		}
	}
	return &AuthError{
		Op:     op,
		Reason: "the authentication service could not be reached",
		err:    fmt.Errorf("%w: %w", ErrEndpointFailure, err),
	}
}
