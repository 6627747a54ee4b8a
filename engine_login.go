package sessiongate

import (
	"context"
	"time"

	"github.com/cityhealth/sessiongate/internal/endpoint"
	"github.com/cityhealth/sessiongate/session"
)

// Login authenticates against the Authentication Endpoint and, on success,
// persists the returned token/profile pair and transitions the session to
// [StatusAuthenticated]. On any failure — local validation, transport,
// non-2xx, malformed response, role mismatch, or storage — it returns an
// [*AuthError] and leaves both the token store and the session exactly as
// they were.
//
// When creds.Role is set, the server-assigned role must match it; a mismatch
// fails with [ErrRoleMismatch] rather than signing the user into a surface
// they did not ask for.
func (e *Engine) Login(ctx context.Context, creds Credentials) (UserProfile, error) {
	if e == nil {
		return UserProfile{}, ErrEngineNotReady
	}

	if err := e.checker.Struct(creds); err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return UserProfile{}, newAuthError("login", ErrInvalidCredentials, "email and password are required")
	}

	start := time.Now()
	res, err := e.api.Login(ctx, endpoint.LoginRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Role:     string(creds.Role),
	})
	e.metrics.Observe(MetricLoginLatency, time.Since(start))
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		authErr := authErrorFromCall("login", err)
		e.log.Warn().Str("email", creds.Email).Int("status", authErr.StatusCode).Msg("login rejected")
		return UserProfile{}, authErr
	}

	if creds.Role != "" && creds.Role != res.User.Role {
		e.metrics.Inc(MetricLoginFailure)
		e.log.Warn().
			Str("requested_role", string(creds.Role)).
			Str("assigned_role", string(res.User.Role)).
			Msg("login role mismatch")
		return UserProfile{}, newAuthError("login", ErrRoleMismatch,
			"this account is registered as a "+string(res.User.Role))
	}

	return e.adopt(ctx, "login", MetricLoginSuccess, MetricLoginFailure, res)
}

// Register creates an account via the Registration Endpoint. The response
// contract and all success/failure behavior mirror [Engine.Login]: a
// successful registration signs the new user in.
func (e *Engine) Register(ctx context.Context, reg Registration) (UserProfile, error) {
	if e == nil {
		return UserProfile{}, ErrEngineNotReady
	}

	if err := e.checker.Struct(reg); err != nil {
		e.metrics.Inc(MetricRegisterFailure)
		return UserProfile{}, newAuthError("register", ErrInvalidCredentials,
			"registration details are incomplete or invalid")
	}

	res, err := e.api.Register(ctx, endpoint.RegisterRequest{
		Email:     reg.Email,
		Password:  reg.Password,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Role:      string(reg.Role),
		Phone:     reg.Phone,
		Address:   reg.Address,
	})
	if err != nil {
		e.metrics.Inc(MetricRegisterFailure)
		authErr := authErrorFromCall("register", err)
		e.log.Warn().Str("email", reg.Email).Int("status", authErr.StatusCode).Msg("registration rejected")
		return UserProfile{}, authErr
	}

	return e.adopt(ctx, "register", MetricRegisterSuccess, MetricRegisterFailure, res)
}

// adopt persists a successful authentication result and installs the new
// session. The store write happens first: if it fails, the previous session
// (possibly another user's) remains fully intact.
func (e *Engine) adopt(ctx context.Context, op string, success, failure MetricID, res endpoint.Result) (UserProfile, error) {
	rec := session.Record{Token: res.Token, User: res.User}
	if err := e.store.Save(ctx, rec); err != nil {
		e.metrics.Inc(failure)
		e.log.Error().Err(err).Str("op", op).Msg("token store rejected authenticated session")
		return UserProfile{}, &AuthError{
			Op:     op,
			Reason: "your session could not be saved",
			err:    ErrStorageFailure,
		}
	}

	user := res.User
	e.setSession(StatusAuthenticated, res.Token, &user)
	e.metrics.Inc(success)
	e.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Str("op", op).Msg("session established")
	return user, nil
}
