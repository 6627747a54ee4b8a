package sessiongate

import (
	"context"
)

// Logout ends the session. Local cleanup — clearing the token store and
// transitioning to [StatusAnonymous] — is unconditional and happens first;
// the Logout Endpoint is then notified best-effort with the token the
// session held. An endpoint failure is logged and counted, never returned:
// the only error Logout reports is a token store that refused to clear, and
// even then the in-memory session is already anonymous.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	token := e.token
	e.mu.Unlock()

	clearErr := e.store.Clear(ctx)
	if clearErr != nil {
		e.log.Warn().Err(clearErr).Msg("token store clear failed during logout")
	}
	e.setSession(StatusAnonymous, "", nil)
	e.metrics.Inc(MetricLogout)

	if token != "" {
		if err := e.api.Logout(ctx, token); err != nil {
			e.metrics.Inc(MetricLogoutEndpointFailure)
			e.log.Warn().Err(err).Msg("logout endpoint notification failed")
		}
	}

	return clearErr
}

// Invalidate is the single entry point for the downstream 401 signal: any
// resource call that comes back Unauthorized routes here. It clears the
// store and the session without calling the network — the backend already
// told us the token is dead.
func (e *Engine) Invalidate(ctx context.Context) {
	if e == nil {
		return
	}

	if err := e.store.Clear(ctx); err != nil {
		e.log.Warn().Err(err).Msg("token store clear failed during invalidation")
	}
	e.setSession(StatusAnonymous, "", nil)
	e.metrics.Inc(MetricSessionInvalidated)
	e.log.Info().Msg("session invalidated by unauthorized signal")
}

// Validate asks the backend whether the current token is still honored.
// It requires Endpoints.ValidateURL to be configured and returns
// [ErrValidateDisabled] otherwise. A definitive rejection (401/403)
// invalidates the session and returns (false, nil); transport failures
// return an error and change nothing, since they prove nothing about the
// token. An anonymous session validates trivially false.
func (e *Engine) Validate(ctx context.Context) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	if e.config.Endpoints.ValidateURL == "" {
		return false, ErrValidateDisabled
	}

	e.mu.Lock()
	token := e.token
	e.mu.Unlock()
	if token == "" {
		return false, nil
	}

	ok, err := e.api.Validate(ctx, token)
	if err != nil {
		e.log.Warn().Err(err).Msg("token re-check failed")
		return false, err
	}
	if !ok {
		e.metrics.Inc(MetricValidateRejected)
		e.Invalidate(ctx)
		return false, nil
	}

	e.metrics.Inc(MetricValidateSuccess)
	return true, nil
}
