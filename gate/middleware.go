package gate

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	sessiongate "github.com/cityhealth/sessiongate"
)

type sessionContextKey struct{}

// SessionFromContext returns the session snapshot injected by [Guard] or
// [RequireRoles] for an admitted request.
func SessionFromContext(ctx context.Context) (sessiongate.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(sessiongate.Session)
	return sess, ok
}

// RedirectConfig names the surfaces [Guard] sends denied browsers to.
type RedirectConfig struct {
	// LoginURL receives anonymous sessions. Required.
	LoginURL string
	// ForbiddenURL receives authenticated sessions with the wrong role.
	// Empty falls back to LoginURL.
	ForbiddenURL string
}

// Guard is browser-facing middleware around [Evaluate]: it admits requests
// whose session holds one of the allowed roles, redirects (303) denied ones
// to the configured surfaces, and answers 503 with Retry-After while the
// session status is still undetermined. A session with unknown status is
// hydrated defensively before deciding.
//
// The decision is re-made per request, so a logout between requests is
// observed immediately; on an admitted request the snapshot is available
// downstream via [SessionFromContext].
func Guard(eng *sessiongate.Engine, redirect RedirectConfig, allowed ...sessiongate.Role) func(http.Handler) http.Handler {
	forbiddenURL := redirect.ForbiddenURL
	if forbiddenURL == "" {
		forbiddenURL = redirect.LoginURL
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := decide(eng, r)

			switch Evaluate(sess, allowed...) {
			case DecisionAllow:
				eng.Metrics().Inc(sessiongate.MetricGateAllow)
				ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
				next.ServeHTTP(w, r.WithContext(ctx))
			case DecisionDenyAnonymous:
				eng.Metrics().Inc(sessiongate.MetricGateDenyAnonymous)
				http.Redirect(w, r, redirect.LoginURL, http.StatusSeeOther)
			case DecisionDenyForbidden:
				eng.Metrics().Inc(sessiongate.MetricGateDenyForbidden)
				http.Redirect(w, r, forbiddenURL, http.StatusSeeOther)
			default:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session loading", http.StatusServiceUnavailable)
			}
		})
	}
}

// RequireRoles is the API variant of [Guard]: instead of redirecting it
// answers 401 for anonymous sessions and 403 for wrong-role ones, with a
// small JSON body carrying the denial reason.
func RequireRoles(eng *sessiongate.Engine, allowed ...sessiongate.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := decide(eng, r)

			switch Evaluate(sess, allowed...) {
			case DecisionAllow:
				eng.Metrics().Inc(sessiongate.MetricGateAllow)
				ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
				next.ServeHTTP(w, r.WithContext(ctx))
			case DecisionDenyAnonymous:
				eng.Metrics().Inc(sessiongate.MetricGateDenyAnonymous)
				denyJSON(w, http.StatusUnauthorized, "authentication required")
			case DecisionDenyForbidden:
				eng.Metrics().Inc(sessiongate.MetricGateDenyForbidden)
				denyJSON(w, http.StatusForbidden, "insufficient role")
			default:
				w.Header().Set("Retry-After", "1")
				denyJSON(w, http.StatusServiceUnavailable, "session loading")
			}
		})
	}
}

// decide reads the session, hydrating defensively when the engine has not
// been hydrated yet.
func decide(eng *sessiongate.Engine, r *http.Request) sessiongate.Session {
	sess := eng.Session()
	if sess.Status == sessiongate.StatusUnknown {
		_ = eng.Hydrate(r.Context())
		sess = eng.Session()
	}
	return sess
}

func denyJSON(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
