package gate

import (
	"sync"

	sessiongate "github.com/cityhealth/sessiongate"
)

// Decision is the outcome of evaluating a session against a required role
// set.
type Decision uint8

const (
	// DecisionPending means the session status is still undetermined
	// (unknown or loading). Render a neutral loading affordance; do not
	// navigate.
	DecisionPending Decision = iota
	// DecisionAllow admits the session.
	DecisionAllow
	// DecisionDenyAnonymous rejects a signed-out session; send it to the
	// login surface.
	DecisionDenyAnonymous
	// DecisionDenyForbidden rejects a signed-in session whose role is not in
	// the allowed set; send it to the unauthorized surface.
	DecisionDenyForbidden
)

// String returns a short name for the decision.
func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionDenyAnonymous:
		return "deny-anonymous"
	case DecisionDenyForbidden:
		return "deny-forbidden"
	default:
		return "invalid"
	}
}

// Evaluate maps a session snapshot and an allowed role set to a [Decision].
// An empty allowed set admits any authenticated role.
func Evaluate(sess sessiongate.Session, allowed ...sessiongate.Role) Decision {
	switch sess.Status {
	case sessiongate.StatusUnknown, sessiongate.StatusLoading:
		return DecisionPending
	case sessiongate.StatusAnonymous:
		return DecisionDenyAnonymous
	case sessiongate.StatusAuthenticated:
		if sess.User == nil {
			// Authenticated without a profile violates the engine's pairing
			// invariant; treat it as signed out rather than guessing a role.
			return DecisionDenyAnonymous
		}
		if len(allowed) == 0 {
			return DecisionAllow
		}
		for _, role := range allowed {
			if sess.User.Role == role {
				return DecisionAllow
			}
		}
		return DecisionDenyForbidden
	default:
		return DecisionPending
	}
}

// Watcher keeps a gate decision current for a long-lived view. It evaluates
// once on creation and re-evaluates on every session transition, so an
// Allow never goes stale when a logout (or invalidation) happens elsewhere
// in the process. It subscribes to the engine; it never polls.
type Watcher struct {
	allowed  []sessiongate.Role
	onChange func(Decision)
	cancel   func()

	mu       sync.Mutex
	decision Decision
}

// Watch creates a [Watcher] for the engine's session. onChange, when not
// nil, is invoked for every change of the decision (not for every session
// transition), including navigational denials the view must act on.
// Close the watcher when the view unmounts.
func Watch(eng *sessiongate.Engine, onChange func(Decision), allowed ...sessiongate.Role) *Watcher {
	w := &Watcher{
		allowed:  append([]sessiongate.Role(nil), allowed...),
		onChange: onChange,
		decision: Evaluate(eng.Session(), allowed...),
	}
	w.cancel = eng.Subscribe(func(sess sessiongate.Session) {
		w.update(Evaluate(sess, w.allowed...))
	})
	return w
}

// Decision returns the current decision.
func (w *Watcher) Decision() Decision {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.decision
}

// Close unsubscribes from the engine. Idempotent.
func (w *Watcher) Close() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Watcher) update(next Decision) {
	w.mu.Lock()
	changed := next != w.decision
	w.decision = next
	w.mu.Unlock()

	if changed && w.onChange != nil {
		w.onChange(next)
	}
}
