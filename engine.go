package sessiongate

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/cityhealth/sessiongate/internal/endpoint"
	"github.com/cityhealth/sessiongate/session"
)

// Engine is the single owner of the session: it mutates the token store and
// the derived status, and publishes every transition to subscribers. Build
// one per process via [Builder.Build]; methods are safe for concurrent use.
type Engine struct {
	config  Config
	store   TokenStore
	api     *endpoint.Client
	metrics *Metrics
	log     zerolog.Logger
	checker *validator.Validate

	mu      sync.Mutex
	token   string
	sess    Session
	subs    map[uint64]func(Session)
	nextSub uint64
}

// Session returns a point-in-time snapshot of the derived state. The zero
// engine reports [StatusUnknown].
func (e *Engine) Session() Session {
	if e == nil {
		return Session{Status: StatusUnknown}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(e.sess)
}

// Token returns the current bearer credential, or "" when anonymous. The
// token is handed out for attaching Authorization headers (see [Transport])
// and must not be persisted elsewhere.
func (e *Engine) Token() string {
	if e == nil {
		return ""
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.token
}

// Subscribe registers fn to observe every session transition, starting with
// the next one. The returned cancel function removes the subscription and is
// idempotent. fn is called synchronously on the mutating goroutine and must
// not block; it may call Session, Token, or Subscribe, but not the mutating
// Engine methods.
func (e *Engine) Subscribe(fn func(Session)) (cancel func()) {
	if e == nil || fn == nil {
		return func() {}
	}

	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Hydrate reconstructs the session from the token store: StatusAuthenticated
// with the stored profile when a valid pair is present, StatusAnonymous
// otherwise. It transitions through StatusLoading while the read is in
// flight and is safe to call repeatedly; concurrent calls are
// last-write-wins on the derived status.
//
// A corrupt persisted record is recovered silently — the store clears it,
// Hydrate reports anonymous, and no error is returned. Only storage I/O
// failures surface as errors, and those also leave the session anonymous.
func (e *Engine) Hydrate(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}

	e.metrics.Inc(MetricHydrate)
	e.setSession(StatusLoading, "", nil)

	rec, ok, err := e.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrCorruptRecord) {
			e.metrics.Inc(MetricStorageCorrupt)
			e.log.Debug().Err(err).Msg("corrupt session record cleared during hydrate")
			e.setSession(StatusAnonymous, "", nil)
			return nil
		}
		e.log.Warn().Err(err).Msg("token store unavailable during hydrate")
		e.setSession(StatusAnonymous, "", nil)
		return err
	}
	if !ok {
		e.setSession(StatusAnonymous, "", nil)
		return nil
	}

	user := rec.User
	e.setSession(StatusAuthenticated, rec.Token, &user)
	e.log.Debug().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session hydrated")
	return nil
}

// CheckAuth synchronizes the session from the token store and reports
// whether the result is authenticated. It trusts the local pair; see the
// package documentation's trust model for the staleness trade-off.
func (e *Engine) CheckAuth(ctx context.Context) bool {
	if e == nil {
		return false
	}

	_ = e.Hydrate(ctx)
	return e.Session().Authenticated()
}

// MetricsSnapshot returns a deep copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics returns the engine's counter set for callers that record their own
// gate decisions. A nil engine returns a nil, no-op instance.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// Close releases idle HTTP connections. The engine is unusable afterwards
// only in the sense that new calls may re-dial; it holds no other resources.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	// Subscribers are dropped so a forgotten cancel cannot leak callbacks.
	e.mu.Lock()
	e.subs = make(map[uint64]func(Session))
	e.mu.Unlock()
}

// setSession installs the new state and notifies subscribers outside the
// lock. Callbacks observe transitions in order because mutators serialize on
// the operations themselves (single-writer model); a torn notification order
// is only possible when mutating methods race, which the contract excludes.
func (e *Engine) setSession(status Status, token string, user *UserProfile) {
	e.mu.Lock()
	e.token = token
	e.sess = Session{Status: status, User: user}
	snapshot := copySession(e.sess)
	fns := make([]func(Session), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func copySession(s Session) Session {
	if s.User == nil {
		return Session{Status: s.Status}
	}
	user := *s.User
	return Session{Status: s.Status, User: &user}
}
