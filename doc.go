// Package sessiongate owns the client-side session of a City Health Clinic
// front end: the bearer credential, the cached user profile, and every
// role-gated access decision derived from them.
//
// The package is designed around a single writer: [Engine] methods (Login,
// Register, Logout, CheckAuth, Invalidate) are the only mutators of the
// persisted token/profile pair and of the derived session status. Everything
// else — guards, page handlers, background jobs — reads snapshots via
// [Engine.Session] or subscribes to transitions via [Engine.Subscribe].
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// sessiongate is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Session, UserProfile, Role, MetricsSnapshot).
// Storage backends live in the session sub-package, access decisions in the
// gate sub-package, and the HTTP client for the clinic backend under
// internal/ where it is never exported.
//
// # What this package must NOT do
//
//   - Inspect the bearer token. It is an opaque string issued and interpreted
//     by the backend only.
//   - Trust role strings from storage or the wire. Roles outside the closed
//     admin/doctor/patient set are rejected at the boundary.
//   - Perform network I/O outside of Engine methods (construction via Builder
//     is allocation-only until Build).
//
// # Trust model
//
// CheckAuth trusts the locally persisted pair and does not re-validate the
// token against the backend; a revoked token is discovered reactively when a
// downstream call returns 401 (route that signal to [Engine.Invalidate]) or
// proactively via the opt-in [Engine.Validate]. The staleness window is
// bounded only by how often the application calls Validate.
package sessiongate
