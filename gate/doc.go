// Package gate decides whether a session may reach a guarded view.
//
// [Evaluate] is the pure truth table: pending while the session status is
// undetermined, deny-anonymous for signed-out sessions, allow or
// deny-forbidden for signed-in ones depending on the allowed role set. The
// other entry points are delivery mechanisms for that one function:
// [Watcher] for long-lived views that must react when the session changes
// underneath them, [Guard] for browser-facing http handlers (redirects), and
// [RequireRoles] for JSON APIs (401/403).
//
// Denial is never an error or a panic here — it is a state the caller
// renders. The gate reads sessions; it never mutates them.
package gate
