// Package internal contains helpers that are intentionally private to
// sessiongate.
//
// # Sub-packages
//
//   - endpoint — HTTP client for the backend authentication endpoints
//
// # What this package must NOT do
//
//   - Export types that appear in the public sessiongate API.
//   - Be imported by any package outside the sessiongate module.
package internal
