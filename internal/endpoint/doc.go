// Package endpoint is the HTTP client for the clinic backend's authentication
// surface: login, registration, logout, and the optional token re-check. It
// owns the wire format ({token, user} on success, {error|detail|message} on
// failure) and nothing else.
//
// # What this package must NOT do
//
//   - Persist anything. Storage belongs to the session package.
//   - Interpret the token. It is carried, never parsed.
//   - Retry or guess URL variants. One configured URL per operation.
package endpoint
