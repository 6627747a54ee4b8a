package sessiongate

import (
	"net/http"
)

// Transport is an [http.RoundTripper] for downstream clinic resource calls
// (appointments, doctors, patients). It attaches the current bearer token
// as an Authorization header when one is held, and routes a 401 response to
// [Engine.Invalidate] so the whole front end observes the session ending at
// once.
//
// Requests that already carry an Authorization header pass through
// untouched.
type Transport struct {
	// Engine supplies the token and receives the unauthorized signal.
	Engine *Engine
	// Base performs the request; nil means http.DefaultTransport.
	Base http.RoundTripper
}

// NewTransport wraps base with bearer handling for eng. A convenience for
// building an *http.Client:
//
//	client := &http.Client{Transport: sessiongate.NewTransport(engine, nil)}
func NewTransport(eng *Engine, base http.RoundTripper) *Transport {
	return &Transport{Engine: eng, Base: base}
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	token := t.Engine.Token()
	if token != "" && req.Header.Get("Authorization") == "" {
		// Per RoundTripper contract the request must not be mutated.
		clone := req.Clone(req.Context())
		clone.Header.Set("Authorization", "Bearer "+token)
		req = clone
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		// Only invalidate when the rejected credential is the one we sent;
		// a 401 on an anonymous request says nothing about our session.
		t.Engine.Invalidate(req.Context())
	}

	return resp, nil
}
