package endpoint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cityhealth/sessiongate/session"
)

// maxErrorBody caps how much of a failure response is read when extracting
// the server-provided reason.
const maxErrorBody = 64 << 10

type requestIDContextKey struct{}

// ContextWithRequestID attaches a correlation ID sent as X-Request-ID on
// every backend call made under ctx. When absent, a fresh UUID is generated
// per call.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// Config holds the collaborator URLs. LoginURL, RegisterURL, and LogoutURL
// are required by the engine's config validation; ValidateURL is optional.
type Config struct {
	LoginURL    string
	RegisterURL string
	LogoutURL   string
	ValidateURL string
}

// Client calls the backend authentication endpoints. It is safe for
// concurrent use.
type Client struct {
	http *http.Client
	cfg  Config
	log  zerolog.Logger
}

// New creates a Client on hc. hc must not be nil; the engine builder supplies
// a timeout-configured client.
func New(hc *http.Client, cfg Config, log zerolog.Logger) *Client {
	return &Client{http: hc, cfg: cfg, log: log}
}

// CallError is a failed endpoint call. Status is zero for transport-level
// failures; Reason carries the server-provided message when one was present
// in the response body.
type CallError struct {
	Op     string
	Status int
	Reason string
	cause  error
}

func (e *CallError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.cause)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *CallError) Unwrap() error { return e.cause }

// Result is a successful login or registration response.
type Result struct {
	Token string
	User  session.Profile
}

// LoginRequest is the login wire payload. Role is forwarded as-is; the
// backend treats it as the surface the user logged in from.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// RegisterRequest is the registration wire payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

type authPayload struct {
	Token string          `json:"token"`
	User  session.Profile `json:"user"`
}

// Login posts credentials to the Authentication Endpoint.
func (c *Client) Login(ctx context.Context, req LoginRequest) (Result, error) {
	return c.authCall(ctx, "login", c.cfg.LoginURL, req)
}

// Register posts the profile payload to the Registration Endpoint. The
// response contract is identical to Login.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (Result, error) {
	return c.authCall(ctx, "register", c.cfg.RegisterURL, req)
}

func (c *Client) authCall(ctx context.Context, op, url string, body any) (Result, error) {
	resp, err := c.post(ctx, op, url, body, "")
	if err != nil {
		return Result{}, err
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, c.failure(op, resp)
	}

	var payload authPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&payload); err != nil {
		return Result{}, &CallError{Op: op, Status: resp.StatusCode, Reason: "malformed response body", cause: err}
	}
	if payload.Token == "" {
		return Result{}, &CallError{Op: op, Status: resp.StatusCode, Reason: "response missing token"}
	}
	if payload.User.ID == "" {
		return Result{}, &CallError{Op: op, Status: resp.StatusCode, Reason: "response missing user"}
	}
	if !payload.User.Role.Valid() {
		return Result{}, &CallError{
			Op:     op,
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("response carries unknown role %q", string(payload.User.Role)),
		}
	}

	return Result{Token: payload.Token, User: payload.User}, nil
}

// Logout posts to the Logout Endpoint with the bearer token. Callers treat
// the result as best-effort.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.post(ctx, "logout", c.cfg.LogoutURL, struct{}{}, token)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.failure("logout", resp)
	}
	return nil
}

// Validate asks the backend whether token is still honored. It returns
// (false, nil) on 401/403 — a definitive "no" — and an error for transport
// failures or unexpected statuses, which prove nothing about the token.
func (c *Client) Validate(ctx context.Context, token string) (bool, error) {
	if c.cfg.ValidateURL == "" {
		return false, &CallError{Op: "validate", Reason: "validate endpoint not configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ValidateURL, nil)
	if err != nil {
		return false, &CallError{Op: "validate", cause: err}
	}
	c.setHeaders(ctx, req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, &CallError{Op: "validate", cause: err}
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, nil
	default:
		return false, c.failure("validate", resp)
	}
}

func (c *Client) post(ctx context.Context, op, url string, body any, token string) (*http.Response, error) {
	blob, err := json.Marshal(body)
	if err != nil {
		return nil, &CallError{Op: op, cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(blob))
	if err != nil {
		return nil, &CallError{Op: op, cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(ctx, req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &CallError{Op: op, cause: err}
	}
	return resp, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, token string) {
	id := requestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", id)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// failure builds a CallError from a non-2xx response, preferring the
// server-provided reason under the error, detail, or message keys.
func (c *Client) failure(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	reason := extractReason(body)
	if reason == "" {
		c.log.Debug().
			Str("op", op).
			Int("status", resp.StatusCode).
			Msg("endpoint failure without server-provided reason")
	}

	return &CallError{Op: op, Status: resp.StatusCode, Reason: reason}
}

func extractReason(body []byte) string {
	var fields struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	switch {
	case fields.Error != "":
		return fields.Error
	case fields.Detail != "":
		return fields.Detail
	case fields.Message != "":
		return fields.Message
	}
	return ""
}

func drain(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxErrorBody))
	_ = rc.Close()
}
