package sessiongate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/cityhealth/sessiongate/session"
)

func TestLoginSuccessEstablishesSession(t *testing.T) {
	user := testProfile(RoleDoctor)
	srv := authBackend(t, "tok-doctor", user)
	store := session.NewMemoryStore()

	engine := newTestEngine(t, backendConfig(srv.URL), store)

	got, err := engine.Login(context.Background(), Credentials{
		Email:    user.Email,
		Password: "s3cret-pw",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got.ID != user.ID || got.Role != RoleDoctor {
		t.Fatalf("unexpected profile: %+v", got)
	}

	sess := engine.Session()
	if !sess.Authenticated() || sess.User.Role != RoleDoctor {
		t.Fatalf("expected authenticated doctor session, got %+v", sess)
	}
	if engine.Token() != "tok-doctor" {
		t.Fatalf("expected token tok-doctor, got %q", engine.Token())
	}

	// Token and profile were persisted as one pair.
	rec, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected persisted record, ok=%v err=%v", ok, err)
	}
	if rec.Token != "tok-doctor" || rec.User.ID != user.ID {
		t.Fatalf("unexpected persisted record: %+v", rec)
	}

	if got := engine.MetricsSnapshot().Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("expected 1 login success, got %d", got)
	}
}

func TestLoginValidationFailureSkipsNetwork(t *testing.T) {
	srv := deadBackend(t)
	engine := newTestEngine(t, backendConfig(srv.URL), nil)

	cases := []Credentials{
		{Email: "", Password: "pw"},
		{Email: "not-an-email", Password: "pw"},
		{Email: "a@b.com", Password: ""},
	}
	for _, creds := range cases {
		_, err := engine.Login(context.Background(), creds)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("creds %+v: expected ErrInvalidCredentials, got %v", creds, err)
		}
		var authErr *AuthError
		if !errors.As(err, &authErr) || authErr.Reason == "" {
			t.Fatalf("creds %+v: expected AuthError with reason, got %v", creds, err)
		}
	}

	if engine.Session().Status != StatusUnknown {
		t.Fatal("validation failures must not touch the session")
	}
}

func TestLoginRejectedLeavesExistingSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "wrong password"})
	}))
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	prior := testProfile(RolePatient)
	seedStore(t, store, "tok-prior", prior)

	engine := newTestEngine(t, backendConfig(srv.URL), store)
	if err := engine.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}

	_, err := engine.Login(context.Background(), Credentials{
		Email:    "other@clinic.example",
		Password: "bad-pw",
	})
	if !errors.Is(err, ErrEndpointFailure) {
		t.Fatalf("expected ErrEndpointFailure, got %v", err)
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T", err)
	}
	if authErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", authErr.StatusCode)
	}
	if authErr.Reason != "wrong password" {
		t.Fatalf("expected the server-provided reason, got %q", authErr.Reason)
	}

	// The prior session survives untouched, in memory and in the store.
	sess := engine.Session()
	if !sess.Authenticated() || sess.User.ID != prior.ID {
		t.Fatalf("prior session was disturbed: %+v", sess)
	}
	if engine.Token() != "tok-prior" {
		t.Fatalf("prior token was disturbed: %q", engine.Token())
	}
	rec, ok, _ := store.Load(context.Background())
	if !ok || rec.Token != "tok-prior" {
		t.Fatalf("prior record was disturbed: ok=%v %+v", ok, rec)
	}
}

func TestLoginRoleMismatchRejected(t *testing.T) {
	// The backend assigns patient; the caller asked to sign in as admin.
	srv := authBackend(t, "tok-x", testProfile(RolePatient))
	store := session.NewMemoryStore()

	engine := newTestEngine(t, backendConfig(srv.URL), store)

	_, err := engine.Login(context.Background(), Credentials{
		Email:    "casey@clinic.example",
		Password: "s3cret-pw",
		Role:     RoleAdmin,
	})
	if !errors.Is(err, ErrRoleMismatch) {
		t.Fatalf("expected ErrRoleMismatch, got %v", err)
	}

	if engine.Session().Status != StatusUnknown {
		t.Fatal("role mismatch must not alter the session")
	}
	if _, ok, _ := store.Load(context.Background()); ok {
		t.Fatal("role mismatch must not persist anything")
	}
}

func TestLoginMatchingRoleAccepted(t *testing.T) {
	srv := authBackend(t, "tok-x", testProfile(RoleDoctor))
	engine := newTestEngine(t, backendConfig(srv.URL), nil)

	got, err := engine.Login(context.Background(), Credentials{
		Email:    "casey@clinic.example",
		Password: "s3cret-pw",
		Role:     RoleDoctor,
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got.Role != RoleDoctor {
		t.Fatalf("unexpected role: %s", got.Role)
	}
}

func TestLoginStorageFailureLeavesSession(t *testing.T) {
	srv := authBackend(t, "tok-new", testProfile(RoleDoctor))
	saveErr := errors.New("disk full")
	store := &flakyStore{inner: session.NewMemoryStore(), saveErr: saveErr}

	engine := newTestEngine(t, backendConfig(srv.URL), store)

	_, err := engine.Login(context.Background(), Credentials{
		Email:    "casey@clinic.example",
		Password: "s3cret-pw",
	})
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	if engine.Session().Status != StatusUnknown {
		t.Fatal("storage failure must not install the new session")
	}
	if engine.Token() != "" {
		t.Fatal("storage failure must not adopt the token")
	}
}

func TestLoginMalformedResponseRejected(t *testing.T) {
	cases := map[string]string{
		"missing token": `{"user":{"id":"u-1","email":"a@b.com","role":"doctor"}}`,
		"missing user":  `{"token":"tok-x"}`,
		"unknown role":  `{"token":"tok-x","user":{"id":"u-1","email":"a@b.com","role":"superuser"}}`,
		"not json":      `<html>maintenance</html>`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			t.Cleanup(srv.Close)

			store := session.NewMemoryStore()
			engine := newTestEngine(t, backendConfig(srv.URL), store)

			_, err := engine.Login(context.Background(), Credentials{
				Email:    "casey@clinic.example",
				Password: "s3cret-pw",
			})
			if !errors.Is(err, ErrEndpointFailure) {
				t.Fatalf("expected ErrEndpointFailure, got %v", err)
			}
			if _, ok, _ := store.Load(context.Background()); ok {
				t.Fatal("malformed response must not persist anything")
			}
		})
	}
}

func TestLoginTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // the engine dials a dead server

	engine := newTestEngine(t, backendConfig(srv.URL), nil)

	_, err := engine.Login(context.Background(), Credentials{
		Email:    "casey@clinic.example",
		Password: "s3cret-pw",
	})
	if !errors.Is(err, ErrEndpointFailure) {
		t.Fatalf("expected ErrEndpointFailure, got %v", err)
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T", err)
	}
	if authErr.StatusCode != 0 {
		t.Fatalf("expected zero status for transport failure, got %d", authErr.StatusCode)
	}
}

func TestRegisterSuccessSignsIn(t *testing.T) {
	user := testProfile(RolePatient)
	srv := authBackend(t, "tok-fresh", user)
	store := session.NewMemoryStore()

	engine := newTestEngine(t, backendConfig(srv.URL), store)

	got, err := engine.Register(context.Background(), Registration{
		Email:     user.Email,
		Password:  "long-enough-pw",
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      RolePatient,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if !engine.Session().Authenticated() {
		t.Fatal("expected registration to sign the user in")
	}
	if _, ok, _ := store.Load(context.Background()); !ok {
		t.Fatal("expected registration to persist the pair")
	}
	if got := engine.MetricsSnapshot().Counters[MetricRegisterSuccess]; got != 1 {
		t.Fatalf("expected 1 register success, got %d", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := deadBackend(t)
	engine := newTestEngine(t, backendConfig(srv.URL), nil)

	cases := map[string]Registration{
		"short password": {
			Email: "a@b.com", Password: "short", FirstName: "A", LastName: "B", Role: RolePatient,
		},
		"missing role": {
			Email: "a@b.com", Password: "long-enough-pw", FirstName: "A", LastName: "B",
		},
		"missing name": {
			Email: "a@b.com", Password: "long-enough-pw", Role: RolePatient,
		},
	}
	for name, reg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Register(context.Background(), reg)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLoginLatencyHistogram(t *testing.T) {
	srv := authBackend(t, "tok-x", testProfile(RoleAdmin))

	cfg := backendConfig(srv.URL)
	cfg.Metrics.EnableLoginLatency = true
	engine := newTestEngine(t, cfg, nil)

	_, err := engine.Login(context.Background(), Credentials{
		Email:    "casey@clinic.example",
		Password: "s3cret-pw",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	buckets := engine.MetricsSnapshot().Histograms[MetricLoginLatency]
	if len(buckets) == 0 {
		t.Fatal("expected latency histogram in snapshot")
	}
	var total uint64
	for _, b := range buckets {
		total += b
	}
	if total != 1 {
		t.Fatalf("expected 1 latency observation, got %d", total)
	}
}
