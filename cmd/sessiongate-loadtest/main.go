// Command sessiongate-loadtest hammers the engine's login and hydrate paths
// against an in-process stub backend and prints latency percentiles.
//
// Each worker owns one engine, the way one process owns one session. The
// token store backend is selectable: memory (default), file, or redis. With
// -store=redis and no address, an embedded miniredis is started.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	sessiongate "github.com/cityhealth/sessiongate"
	"github.com/cityhealth/sessiongate/session"
)

func main() {
	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers (one engine each)")
		ops         = flag.Int("ops", 50000, "operations per phase (login + hydrate)")
		storeKind   = flag.String("store", "memory", "token store backend: memory, file, or redis")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	backend := httptest.NewServer(stubBackend())
	defer backend.Close()
	fmt.Printf("stub backend at %s\n", backend.URL)

	newStore, cleanup, err := storeFactory(*storeKind, *redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store setup failed: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	cfg := sessiongate.Config{
		Endpoints: sessiongate.EndpointConfig{
			LoginURL:    backend.URL + "/login",
			RegisterURL: backend.URL + "/register",
			LogoutURL:   backend.URL + "/logout",
		},
		HTTP:    sessiongate.HTTPConfig{Timeout: 10 * time.Second},
		Metrics: sessiongate.MetricsConfig{Enabled: true, EnableLoginLatency: true},
	}

	engines := make([]*sessiongate.Engine, *concurrency)
	for i := range engines {
		eng, err := sessiongate.New().
			WithConfig(cfg).
			WithStore(newStore(i)).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
			os.Exit(1)
		}
		engines[i] = eng
	}

	loginStats := runPhase(*ops, engines, func(ctx context.Context, eng *sessiongate.Engine, i int) error {
		_, err := eng.Login(ctx, sessiongate.Credentials{
			Email:    fmt.Sprintf("load-%d@clinic.example", i),
			Password: "load-test-password",
		})
		return err
	})

	hydrateStats := runPhase(*ops, engines, func(ctx context.Context, eng *sessiongate.Engine, _ int) error {
		return eng.Hydrate(ctx)
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("hydrate", hydrateStats)

	fmt.Println("---- engine 0 counters ----")
	snapshot := engines[0].MetricsSnapshot()
	fmt.Printf("login_success=%d hydrate=%d\n",
		snapshot.Counters[sessiongate.MetricLoginSuccess],
		snapshot.Counters[sessiongate.MetricHydrate],
	)
	if buckets, ok := snapshot.Histograms[sessiongate.MetricLoginLatency]; ok {
		fmt.Printf("login_latency_buckets=%v\n", buckets)
	}
}

// storeFactory returns a per-worker store constructor and its cleanup.
func storeFactory(kind, redisAddr string) (func(worker int) sessiongate.TokenStore, func(), error) {
	switch kind {
	case "memory":
		return func(int) sessiongate.TokenStore {
			return session.NewMemoryStore()
		}, func() {}, nil

	case "file":
		dir, err := os.MkdirTemp("", "sessiongate-loadtest-*")
		if err != nil {
			return nil, nil, err
		}
		return func(worker int) sessiongate.TokenStore {
				return session.NewFileStore(filepath.Join(dir, fmt.Sprintf("session-%d.json", worker)))
			}, func() {
				_ = os.RemoveAll(dir)
			}, nil

	case "redis":
		addr := redisAddr
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}
		var mr *miniredis.Miniredis
		if addr == "" {
			var err error
			mr, err = miniredis.Run()
			if err != nil {
				return nil, nil, err
			}
			addr = mr.Addr()
			fmt.Printf("using miniredis at %s\n", addr)
		} else {
			fmt.Printf("using redis at %s\n", addr)
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		return func(worker int) sessiongate.TokenStore {
				return session.NewRedisStore(client, fmt.Sprintf("sg-load-%d", worker))
			}, func() {
				_ = client.Close()
				if mr != nil {
					mr.Close()
				}
			}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

func runPhase(ops int, engines []*sessiongate.Engine, op func(context.Context, *sessiongate.Engine, int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	ctx := context.Background()
	start := time.Now()
	for w := 0; w < len(engines); w++ {
		wg.Add(1)
		go func(eng *sessiongate.Engine) {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(ctx, eng, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(engines[w])
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// stubBackend grants every login instantly; the engine under test is the
// bottleneck being measured, not the server.
func stubBackend() http.Handler {
	grant := func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": uuid.NewString(),
			"user": session.Profile{
				ID:        uuid.NewString(),
				Email:     body.Email,
				FirstName: "Load",
				LastName:  "Tester",
				Role:      session.RolePatient,
			},
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", grant)
	mux.HandleFunc("POST /register", grant)
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}
