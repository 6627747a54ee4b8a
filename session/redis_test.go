package session

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisStore(client, "sg-test")
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, s := newTestRedisStore(t)

	if _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	rec := Record{Token: "t1", User: testProfile()}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if got.Token != rec.Token || got.User != rec.User {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Fatal("record present after Clear")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestRedisStoreOrphanTokenCleared(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedisStore(t)

	// Token present without its profile half.
	mr.Set("sg-test:token", "t1")

	_, ok, err := s.Load(ctx)
	if ok || !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("orphan token accepted: ok=%v err=%v", ok, err)
	}
	if mr.Exists("sg-test:token") {
		t.Fatal("orphan token key not removed")
	}
}

func TestRedisStoreCorruptProfileCleared(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedisStore(t)

	mr.Set("sg-test:token", "t1")
	mr.Set("sg-test:user", `{not valid`)

	_, ok, err := s.Load(ctx)
	if ok || !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("corrupt profile accepted: ok=%v err=%v", ok, err)
	}
	if mr.Exists("sg-test:token") || mr.Exists("sg-test:user") {
		t.Fatal("corrupt pair not removed")
	}
}

func TestRedisStoreUnknownRoleCleared(t *testing.T) {
	ctx := context.Background()
	mr, s := newTestRedisStore(t)

	mr.Set("sg-test:token", "t1")
	mr.Set("sg-test:user", `{"id":"u-1","email":"a@b.com","role":"superuser"}`)

	_, ok, err := s.Load(ctx)
	if ok || !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("unknown role accepted: ok=%v err=%v", ok, err)
	}
	if mr.Exists("sg-test:user") {
		t.Fatal("pair with unknown role not removed")
	}
}

func TestRedisStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	_, s := newTestRedisStore(t)

	if err := s.Save(ctx, Record{Token: "t1", User: testProfile()}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := testProfile()
	second.ID = "u-2"
	if err := s.Save(ctx, Record{Token: "t2", User: second}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, ok, _ := s.Load(ctx)
	if !ok || got.Token != "t2" || got.User.ID != "u-2" {
		t.Fatalf("overwrite not observed: %+v", got)
	}
}
